package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/shiftline/internal/model"
)

var (
	ErrShiftNotFound = errors.New("shift not found")
	ErrInvalidShift  = errors.New("invalid shift")
)

const dateLayout = "2006-01-02"

type ShiftStore struct {
	db *sql.DB
}

func NewShiftStore(db *sql.DB) *ShiftStore {
	return &ShiftStore{db: db}
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const shiftCols = `s.id, s.person_id, s.tag_id, COALESCE(p.name, t.name, ''), s.start_time, s.end_time, s.shift_date,
	s.is_recurring, s.recurrence_rule, s.overrides_shift_id, s.created_at, s.updated_at`

const shiftFrom = ` FROM shifts s
	LEFT JOIN people p ON p.id = s.person_id
	LEFT JOIN tags t ON t.id = s.tag_id`

func scanShift(scanner interface{ Scan(...any) error }) (*model.Shift, error) {
	var sh model.Shift
	var personID, tagID, overrides sql.NullString
	var shiftDate string
	var recurring int

	err := scanner.Scan(
		&sh.ID, &personID, &tagID, &sh.OwnerName, &sh.StartTime, &sh.EndTime, &shiftDate,
		&recurring, &sh.RecurrenceRule, &overrides, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sh.PersonID = nullString(personID)
	sh.TagID = nullString(tagID)
	sh.OverridesShiftID = nullString(overrides)
	sh.IsRecurring = recurring != 0
	sh.ShiftDate, err = time.Parse(dateLayout, shiftDate)
	if err != nil {
		return nil, fmt.Errorf("parse shift date %q: %w", shiftDate, err)
	}
	sh.Segments = []model.Segment{}
	return &sh, nil
}

const segmentCols = `g.id, g.shift_id, g.start_time, g.end_time, g.label, g.notes, g.location, g.color,
	g.tag_id, g.attrs, t.name, t.kind, t.icon, t.color`

func scanSegment(scanner interface{ Scan(...any) error }) (*model.Segment, error) {
	var g model.Segment
	var tagID, tagName, tagKind, tagIcon, tagColor sql.NullString
	var attrs string

	err := scanner.Scan(
		&g.ID, &g.ShiftID, &g.StartTime, &g.EndTime, &g.Label, &g.Notes, &g.Location, &g.Color,
		&tagID, &attrs, &tagName, &tagKind, &tagIcon, &tagColor,
	)
	if err != nil {
		return nil, err
	}

	if tagID.Valid {
		g.TagID = &tagID.String
		if tagName.Valid {
			g.Tag = &model.Tag{
				ID:    tagID.String,
				Name:  tagName.String,
				Kind:  model.TagKind(tagKind.String),
				Icon:  tagIcon.String,
				Color: tagColor.String,
			}
		}
	}
	if attrs != "" {
		if err := json.Unmarshal([]byte(attrs), &g.Attrs); err != nil {
			return nil, fmt.Errorf("decode segment attrs: %w", err)
		}
	}
	return &g, nil
}

// Create inserts a shift and its segments. Segment times must be absolute.
// ShiftDate defaults to the start date and IDs are generated when empty.
func (s *ShiftStore) Create(sh model.Shift) (*model.Shift, error) {
	if (sh.PersonID == nil) == (sh.TagID == nil) {
		return nil, fmt.Errorf("create shift: %w: exactly one of person or tag is required", ErrInvalidShift)
	}
	if sh.IsRecurring && sh.RecurrenceRule == "" {
		return nil, fmt.Errorf("create shift: %w: recurring shift needs a rule", ErrInvalidShift)
	}
	if !sh.EndTime.After(sh.StartTime) {
		return nil, fmt.Errorf("create shift: %w: end must be after start", ErrInvalidShift)
	}
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	if sh.ShiftDate.IsZero() {
		sh.ShiftDate = sh.StartTime
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO shifts (id, person_id, tag_id, start_time, end_time, shift_date, is_recurring, recurrence_rule, overrides_shift_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, toNull(sh.PersonID), toNull(sh.TagID), sh.StartTime.UTC(), sh.EndTime.UTC(),
		sh.ShiftDate.Format(dateLayout), boolInt(sh.IsRecurring), sh.RecurrenceRule, toNull(sh.OverridesShiftID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert shift: %w", err)
	}

	for i, g := range sh.Segments {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if err := insertSegment(tx, sh.ID, i, g); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit shift: %w", err)
	}
	return s.GetByID(sh.ID)
}

func insertSegment(tx execer, shiftID string, order int, g model.Segment) error {
	attrs, err := encodeAttrs(g.Attrs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO segments (id, shift_id, start_time, end_time, label, notes, location, color, tag_id, attrs, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, shiftID, g.StartTime.UTC(), g.EndTime.UTC(), g.Label, g.Notes, g.Location, colorOrDefault(g.Color),
		toNull(g.TagID), attrs, order,
	)
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	return nil
}

func (s *ShiftStore) GetByID(id string) (*model.Shift, error) {
	row := s.db.QueryRow(`SELECT `+shiftCols+shiftFrom+` WHERE s.id = ?`, id)
	sh, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}

	shifts := []model.Shift{*sh}
	if err := s.attachSegments(shifts); err != nil {
		return nil, err
	}
	return &shifts[0], nil
}

func (s *ShiftStore) ListByPerson(personID string) ([]model.Shift, error) {
	return s.list(`WHERE s.person_id = ?`, personID)
}

func (s *ShiftStore) ListByTag(tagID string) ([]model.Shift, error) {
	return s.list(`WHERE s.tag_id = ?`, tagID)
}

// ListAllPersonShifts returns every person-owned shift, the input of tag
// aggregation.
func (s *ShiftStore) ListAllPersonShifts() ([]model.Shift, error) {
	return s.list(`WHERE s.person_id IS NOT NULL`)
}

func (s *ShiftStore) ListAllTagShifts() ([]model.Shift, error) {
	return s.list(`WHERE s.tag_id IS NOT NULL`)
}

func (s *ShiftStore) list(where string, args ...any) ([]model.Shift, error) {
	rows, err := s.db.Query(`SELECT `+shiftCols+shiftFrom+` `+where+` ORDER BY s.rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}

	var shifts []model.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, *sh)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	rows.Close()

	if err := s.attachSegments(shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// attachSegments loads segments for the given shifts in one query.
func (s *ShiftStore) attachSegments(shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	index := make(map[string]int, len(shifts))
	args := make([]any, len(shifts))
	marks := make([]string, len(shifts))
	for i, sh := range shifts {
		index[sh.ID] = i
		args[i] = sh.ID
		marks[i] = "?"
	}

	rows, err := s.db.Query(
		`SELECT `+segmentCols+` FROM segments g LEFT JOIN tags t ON t.id = g.tag_id
		 WHERE g.shift_id IN (`+strings.Join(marks, ",")+`)
		 ORDER BY g.shift_id, g.sort_order ASC, g.start_time ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanSegment(rows)
		if err != nil {
			return fmt.Errorf("scan segment: %w", err)
		}
		i := index[g.ShiftID]
		shifts[i].Segments = append(shifts[i].Segments, *g)
	}
	return rows.Err()
}

func (s *ShiftStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return nil
}

// SaveShift applies a commit in one transaction: the shift's times and
// recurrence are replaced, listed segments are upserted in commit order and
// segments missing from the commit are deleted.
func (s *ShiftStore) SaveShift(ctx context.Context, c model.ShiftCommit) (*model.Shift, error) {
	if !c.EndTime.After(c.StartTime) {
		return nil, fmt.Errorf("save shift: %w: end must be after start", ErrInvalidShift)
	}
	if c.IsRecurring && c.RecurrenceRule == "" {
		return nil, fmt.Errorf("save shift: %w: recurring shift needs a rule", ErrInvalidShift)
	}
	rule := c.RecurrenceRule
	if !c.IsRecurring {
		rule = ""
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE shifts SET start_time = ?, end_time = ?, shift_date = ?, is_recurring = ?, recurrence_rule = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.StartTime.UTC(), c.EndTime.UTC(), c.StartTime.Format(dateLayout), boolInt(c.IsRecurring), rule, c.ShiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("update shift: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("save shift %s: %w", c.ShiftID, ErrShiftNotFound)
	}

	keep := make([]any, 0, len(c.Segments)+1)
	keep = append(keep, c.ShiftID)
	marks := make([]string, 0, len(c.Segments))
	for _, g := range c.Segments {
		keep = append(keep, g.ID)
		marks = append(marks, "?")
	}
	del := `DELETE FROM segments WHERE shift_id = ?`
	if len(marks) > 0 {
		del += ` AND id NOT IN (` + strings.Join(marks, ",") + `)`
	}
	if _, err := tx.ExecContext(ctx, del, keep...); err != nil {
		return nil, fmt.Errorf("delete removed segments: %w", err)
	}

	for i, g := range c.Segments {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if !g.EndTime.After(g.StartTime) {
			return nil, fmt.Errorf("save segment %s: %w: end must be after start", g.ID, ErrInvalidShift)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO segments (id, shift_id, start_time, end_time, label, notes, location, color, tag_id, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   start_time = excluded.start_time, end_time = excluded.end_time, label = excluded.label,
			   notes = excluded.notes, location = excluded.location, color = excluded.color,
			   tag_id = excluded.tag_id, sort_order = excluded.sort_order
			 WHERE segments.shift_id = excluded.shift_id`,
			g.ID, c.ShiftID, g.StartTime.UTC(), g.EndTime.UTC(), g.Label, g.Notes, g.Location,
			colorOrDefault(g.Color), toNull(g.TagID), i,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert segment: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("upsert segment %s: %w: id belongs to another shift", g.ID, ErrInvalidShift)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit shift: %w", err)
	}
	return s.GetByID(c.ShiftID)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func toNull(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func colorOrDefault(c string) string {
	if c == "" {
		return "#ffffff"
	}
	return c
}

func encodeAttrs(attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode segment attrs: %w", err)
	}
	return string(b), nil
}
