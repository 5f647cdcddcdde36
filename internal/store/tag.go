package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/shiftline/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(scanner interface{ Scan(...any) error }) (*model.Tag, error) {
	var t model.Tag
	var requires int
	var minCoverage sql.NullInt64

	err := scanner.Scan(&t.ID, &t.Name, &t.Kind, &t.Icon, &t.Color, &requires, &minCoverage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.RequiresCoverage = requires != 0
	if minCoverage.Valid {
		n := int(minCoverage.Int64)
		t.MinCoverage = &n
	}
	return &t, nil
}

const tagCols = `id, name, kind, icon, color, requires_coverage, min_coverage, created_at, updated_at`

func (s *TagStore) Create(name string, kind model.TagKind, icon, color string, requiresCoverage bool, minCoverage *int) (*model.Tag, error) {
	if kind == "" {
		kind = model.TagStation
	}
	var requires int
	if requiresCoverage {
		requires = 1
	}
	var minCov sql.NullInt64
	if minCoverage != nil {
		minCov = sql.NullInt64{Int64: int64(*minCoverage), Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tags (id, name, kind, icon, color, requires_coverage, min_coverage) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, string(kind), icon, color, requires, minCov,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return s.GetByID(id)
}

func (s *TagStore) GetByID(id string) (*model.Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagCols+` FROM tags WHERE id = ?`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

func (s *TagStore) List() ([]model.Tag, error) {
	rows, err := s.db.Query(`SELECT ` + tagCols + ` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}
