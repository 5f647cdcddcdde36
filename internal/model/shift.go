package model

import "time"

type OwnerKind string

const (
	OwnerPerson OwnerKind = "person"
	OwnerTag    OwnerKind = "tag"
	OwnerNone   OwnerKind = ""
)

// Shift is one stored work period. StartTime/EndTime describe its canonical
// occurrence; recurring shifts repeat that time-of-day per RecurrenceRule.
type Shift struct {
	ID               string    `json:"id"`
	PersonID         *string   `json:"person_id,omitempty"`
	TagID            *string   `json:"tag_id,omitempty"`
	OwnerName        string    `json:"owner_name,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ShiftDate        time.Time `json:"shift_date"`
	IsRecurring      bool      `json:"is_recurring"`
	RecurrenceRule   string    `json:"recurrence_rule,omitempty"`
	OverridesShiftID *string   `json:"overrides_shift_id,omitempty"`
	Segments         []Segment `json:"segments"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Owner reports whether the shift belongs to a person or a tag.
func (s Shift) Owner() OwnerKind {
	switch {
	case s.PersonID != nil:
		return OwnerPerson
	case s.TagID != nil:
		return OwnerTag
	}
	return OwnerNone
}

// OwnerID returns the person or tag id, or "" when unowned.
func (s Shift) OwnerID() string {
	switch {
	case s.PersonID != nil:
		return *s.PersonID
	case s.TagID != nil:
		return *s.TagID
	}
	return ""
}

// Duration is the length of one occurrence.
func (s Shift) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// In returns a copy with its instants expressed in loc. ShiftDate is a
// calendar date and is left as is. Segments are
// copied so the receiver is left untouched.
func (s Shift) In(loc *time.Location) Shift {
	s.StartTime = s.StartTime.In(loc)
	s.EndTime = s.EndTime.In(loc)
	segs := make([]Segment, len(s.Segments))
	for i, g := range s.Segments {
		g.StartTime = g.StartTime.In(loc)
		g.EndTime = g.EndTime.In(loc)
		segs[i] = g
	}
	s.Segments = segs
	return s
}

// Segment is a sub-interval of a shift. StartTime/EndTime are absolute as
// stored; Start/End are minutes relative to the parent shift start once the
// segment is loaded into a view.
type Segment struct {
	ID        string         `json:"id"`
	ShiftID   string         `json:"shift_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Start     int            `json:"start"`
	End       int            `json:"end"`
	Label     string         `json:"label"`
	Notes     string         `json:"notes,omitempty"`
	Location  string         `json:"location,omitempty"`
	Color     string         `json:"color"`
	TagID     *string        `json:"tag_id,omitempty"`
	Tag       *Tag           `json:"tag,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
	User      string         `json:"user,omitempty"`
}

// TagShift is the per-day composite of a tag's own shift and every person
// segment that references the tag on that day.
type TagShift struct {
	Shift    Shift     `json:"shift"`
	Segments []Segment `json:"segments"`
}

// ShiftCommit is the complete desired state of one shift as sent to
// persistence on save. Segments not listed are deleted.
type ShiftCommit struct {
	ShiftID        string          `json:"shift_id"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	IsRecurring    bool            `json:"is_recurring"`
	RecurrenceRule string          `json:"recurrence_rule"`
	Segments       []SegmentCommit `json:"segments"`
}

type SegmentCommit struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Label     string    `json:"label"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
	Color     string    `json:"color"`
	TagID     *string   `json:"tag_id"`
}
