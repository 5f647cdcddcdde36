package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/model"
)

func ptr(s string) *string { return &s }

func at(day, hour, min int) time.Time {
	return time.Date(2024, 6, day, hour, min, 0, 0, time.UTC)
}

func dailyShift(id, person string, segs ...model.Segment) model.Shift {
	return model.Shift{
		ID:             id,
		PersonID:       ptr(person),
		OwnerName:      person,
		StartTime:      at(1, 9, 0),
		EndTime:        at(1, 17, 0),
		ShiftDate:      at(1, 0, 0),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=DAILY",
		Segments:       segs,
	}
}

func TestPersonDayRecurring(t *testing.T) {
	shifts := []model.Shift{dailyShift("a1", "A",
		model.Segment{ID: "s1", StartTime: at(1, 9, 0), EndTime: at(1, 11, 0), TagID: ptr("desk")},
		model.Segment{ID: "s2", StartTime: at(1, 10, 0), EndTime: at(1, 12, 0)},
		model.Segment{ID: "s3", StartTime: at(1, 13, 0), EndTime: at(1, 14, 0)},
	)}

	v := PersonDay(shifts, at(3, 0, 0), geometry.Default())
	if v == nil {
		t.Fatal("PersonDay returned nil")
	}
	if !v.Start.Equal(at(3, 9, 0)) || !v.End.Equal(at(3, 17, 0)) {
		t.Errorf("window = %v-%v, want 2024-06-03 09:00-17:00", v.Start, v.End)
	}
	if v.Date != "2024-06-03" {
		t.Errorf("Date = %q", v.Date)
	}
	if v.X != 0 || v.Width != 800 {
		t.Errorf("X, Width = %v, %v, want 0, 800", v.X, v.Width)
	}
	if v.RowCount != 2 || v.Height != 170 {
		t.Errorf("RowCount, Height = %d, %d, want 2, 170", v.RowCount, v.Height)
	}

	type geom struct {
		ID         string
		Start, End int
		X, Width   float64
		Row        int
	}
	var got []geom
	for _, s := range v.Segments {
		got = append(got, geom{s.ID, s.Start, s.End, s.X, s.Width, s.Row})
	}
	want := []geom{
		{"s1", 0, 120, 0, 200, 0},
		{"s2", 60, 180, 100, 200, 1},
		{"s3", 240, 300, 400, 100, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	if shifts[0].Segments[0].Start != 0 || shifts[0].Segments[1].Start != 0 {
		t.Error("PersonDay mutated input segments")
	}
}

func TestPersonDayOverride(t *testing.T) {
	oneOff := model.Shift{
		ID:        "o1",
		PersonID:  ptr("A"),
		StartTime: at(3, 10, 0),
		EndTime:   at(3, 14, 0),
		ShiftDate: at(3, 0, 0),
	}
	shifts := []model.Shift{dailyShift("a1", "A", model.Segment{ID: "s1", Start: 0, End: 60}), oneOff}

	v := PersonDay(shifts, at(3, 0, 0), geometry.Default())
	if v == nil || v.Shift.ID != "o1" {
		t.Fatalf("PersonDay = %+v, want o1", v)
	}
	if !v.Empty || len(v.Segments) != 0 {
		t.Errorf("Empty = %v, segments = %d, want empty", v.Empty, len(v.Segments))
	}
	if v.X != 100 || v.Width != 400 || v.Height != 100 || v.RowCount != 0 {
		t.Errorf("geometry = %v/%v/%d/%d", v.X, v.Width, v.Height, v.RowCount)
	}
}

func TestPersonDayNothingScheduled(t *testing.T) {
	if v := PersonDay(nil, at(3, 0, 0), geometry.Default()); v != nil {
		t.Errorf("PersonDay(nil) = %+v, want nil", v)
	}
}

func TestTagDay(t *testing.T) {
	people := []model.Shift{dailyShift("a1", "A",
		model.Segment{ID: "s1", StartTime: at(1, 9, 0), EndTime: at(1, 11, 0), TagID: ptr("desk")},
	)}
	tags := []model.Shift{{
		ID:             "desk-daily",
		TagID:          ptr("desk"),
		StartTime:      at(1, 9, 0),
		EndTime:        at(1, 17, 0),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=DAILY",
	}}

	v := TagDay(people, tags, at(3, 0, 0), geometry.Default())
	if v == nil {
		t.Fatal("TagDay returned nil")
	}
	if v.Empty || len(v.Segments) != 1 {
		t.Fatalf("segments = %+v, want one", v.Segments)
	}
	seg := v.Segments[0]
	if seg.User != "A" || seg.Start != 0 || seg.End != 120 || seg.Width != 200 {
		t.Errorf("segment = %+v", seg)
	}

	// Nobody working renders as an empty composite, not as nil.
	v = TagDay(nil, tags, at(3, 0, 0), geometry.Default())
	if v == nil || !v.Empty {
		t.Errorf("TagDay with no people = %+v, want empty view", v)
	}
}

func TestPeopleAndTags(t *testing.T) {
	people := []model.Shift{
		dailyShift("b1", "B"),
		dailyShift("a1", "A", model.Segment{ID: "s1", StartTime: at(1, 12, 0), EndTime: at(1, 13, 0), TagID: ptr("desk")}),
		{ID: "c1", PersonID: ptr("C"), StartTime: at(4, 9, 0), EndTime: at(4, 10, 0), ShiftDate: at(4, 0, 0)},
	}
	tags := []model.Shift{{ID: "d1", TagID: ptr("desk"), StartTime: at(3, 12, 0), EndTime: at(3, 18, 0), ShiftDate: at(3, 0, 0)}}

	views := People(people, at(3, 0, 0), geometry.Default())
	if len(views) != 2 || views[0].Shift.ID != "b1" || views[1].Shift.ID != "a1" {
		t.Errorf("People = %d views, want [b1 a1]", len(views))
	}

	tv := Tags(people, tags, at(3, 0, 0), geometry.Default())
	if len(tv) != 1 || len(tv[0].Segments) != 1 || tv[0].Segments[0].Start != 0 || tv[0].X != 300 {
		t.Errorf("Tags = %+v", tv)
	}

	if got := Tags(people, tags, at(4, 0, 0), geometry.Default()); got == nil || len(got) != 0 {
		t.Errorf("Tags on a day without tag shifts = %#v, want empty", got)
	}
}
