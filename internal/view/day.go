// Package view composes the day timeline: it resolves what occurs on a date,
// packs segments into rows and maps times to pixels.
package view

import (
	"math"
	"time"

	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/layout"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/occurrence"
	"github.com/dukerupert/shiftline/internal/tagview"
)

type SegmentView struct {
	model.Segment
	X     float64 `json:"x"`
	Width float64 `json:"width"`
	Row   int     `json:"row"`
}

// DayView is one shift box on the timeline of a single date. Start and End
// are the occurrence on that date; X and Width are relative to the 09:00
// baseline. Empty marks a shift with no segments.
type DayView struct {
	Shift    model.Shift   `json:"shift"`
	Date     string        `json:"date"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	X        float64       `json:"x"`
	Width    float64       `json:"width"`
	Height   int           `json:"height"`
	RowCount int           `json:"row_count"`
	Segments []SegmentView `json:"segments"`
	Empty    bool          `json:"empty"`
}

// PersonDay builds the view of one person's shifts on day, or nil when
// nothing occurs.
func PersonDay(shifts []model.Shift, day time.Time, m geometry.Mapper) *DayView {
	s := occurrence.Resolve(shifts, day)
	if s == nil {
		return nil
	}
	segs := make([]model.Segment, len(s.Segments))
	copy(segs, s.Segments)
	for i := range segs {
		relativize(&segs[i], s.StartTime)
	}
	s.Segments = segs
	return build(*s, day, m)
}

// TagDay builds the composite view of a tag on day, or nil when the tag has
// no shift that day.
func TagDay(personShifts, tagShifts []model.Shift, day time.Time, m geometry.Mapper) *DayView {
	ts := tagview.AggregateTagDay(personShifts, tagShifts, day)
	if ts == nil {
		return nil
	}
	return build(ts.Shift, day, m)
}

// People builds one view per person with a shift on day, in the order people
// first appear in shifts.
func People(shifts []model.Shift, day time.Time, m geometry.Mapper) []DayView {
	order, groups := occurrence.GroupByPerson(shifts)
	out := []DayView{}
	for _, id := range order {
		if v := PersonDay(groups[id], day, m); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Tags builds one composite view per tag with a shift on day.
func Tags(personShifts, tagShifts []model.Shift, day time.Time, m geometry.Mapper) []DayView {
	out := []DayView{}
	for _, ts := range tagview.AggregateAll(personShifts, tagShifts, day) {
		out = append(out, *build(ts.Shift, day, m))
	}
	return out
}

func build(s model.Shift, day time.Time, m geometry.Mapper) *DayView {
	start := onDate(s.StartTime, day)
	end := start.Add(s.Duration())

	spans := make([]layout.Span, len(s.Segments))
	for i, seg := range s.Segments {
		spans[i] = layout.Span{ID: seg.ID, Start: seg.Start, End: seg.End}
	}
	l := layout.Pack(spans)

	segments := make([]SegmentView, len(s.Segments))
	for i, seg := range s.Segments {
		segments[i] = SegmentView{
			Segment: seg,
			X:       math.Round(m.MinutesToPixels(float64(seg.Start))),
			Width:   math.Round(m.MinutesToPixels(float64(seg.End - seg.Start))),
			Row:     l.RowOf[seg.ID],
		}
	}

	return &DayView{
		Shift:    s,
		Date:     day.Format("2006-01-02"),
		Start:    start,
		End:      end,
		X:        m.TimeToPixel(start, m.Baseline(day)),
		Width:    m.MinutesToPixels(s.Duration().Minutes()),
		Height:   layout.ContainerHeight(l.RowCount),
		RowCount: l.RowCount,
		Segments: segments,
		Empty:    len(segments) == 0,
	}
}

// onDate moves the clock time of t onto the calendar date of day.
func onDate(t, day time.Time) time.Time {
	loc := day.Location()
	h, mi, s := t.In(loc).Clock()
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, mi, s, 0, loc)
}

func relativize(seg *model.Segment, shiftStart time.Time) {
	if seg.StartTime.IsZero() || seg.EndTime.IsZero() {
		return
	}
	seg.Start = int(math.Round(seg.StartTime.Sub(shiftStart).Minutes()))
	seg.End = int(math.Round(seg.EndTime.Sub(shiftStart).Minutes()))
}
