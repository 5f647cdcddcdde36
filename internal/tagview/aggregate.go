// Package tagview builds the per-day view of a tag: the tag's own shift plus
// every person segment that references the tag.
package tagview

import (
	"log/slog"
	"math"
	"time"

	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/occurrence"
)

const UnknownUser = "Unknown User"

// AggregateTagDay returns the composite shift for one tag on day, or nil when
// none of tagShifts occurs. tagShifts are the shifts owned by that tag; a
// one-off shift is preferred over a recurring one as the primary.
//
// Matched segments are copied in person order, then segment order, with User
// set and Start/End recomputed relative to the primary shift's start. The
// result has an empty, non-nil segment list when nobody works the tag.
func AggregateTagDay(personShifts, tagShifts []model.Shift, day time.Time) *model.TagShift {
	primary := occurrence.Resolve(tagShifts, day)
	if primary == nil {
		return nil
	}

	tagID := primary.OwnerID()
	segments := []model.Segment{}
	if tagID == "" {
		slog.Warn("tag shift without tag", "shift_id", primary.ID)
	} else {
		order, groups := occurrence.GroupByPerson(personShifts)
		for _, personID := range order {
			for _, ps := range occurrence.Active(groups[personID], day) {
				segments = append(segments, collect(ps, tagID, primary.StartTime, day.Location())...)
			}
		}
	}

	primary.Segments = segments
	return &model.TagShift{Shift: *primary, Segments: segments}
}

// AggregateAll builds one composite per tag occurring on day, in the order
// tags first appear in tagShifts.
func AggregateAll(personShifts, tagShifts []model.Shift, day time.Time) []model.TagShift {
	groups := make(map[string][]model.Shift)
	var order []string
	for _, s := range tagShifts {
		if s.TagID == nil {
			continue
		}
		id := *s.TagID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], s)
	}

	var out []model.TagShift
	for _, id := range order {
		if ts := AggregateTagDay(personShifts, groups[id], day); ts != nil {
			out = append(out, *ts)
		}
	}
	return out
}

func collect(ps model.Shift, tagID string, primaryStart time.Time, loc *time.Location) []model.Segment {
	user := ps.OwnerName
	if user == "" {
		user = UnknownUser
	}

	var out []model.Segment
	for _, seg := range ps.Segments {
		if !Matches(seg, tagID) {
			continue
		}
		seg.User = user
		if !seg.StartTime.IsZero() && !seg.EndTime.IsZero() {
			seg.Start = minutesBetween(primaryStart, seg.StartTime, loc)
			seg.End = minutesBetween(primaryStart, seg.EndTime, loc)
		}
		out = append(out, seg)
	}
	return out
}

// minutesBetween compares time-of-day only, so segments from shifts anchored
// on other dates line up with the tag's window.
func minutesBetween(from, to time.Time, loc *time.Location) int {
	fh, fm, fs := from.In(loc).Clock()
	th, tm, ts := to.In(loc).Clock()
	secs := (th*3600 + tm*60 + ts) - (fh*3600 + fm*60 + fs)
	return int(math.Round(float64(secs) / 60))
}
