package occurrence

import (
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/recurrence"
)

// OccursOn reports whether a shift is active on the calendar date of day.
// A malformed recurrence rule is logged and the shift treated as not occurring.
func OccursOn(shift model.Shift, day time.Time) bool {
	if !shift.IsRecurring {
		date := shift.ShiftDate
		if date.IsZero() {
			date = shift.StartTime.In(day.Location())
		}
		return sameDate(date, day)
	}

	if shift.RecurrenceRule == "" {
		slog.Warn("recurring shift without rule", "shift_id", shift.ID)
		return false
	}

	rule, err := recurrence.Parse(shift.RecurrenceRule)
	if err != nil {
		slog.Warn("invalid recurrence rule", "shift_id", shift.ID, "rule", shift.RecurrenceRule, "error", err)
		return false
	}
	return rule.OccursOn(shift.StartTime, day)
}

// Active returns the shifts of a single owner that survive on day.
//
// Shifts named by another occurring shift's OverridesShiftID are removed. If
// any occurring shift is non-recurring, every recurring shift is dropped.
// The result is ordered by start time-of-day; ties keep input order.
func Active(shifts []model.Shift, day time.Time) []model.Shift {
	var occurring []model.Shift
	for _, s := range shifts {
		if OccursOn(s, day) {
			occurring = append(occurring, s)
		}
	}
	if len(occurring) == 0 {
		return nil
	}

	suppressed := make(map[string]bool)
	oneOff := false
	for _, s := range occurring {
		if s.OverridesShiftID != nil && *s.OverridesShiftID != s.ID {
			suppressed[*s.OverridesShiftID] = true
		}
		if !s.IsRecurring {
			oneOff = true
		}
	}

	active := occurring[:0]
	for _, s := range occurring {
		if suppressed[s.ID] {
			continue
		}
		if oneOff && s.IsRecurring {
			continue
		}
		active = append(active, s)
	}

	loc := day.Location()
	sort.SliceStable(active, func(i, j int) bool {
		return clock(active[i].StartTime, loc) < clock(active[j].StartTime, loc)
	})
	return active
}

// Resolve picks the one shift shown for an owner on day: the earliest
// non-recurring shift if any occurs, otherwise the earliest recurring one.
// Returns nil when nothing occurs.
func Resolve(shifts []model.Shift, day time.Time) *model.Shift {
	active := Active(shifts, day)
	if len(active) == 0 {
		return nil
	}

	var best *model.Shift
	for i := range active {
		s := &active[i]
		if s.IsRecurring {
			continue
		}
		if best == nil || s.StartTime.Before(best.StartTime) {
			best = s
		}
	}
	if best == nil {
		best = &active[0]
	}

	out := *best
	return &out
}

// GroupByPerson splits person-owned shifts by person id. Ids are returned
// in first-seen order; shifts without a person are skipped.
func GroupByPerson(shifts []model.Shift) ([]string, map[string][]model.Shift) {
	groups := make(map[string][]model.Shift)
	var order []string
	for _, s := range shifts {
		if s.PersonID == nil {
			continue
		}
		id := *s.PersonID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], s)
	}
	return order, groups
}

// ResolveByPerson resolves each person's shifts independently. People with
// nothing on day are absent from the result.
func ResolveByPerson(shifts []model.Shift, day time.Time) map[string]*model.Shift {
	order, groups := GroupByPerson(shifts)
	resolved := make(map[string]*model.Shift, len(order))
	for _, id := range order {
		if s := Resolve(groups[id], day); s != nil {
			resolved[id] = s
		}
	}
	return resolved
}

func clock(t time.Time, loc *time.Location) int {
	h, m, s := t.In(loc).Clock()
	return h*3600 + m*60 + s
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
