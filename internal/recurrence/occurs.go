package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"
)

// InfinitePastAnchor is the fixed anchor used for rules whose period cannot
// be rewound in whole steps (sub-daily frequencies).
var InfinitePastAnchor = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// OccursOn reports whether the rule, repeating the time-of-day of start,
// produces an occurrence on the calendar date of day (in day's location).
//
// Evaluation does not depend on where start falls: unbounded rules are
// anchored a whole number of periods before the query window, so dates
// before start are answered the same way as dates after it. Rules with a
// COUNT keep their literal anchor.
func (r Rule) OccursOn(start, day time.Time) bool {
	loc := day.Location()
	dayStart := startOfDay(day)
	windowStart := dayStart.AddDate(0, 0, -1)
	windowEnd := dayStart.AddDate(0, 0, 2)

	start = start.In(loc).Truncate(time.Second)
	opt := pinned(r.opt, start)
	opt.Dtstart = start
	if opt.Count == 0 {
		opt.Dtstart = rewind(opt, start, windowStart)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return false
	}

	for _, occ := range rule.Between(windowStart, windowEnd, true) {
		if sameDate(occ.In(loc), dayStart) {
			return true
		}
	}
	return false
}

// Occurrences returns occurrence starts of the rule within [from, to), using
// the same anchoring as OccursOn.
func (r Rule) Occurrences(start, from, to time.Time) []time.Time {
	loc := from.Location()
	start = start.In(loc).Truncate(time.Second)
	opt := pinned(r.opt, start)
	opt.Dtstart = start
	if opt.Count == 0 {
		opt.Dtstart = rewind(opt, start, from)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}

	var out []time.Time
	for _, occ := range rule.Between(from, to, true) {
		if occ.Before(to) {
			out = append(out, occ)
		}
	}
	return out
}

// pinned makes the parts of the rule that would otherwise be taken from
// DTSTART explicit, so moving the anchor does not move the pattern.
func pinned(opt rrule.ROption, start time.Time) rrule.ROption {
	noBy := len(opt.Bymonthday) == 0 && len(opt.Byweekday) == 0 &&
		len(opt.Byyearday) == 0 && len(opt.Byweekno) == 0 && len(opt.Bysetpos) == 0

	switch opt.Freq {
	case rrule.WEEKLY:
		if len(opt.Byweekday) == 0 {
			opt.Byweekday = []rrule.Weekday{rruleWeekdays[start.Weekday()]}
		}
	case rrule.MONTHLY:
		if noBy {
			opt.Bymonthday = []int{start.Day()}
		}
	case rrule.YEARLY:
		if noBy && len(opt.Bymonth) == 0 {
			opt.Bymonth = []int{int(start.Month())}
			opt.Bymonthday = []int{start.Day()}
		}
	}
	return opt
}

// rewind moves start back by whole recurrence periods until it is on or
// before the date of before. Time-of-day is preserved.
func rewind(opt rrule.ROption, start, before time.Time) time.Time {
	if !start.After(before) {
		return start
	}

	interval := opt.Interval
	if interval < 1 {
		interval = 1
	}
	h, m, s := start.Clock()
	loc := start.Location()
	y, mo, d := start.Date()

	switch opt.Freq {
	case rrule.DAILY, rrule.WEEKLY:
		step := interval
		if opt.Freq == rrule.WEEKLY {
			step *= 7
		}
		n := ceilDiv(civilDays(start)-civilDays(before), step)
		return time.Date(y, mo, d-n*step, h, m, s, 0, loc)
	case rrule.MONTHLY:
		months := (y-before.Year())*12 + int(mo-before.Month())
		n := ceilDiv(months, interval)
		return time.Date(y, mo-time.Month(n*interval), 1, h, m, s, 0, loc)
	case rrule.YEARLY:
		n := ceilDiv(y-before.Year(), interval)
		return time.Date(y-n*interval, time.January, 1, h, m, s, 0, loc)
	}

	anchor := time.Date(InfinitePastAnchor.Year(), InfinitePastAnchor.Month(), InfinitePastAnchor.Day(), h, m, s, 0, loc)
	if anchor.Before(start) {
		return anchor
	}
	return start
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
