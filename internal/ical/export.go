// Package ical exports shifts as an iCalendar feed.
package ical

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/occurrence"
	"github.com/dukerupert/shiftline/internal/recurrence"
)

const (
	productID = "-//shiftline//Shift Timeline//EN"
	uidDomain = "shiftline"
	utcLayout = "20060102T150405Z"
)

// Export renders one owner's shifts as a calendar named name. Recurring
// shifts carry their RRULE, with an EXDATE on each date where a one-off
// shift of the same owner takes precedence. Dates are read in loc. Shifts
// with a malformed rule are left out.
func Export(name string, shifts []model.Shift, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	var oneOffs []model.Shift
	for _, s := range shifts {
		if !s.IsRecurring {
			oneOffs = append(oneOffs, s)
		}
	}

	for _, s := range shifts {
		rule := ""
		if s.IsRecurring {
			r, err := recurrence.Parse(s.RecurrenceRule)
			if err != nil {
				slog.Warn("skipping shift with invalid recurrence rule", "shift_id", s.ID, "rule", s.RecurrenceRule, "error", err)
				continue
			}
			rule = r.Body()
		}

		ev := cal.AddEvent(s.ID + "@" + uidDomain)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(s.StartTime)
		ev.SetEndAt(s.EndTime)
		ev.SetSummary(summary(name, s))
		if desc := describeSegments(s); desc != "" {
			ev.SetDescription(desc)
		}
		if loc := firstLocation(s); loc != "" {
			ev.SetLocation(loc)
		}
		if !s.UpdatedAt.IsZero() {
			ev.SetModifiedAt(s.UpdatedAt)
		}

		if rule == "" {
			continue
		}
		ev.AddRrule(rule)
		for _, o := range oneOffs {
			day := localDate(o.ShiftDate, loc)
			if occurrence.OccursOn(s, day) {
				ev.AddExdate(exdate(s.StartTime, day))
			}
		}
	}

	return cal.Serialize()
}

func summary(name string, s model.Shift) string {
	if s.OwnerName != "" {
		return s.OwnerName + " shift"
	}
	return name + " shift"
}

func describeSegments(s model.Shift) string {
	var lines []string
	for _, seg := range s.Segments {
		label := seg.Label
		if seg.Tag != nil && seg.Tag.Name != "" && seg.Tag.Name != label {
			label = strings.TrimSpace(label + " (" + seg.Tag.Name + ")")
		}
		if seg.StartTime.IsZero() {
			lines = append(lines, fmt.Sprintf("+%dm-+%dm %s", seg.Start, seg.End, label))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s-%s %s", seg.StartTime.Format("15:04"), seg.EndTime.Format("15:04"), label))
	}
	return strings.Join(lines, "\n")
}

func firstLocation(s model.Shift) string {
	for _, seg := range s.Segments {
		if seg.Location != "" {
			return seg.Location
		}
	}
	return ""
}

func localDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// exdate is the recurring start's local clock time on day, in UTC.
func exdate(start, day time.Time) string {
	h, m, sec := start.In(day.Location()).Clock()
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, sec, 0, day.Location()).UTC().Format(utcLayout)
}
