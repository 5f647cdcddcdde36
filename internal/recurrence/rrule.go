package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
	SubDaily
)

var toRRuleFreq = map[Freq]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Rule is a parsed recurrence rule. The original text is kept verbatim so a
// rule authored elsewhere survives a load/save cycle unchanged.
type Rule struct {
	raw string
	opt rrule.ROption
}

// Parse parses an RRULE string like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2".
// A leading "RRULE:" and a DTSTART line are accepted; DTSTART is ignored at
// evaluation time because shifts carry their own start.
func Parse(rule string) (Rule, error) {
	s := strings.TrimSpace(rule)
	if s == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("parse rule %q: %w", rule, err)
	}
	if opt.Interval < 0 || opt.Count < 0 {
		return Rule{}, fmt.Errorf("parse rule %q: negative INTERVAL or COUNT", rule)
	}
	if _, err := rrule.NewRRule(*opt); err != nil {
		return Rule{}, fmt.Errorf("validate rule %q: %w", rule, err)
	}

	return Rule{raw: rule, opt: *opt}, nil
}

// Build authors a rule from the weekday-toggle style inputs the editor offers.
// Days are ignored for frequencies other than Weekly.
func Build(freq Freq, interval int, days []time.Weekday) (Rule, error) {
	f, ok := toRRuleFreq[freq]
	if !ok {
		return Rule{}, fmt.Errorf("unsupported frequency: %d", freq)
	}

	opt := rrule.ROption{Freq: f}
	if interval > 1 {
		opt.Interval = interval
	}
	if freq == Weekly {
		for _, d := range days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	}

	if _, err := rrule.NewRRule(opt); err != nil {
		return Rule{}, fmt.Errorf("build rule: %w", err)
	}
	return Rule{raw: opt.RRuleString(), opt: opt}, nil
}

// String returns the rule text exactly as it was parsed or built.
func (r Rule) String() string {
	return r.raw
}

// Body returns the rule parts alone (e.g. "FREQ=DAILY"), without an
// "RRULE:" prefix or a DTSTART line, as an iCalendar RRULE property needs.
func (r Rule) Body() string {
	for _, line := range strings.Split(r.raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		if line == "" || strings.HasPrefix(upper, "DTSTART") {
			continue
		}
		if strings.HasPrefix(upper, "RRULE:") {
			return line[len("RRULE:"):]
		}
		return line
	}
	return r.opt.RRuleString()
}

func (r Rule) Freq() Freq {
	switch r.opt.Freq {
	case rrule.DAILY:
		return Daily
	case rrule.WEEKLY:
		return Weekly
	case rrule.MONTHLY:
		return Monthly
	case rrule.YEARLY:
		return Yearly
	}
	return SubDaily
}

func (r Rule) Interval() int {
	if r.opt.Interval < 1 {
		return 1
	}
	return r.opt.Interval
}

// ByDay returns the BYDAY weekdays, ignoring any ordinal prefix.
func (r Rule) ByDay() []time.Weekday {
	var days []time.Weekday
	for _, wd := range r.opt.Byweekday {
		days = append(days, time.Weekday((wd.Day()+1)%7))
	}
	return days
}

// Count is the COUNT limit, 0 when unbounded.
func (r Rule) Count() int {
	return r.opt.Count
}

// Until is the UNTIL bound, nil when unbounded.
func (r Rule) Until() *time.Time {
	if r.opt.Until.IsZero() {
		return nil
	}
	u := r.opt.Until
	return &u
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	interval := r.Interval()
	var desc string
	switch r.Freq() {
	case Daily:
		desc = "Repeats daily"
		if interval > 1 {
			desc = fmt.Sprintf("Repeats every %d days", interval)
		}
	case Weekly:
		desc = "Repeats weekly"
		if interval == 2 {
			desc = "Repeats every 2 weeks"
		} else if interval > 2 {
			desc = fmt.Sprintf("Repeats every %d weeks", interval)
		}
		if days := r.ByDay(); len(days) > 0 {
			var names []string
			for _, d := range days {
				names = append(names, d.String()[:3])
			}
			desc += " on " + strings.Join(names, ", ")
		}
	case Monthly:
		desc = "Repeats monthly"
		if interval > 1 {
			desc = fmt.Sprintf("Repeats every %d months", interval)
		}
	case Yearly:
		desc = "Repeats yearly"
		if interval > 1 {
			desc = fmt.Sprintf("Repeats every %d years", interval)
		}
	default:
		return r.raw
	}

	if n := r.Count(); n > 0 {
		desc += fmt.Sprintf(", %d times", n)
	}
	if u := r.Until(); u != nil {
		desc += " until " + u.Format("Jan 2, 2006")
	}
	return desc
}
