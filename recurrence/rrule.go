package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrNoRRule is returned for rules with no iCalendar RRULE equivalent.
var ErrNoRRule = errors.New("rule has no RRULE equivalent")

// NewRRule converts a rule into its iCalendar RRULE form, anchored at
// dtstart. OneTime rules are single instants, not recurrences, and
// return ErrNoRRule; callers emit them as plain events instead.
//
// The conversion is faithful for every other variant except two edges:
// an Hourly RRULE runs as a single chain from dtstart rather than
// re-anchoring at the rule's time each day, and a Biweekly RRULE
// anchors its week parity at dtstart rather than at each query
// window's start.
func NewRRule(r Rule, dtstart time.Time) (*rrule.RRule, error) {
	opt, err := rruleOption(r)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = dtstart
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE for %s: %w", r, err)
	}
	return rule, nil
}

// RRuleString renders the RRULE property value (without DTSTART) for
// the rule.
func RRuleString(r Rule, dtstart time.Time) (string, error) {
	rule, err := NewRRule(r, dtstart)
	if err != nil {
		return "", err
	}
	return rule.String(), nil
}

func rruleOption(r Rule) (rrule.ROption, error) {
	switch v := r.(type) {
	case Daily:
		return rrule.ROption{Freq: rrule.DAILY}, nil
	case Hourly:
		return rrule.ROption{Freq: rrule.HOURLY, Interval: v.IntervalHours}, nil
	case Every:
		freq, err := rruleFreq(v.Unit)
		if err != nil {
			return rrule.ROption{}, err
		}
		return rrule.ROption{Freq: freq, Interval: v.Interval}, nil
	case Weekdays:
		return rrule.ROption{Freq: rrule.WEEKLY, Byweekday: rruleWeekdays(v.Days)}, nil
	case Biweekly:
		return rrule.ROption{Freq: rrule.WEEKLY, Interval: 2, Byweekday: rruleWeekdays(v.Days)}, nil
	case Monthly:
		return rruleMonthlyOption(v.Day)
	case Yearly:
		return rrule.ROption{
			Freq:       rrule.YEARLY,
			Bymonth:    []int{v.Month},
			Bymonthday: []int{v.Day},
		}, nil
	case OneTime:
		return rrule.ROption{}, ErrNoRRule
	default:
		return rrule.ROption{}, fmt.Errorf("unknown rule variant %T", r)
	}
}

func rruleMonthlyOption(d MonthlyDay) (rrule.ROption, error) {
	switch v := d.(type) {
	case FixedDay:
		return rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{v.Day}}, nil
	case FirstOfMonth:
		return rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{1}}, nil
	case LastOfMonth:
		return rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{-1}}, nil
	case FirstWeekdayOfMonth:
		day := rruleWeekday(v.Weekday)
		return rrule.ROption{
			Freq:      rrule.MONTHLY,
			Byweekday: []rrule.Weekday{day.Nth(1)},
		}, nil
	case LastWeekdayOfMonth:
		day := rruleWeekday(v.Weekday)
		return rrule.ROption{
			Freq:      rrule.MONTHLY,
			Byweekday: []rrule.Weekday{day.Nth(-1)},
		}, nil
	default:
		return rrule.ROption{}, fmt.Errorf("unknown monthly day variant %T", d)
	}
}

func rruleFreq(u Unit) (rrule.Frequency, error) {
	switch u {
	case Minutes:
		return rrule.MINUTELY, nil
	case Hours:
		return rrule.HOURLY, nil
	case Days:
		return rrule.DAILY, nil
	case Weeks:
		return rrule.WEEKLY, nil
	default:
		return 0, fmt.Errorf("unknown interval unit %d", int(u))
	}
}

// rruleWeekday maps the 0-based Sunday-first scheme onto rrule-go's
// Monday-first weekday values.
func rruleWeekday(w Weekday) rrule.Weekday {
	switch w {
	case Monday:
		return rrule.MO
	case Tuesday:
		return rrule.TU
	case Wednesday:
		return rrule.WE
	case Thursday:
		return rrule.TH
	case Friday:
		return rrule.FR
	case Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func rruleWeekdays(s WeekdaySet) []rrule.Weekday {
	days := s.Weekdays()
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, rruleWeekday(d))
	}
	return out
}
