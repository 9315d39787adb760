package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision and no timezone.
// It only becomes an absolute instant when combined with a calendar day
// through a Calendar.
type TimeOfDay struct {
	Hour   int // 0..23
	Minute int // 0..59
}

// NewTimeOfDay validates the hour and minute ranges.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

// Validate reports whether the time is within the valid wall-clock range.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("time of day: hour %d out of range [0,23]", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("time of day: minute %d out of range [0,59]", t.Minute)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Weekday numbers the days of the week Sunday=0 through Saturday=6.
// This matches Go's time.Weekday numbering, but is kept as a distinct
// type so that rule values never silently mix with other calendar
// conventions (e.g. the 1-based Sunday=1 scheme some calendar APIs use).
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayOf normalizes a time.Weekday into the 0-based scheme.
func WeekdayOf(d time.Weekday) Weekday {
	return Weekday(d)
}

// Validate reports whether the weekday is within 0..6.
func (w Weekday) Validate() error {
	if w < Sunday || w > Saturday {
		return fmt.Errorf("weekday %d out of range [0,6]", int(w))
	}
	return nil
}

func (w Weekday) String() string {
	if w < Sunday || w > Saturday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// WeekdaySet is a set of weekdays stored as a bitmask, bit i for weekday i.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days. Days outside
// Sunday..Saturday are ignored, so an all-invalid input produces the
// empty set, which Validate rejects.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= Sunday && d <= Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

// Contains reports whether the set includes d.
func (s WeekdaySet) Contains(d Weekday) bool {
	if d < Sunday || d > Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Count returns the number of weekdays in the set.
func (s WeekdaySet) Count() int {
	n := 0
	for d := Sunday; d <= Saturday; d++ {
		if s.Contains(d) {
			n++
		}
	}
	return n
}

// Weekdays returns the members in ascending order.
func (s WeekdaySet) Weekdays() []Weekday {
	var out []Weekday
	for d := Sunday; d <= Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Validate reports whether the set is non-empty and holds no stray bits.
func (s WeekdaySet) Validate() error {
	if s == 0 {
		return fmt.Errorf("weekday set is empty")
	}
	if s >= 1<<7 {
		return fmt.Errorf("weekday set has out-of-range days")
	}
	return nil
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Weekdays() {
		names = append(names, d.String())
	}
	return strings.Join(names, "|")
}

// MonthlyDay selects which day of a month a Monthly rule fires on.
// It is a closed set of variants: FixedDay, FirstOfMonth, LastOfMonth,
// FirstWeekdayOfMonth and LastWeekdayOfMonth.
type MonthlyDay interface {
	monthlyDay()
	fmt.Stringer
}

// FixedDay fires on a fixed day-of-month 1..31. Months too short for the
// day (e.g. day 31 in April) contribute no occurrence.
type FixedDay struct {
	Day int
}

// FirstOfMonth fires on day 1.
type FirstOfMonth struct{}

// LastOfMonth fires on the month's actual last day.
type LastOfMonth struct{}

// FirstWeekdayOfMonth fires on the first occurrence of Weekday in the month.
type FirstWeekdayOfMonth struct {
	Weekday Weekday
}

// LastWeekdayOfMonth fires on the last occurrence of Weekday in the month.
type LastWeekdayOfMonth struct {
	Weekday Weekday
}

func (FixedDay) monthlyDay()            {}
func (FirstOfMonth) monthlyDay()        {}
func (LastOfMonth) monthlyDay()         {}
func (FirstWeekdayOfMonth) monthlyDay() {}
func (LastWeekdayOfMonth) monthlyDay()  {}

func (d FixedDay) String() string            { return fmt.Sprintf("day(%d)", d.Day) }
func (FirstOfMonth) String() string          { return "first" }
func (LastOfMonth) String() string           { return "last" }
func (d FirstWeekdayOfMonth) String() string { return "first-" + d.Weekday.String() }
func (d LastWeekdayOfMonth) String() string  { return "last-" + d.Weekday.String() }

func validateMonthlyDay(d MonthlyDay) error {
	switch v := d.(type) {
	case FixedDay:
		if v.Day < 1 || v.Day > 31 {
			return fmt.Errorf("monthly day %d out of range [1,31]", v.Day)
		}
		return nil
	case FirstOfMonth, LastOfMonth:
		return nil
	case FirstWeekdayOfMonth:
		return v.Weekday.Validate()
	case LastWeekdayOfMonth:
		return v.Weekday.Validate()
	case nil:
		return fmt.Errorf("monthly day is nil")
	default:
		return fmt.Errorf("unknown monthly day variant %T", d)
	}
}

// Unit is the step unit of an Every rule.
type Unit int

const (
	Minutes Unit = iota
	Hours
	Days
	Weeks
)

func (u Unit) String() string {
	switch u {
	case Minutes:
		return "minutes"
	case Hours:
		return "hours"
	case Days:
		return "days"
	case Weeks:
		return "weeks"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Rule is a declarative recurrence definition. It is a closed sum type:
// the variants are OneTime, Daily, Hourly, Every, Weekdays, Biweekly,
// Monthly and Yearly, and nothing else implements it. A Rule is immutable
// once constructed and carries no behavior beyond validation; expansion
// lives in Expand and friends.
//
// Field constraints are enforced by Validate. Expansion assumes a valid
// rule; passing an unvalidated rule with out-of-range fields is a caller
// programming error, not a runtime condition the expander detects.
type Rule interface {
	isRule()

	// Validate checks the construction-time constraints of the variant.
	Validate() error

	fmt.Stringer
}

// OneTime fires exactly once, at At.
type OneTime struct {
	At time.Time
}

// Daily fires every day at Time.
type Daily struct {
	Time TimeOfDay
}

// Hourly fires at Time every day and then every IntervalHours after it.
// Each day re-anchors its own chain at Time; see Expand for the exact
// two-phase semantics.
type Hourly struct {
	IntervalHours int
	Time          TimeOfDay
}

// Every fires at Time on the first eligible day and then every
// Interval Units after it, as a single unbroken chain.
type Every struct {
	Interval int
	Unit     Unit
	Time     TimeOfDay
}

// Weekdays fires at Time on the given days of every week.
type Weekdays struct {
	Time TimeOfDay
	Days WeekdaySet
}

// Biweekly fires at Time on the given days of every second week,
// counting ISO weeks from the query window's start week.
type Biweekly struct {
	Time TimeOfDay
	Days WeekdaySet
}

// Monthly fires once a month on the day selected by Day.
type Monthly struct {
	Day  MonthlyDay
	Time TimeOfDay
}

// Yearly fires once a year on Month/Day. Years in which the date does
// not exist (Feb 29 outside leap years) contribute no occurrence.
type Yearly struct {
	Month int // 1..12
	Day   int // 1..31
	Time  TimeOfDay
}

func (OneTime) isRule()  {}
func (Daily) isRule()    {}
func (Hourly) isRule()   {}
func (Every) isRule()    {}
func (Weekdays) isRule() {}
func (Biweekly) isRule() {}
func (Monthly) isRule()  {}
func (Yearly) isRule()   {}

func (r OneTime) Validate() error {
	if r.At.IsZero() {
		return fmt.Errorf("one-time rule has zero instant")
	}
	return nil
}

func (r Daily) Validate() error {
	return r.Time.Validate()
}

func (r Hourly) Validate() error {
	if r.IntervalHours < 1 {
		return fmt.Errorf("hourly interval %d must be >= 1", r.IntervalHours)
	}
	return r.Time.Validate()
}

func (r Every) Validate() error {
	if r.Interval < 1 {
		return fmt.Errorf("interval %d must be >= 1", r.Interval)
	}
	if r.Unit < Minutes || r.Unit > Weeks {
		return fmt.Errorf("unknown interval unit %d", int(r.Unit))
	}
	return r.Time.Validate()
}

func (r Weekdays) Validate() error {
	if err := r.Days.Validate(); err != nil {
		return err
	}
	return r.Time.Validate()
}

func (r Biweekly) Validate() error {
	if err := r.Days.Validate(); err != nil {
		return err
	}
	return r.Time.Validate()
}

func (r Monthly) Validate() error {
	if err := validateMonthlyDay(r.Day); err != nil {
		return err
	}
	return r.Time.Validate()
}

func (r Yearly) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("yearly month %d out of range [1,12]", r.Month)
	}
	if r.Day < 1 || r.Day > 31 {
		return fmt.Errorf("yearly day %d out of range [1,31]", r.Day)
	}
	return r.Time.Validate()
}

// String renders a deterministic, complete description of the rule.
// It is stable across calls for identical values and doubles as the
// rule's cache fingerprint.
func (r OneTime) String() string {
	return fmt.Sprintf("once{%s}", r.At.Format(time.RFC3339Nano))
}

func (r Daily) String() string {
	return fmt.Sprintf("daily{%s}", r.Time)
}

func (r Hourly) String() string {
	return fmt.Sprintf("hourly{every %dh from %s}", r.IntervalHours, r.Time)
}

func (r Every) String() string {
	return fmt.Sprintf("every{%d %s from %s}", r.Interval, r.Unit, r.Time)
}

func (r Weekdays) String() string {
	return fmt.Sprintf("weekdays{%s at %s}", r.Days, r.Time)
}

func (r Biweekly) String() string {
	return fmt.Sprintf("biweekly{%s at %s}", r.Days, r.Time)
}

func (r Monthly) String() string {
	return fmt.Sprintf("monthly{%s at %s}", r.Day, r.Time)
}

func (r Yearly) String() string {
	return fmt.Sprintf("yearly{%02d-%02d at %s}", r.Month, r.Day, r.Time)
}

// sortInstants orders instants ascending in place.
func sortInstants(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
