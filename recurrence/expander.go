package recurrence

import (
	"context"
	"time"

	"github.com/samber/mo"
)

// Window is a closed interval [Start, End] of instants bounding an
// expansion. The inclusion test is closed on both ends: an occurrence
// exactly at End is included.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, ends included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Calendar anchors the wall-clock components of a rule (times of day,
// calendar days) to a timezone. It is an explicit dependency of every
// expansion call rather than a global, so two concurrent calls never
// share mutable state.
type Calendar struct {
	loc *time.Location
}

// NewCalendar builds a calendar context for the given location.
// A nil location falls back to time.Local.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// at combines a calendar day with a wall-clock time. It returns None
// when the combination does not name a real instant in the calendar's
// timezone: a day-of-month the month does not have, or a wall-clock
// time skipped by a DST transition. Callers drop None candidates
// silently; a missing instant is not an error.
func (c Calendar) at(year int, month time.Month, day int, tod TimeOfDay) mo.Option[time.Time] {
	t := time.Date(year, month, day, tod.Hour, tod.Minute, 0, 0, c.Location())
	if t.Year() != year || t.Month() != month || t.Day() != day ||
		t.Hour() != tod.Hour || t.Minute() != tod.Minute {
		return mo.None[time.Time]()
	}
	return mo.Some(t)
}

// dayOf truncates an instant to the start of its calendar day.
func (c Calendar) dayOf(t time.Time) time.Time {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
}

// Expand computes every instant at which the rule fires within the
// window, sorted ascending. It is pure and deterministic given the
// calendar context, holds no state across calls, and returns an empty
// slice (never an error) when the rule has no occurrences in the
// window. Candidates whose calendar construction fails are dropped
// silently; see Calendar.at.
//
// The rule is assumed valid (see Rule.Validate).
func Expand(r Rule, w Window, cal Calendar) []time.Time {
	return ExpandContext(context.Background(), r, w, cal)
}

// ExpandContext is Expand with a cancellation check threaded into the
// generation loops. When ctx is cancelled mid-expansion the instants
// collected so far are returned, still sorted; short-interval rules
// over wide windows are the only callers likely to notice.
func ExpandContext(ctx context.Context, r Rule, w Window, cal Calendar) []time.Time {
	if w.End.Before(w.Start) {
		return nil
	}

	var out []time.Time
	switch v := r.(type) {
	case OneTime:
		if w.Contains(v.At) {
			out = append(out, v.At)
		}
	case Daily:
		out = expandDayScan(ctx, w, cal, v.Time, nil)
	case Weekdays:
		out = expandDayScan(ctx, w, cal, v.Time, func(day time.Time) bool {
			return v.Days.Contains(WeekdayOf(day.Weekday()))
		})
	case Biweekly:
		out = expandBiweekly(ctx, v, w, cal)
	case Hourly:
		out = expandHourly(ctx, v, w, cal)
	case Every:
		out = expandEvery(ctx, v, w, cal)
	case Monthly:
		out = expandMonthly(ctx, v, w, cal)
	case Yearly:
		out = expandYearly(ctx, v, w, cal)
	}

	sortInstants(out)
	return out
}

// ExpandWithinDuration expands over the window [start, start+d].
// The window is closed, so a zero duration still observes an
// occurrence falling exactly at start. A negative duration, or one
// that overflows the representable time range, yields zero
// occurrences.
func ExpandWithinDuration(r Rule, start time.Time, d time.Duration, cal Calendar) []time.Time {
	end := start.Add(d)
	if end.Before(start) {
		return nil
	}
	return Expand(r, Window{Start: start, End: end}, cal)
}

// ExpandWithCap expands over [start, start+d] and keeps only the
// earliest maxAlarms occurrences. maxAlarms <= 0 means unlimited.
func ExpandWithCap(r Rule, start time.Time, d time.Duration, maxAlarms int, cal Calendar) []time.Time {
	out := ExpandWithinDuration(r, start, d, cal)
	if maxAlarms > 0 && len(out) > maxAlarms {
		out = out[:maxAlarms]
	}
	return out
}

// ExpandWithStrategy expands from start using the strategy's window
// duration and occurrence cap.
func ExpandWithStrategy(r Rule, start time.Time, s Strategy, cal Calendar) []time.Time {
	return ExpandWithCap(r, start, s.WindowDuration(), s.MaxAlarms(), cal)
}

// expandDayScan walks the window day by day, builds the time-of-day
// candidate for each day, and keeps in-window candidates that pass the
// optional day filter. This is the shared core of Daily and Weekdays.
func expandDayScan(ctx context.Context, w Window, cal Calendar, tod TimeOfDay, keepDay func(time.Time) bool) []time.Time {
	var out []time.Time
	for day := cal.dayOf(w.Start); !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			break
		}
		if keepDay != nil && !keepDay(day) {
			continue
		}
		t, ok := cal.at(day.Year(), day.Month(), day.Day(), tod).Get()
		if ok && w.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

func expandBiweekly(ctx context.Context, r Biweekly, w Window, cal Calendar) []time.Time {
	anchorWeek := startOfISOWeek(w.Start, cal)
	return expandDayScan(ctx, w, cal, r.Time, func(day time.Time) bool {
		if !r.Days.Contains(WeekdayOf(day.Weekday())) {
			return false
		}
		weeks := civilDaysBetween(anchorWeek, startOfISOWeek(day, cal)) / 7
		return weeks%2 == 0
	})
}

// expandHourly is two-phase: collect each day's time-of-day anchor
// inside the window, then step every anchor forward by the hour
// interval as its own chain until it leaves the window. Chains from
// consecutive days overlap once the interval runs past midnight; when
// the interval divides 24 they revisit the exact same instants, so the
// merged result is de-duplicated after sorting.
func expandHourly(ctx context.Context, r Hourly, w Window, cal Calendar) []time.Time {
	if r.IntervalHours < 1 {
		return nil
	}
	step := time.Duration(r.IntervalHours) * time.Hour

	var out []time.Time
	for day := cal.dayOf(w.Start); !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			break
		}
		anchor, ok := cal.at(day.Year(), day.Month(), day.Day(), r.Time).Get()
		if !ok || !w.Contains(anchor) {
			continue
		}
		for t := anchor; w.Contains(t); {
			out = append(out, t)
			next := t.Add(step)
			if !next.After(t) {
				break
			}
			t = next
		}
	}

	sortInstants(out)
	return dedupeSorted(out)
}

// expandEvery finds the first day whose time-of-day candidate is at or
// after the window start, then steps forward from that single anchor by
// the rule's interval. Unlike Hourly there is exactly one chain.
func expandEvery(ctx context.Context, r Every, w Window, cal Calendar) []time.Time {
	if r.Interval < 1 {
		return nil
	}

	var anchor time.Time
	found := false
	for day := cal.dayOf(w.Start); !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return nil
		}
		t, ok := cal.at(day.Year(), day.Month(), day.Day(), r.Time).Get()
		if ok && !t.Before(w.Start) {
			anchor = t
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	var out []time.Time
	for t := anchor; w.Contains(t); {
		if ctx.Err() != nil {
			break
		}
		out = append(out, t)
		next, ok := stepBy(t, r.Interval, r.Unit)
		if !ok {
			break
		}
		t = next
	}
	return out
}

// stepBy advances t by interval units. Minute and hour steps are
// absolute; day and week steps are calendar steps that preserve the
// wall-clock time across DST transitions. It reports failure when the
// step does not advance (arithmetic overflow at the edge of the
// representable range), which ends the caller's chain.
func stepBy(t time.Time, interval int, unit Unit) (time.Time, bool) {
	var next time.Time
	switch unit {
	case Minutes:
		next = t.Add(time.Duration(interval) * time.Minute)
	case Hours:
		next = t.Add(time.Duration(interval) * time.Hour)
	case Days:
		next = t.AddDate(0, 0, interval)
	case Weeks:
		next = t.AddDate(0, 0, 7*interval)
	default:
		return time.Time{}, false
	}
	if !next.After(t) {
		return time.Time{}, false
	}
	return next, true
}

func expandMonthly(ctx context.Context, r Monthly, w Window, cal Calendar) []time.Time {
	var out []time.Time

	startLocal := w.Start.In(cal.Location())
	endLocal := w.End.In(cal.Location())
	year, month := startLocal.Year(), startLocal.Month()
	endYear, endMonth := endLocal.Year(), endLocal.Month()

	for year < endYear || (year == endYear && month <= endMonth) {
		if ctx.Err() != nil {
			break
		}
		if t, ok := resolveMonthlyDay(cal, year, month, r.Day, r.Time).Get(); ok && w.Contains(t) {
			out = append(out, t)
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return out
}

// resolveMonthlyDay turns a MonthlyDay selector into a concrete instant
// in the given month, or None if the month has no such day.
func resolveMonthlyDay(cal Calendar, year int, month time.Month, d MonthlyDay, tod TimeOfDay) mo.Option[time.Time] {
	switch v := d.(type) {
	case FixedDay:
		return cal.at(year, month, v.Day, tod)
	case FirstOfMonth:
		return cal.at(year, month, 1, tod)
	case LastOfMonth:
		return cal.at(year, month, daysInMonth(year, month), tod)
	case FirstWeekdayOfMonth:
		first := civilWeekday(year, month, 1)
		offset := (int(v.Weekday) - first + 7) % 7
		return cal.at(year, month, 1+offset, tod)
	case LastWeekdayOfMonth:
		lastDay := daysInMonth(year, month)
		last := civilWeekday(year, month, lastDay)
		offset := (last - int(v.Weekday) + 7) % 7
		return cal.at(year, month, lastDay-offset, tod)
	default:
		return mo.None[time.Time]()
	}
}

func expandYearly(ctx context.Context, r Yearly, w Window, cal Calendar) []time.Time {
	var out []time.Time
	startYear := w.Start.In(cal.Location()).Year()
	endYear := w.End.In(cal.Location()).Year()
	for year := startYear; year <= endYear; year++ {
		if ctx.Err() != nil {
			break
		}
		if t, ok := cal.at(year, time.Month(r.Month), r.Day, r.Time).Get(); ok && w.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// daysInMonth returns the number of days in the month. Day 0 of the
// following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// civilWeekday returns the 0-based weekday of a civil date. A calendar
// day's weekday does not depend on the timezone, so UTC noon is a safe
// evaluation point.
func civilWeekday(year int, month time.Month, day int) int {
	return int(time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Weekday())
}

// startOfISOWeek truncates an instant to the Monday that starts its ISO
// week, at midnight in the calendar's timezone.
func startOfISOWeek(t time.Time, cal Calendar) time.Time {
	day := cal.dayOf(t)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -sinceMonday)
}

// civilDaysBetween counts the civil days from a's calendar day to b's.
// Both days are re-evaluated in UTC so DST transitions between them
// cannot skew the count.
func civilDaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// dedupeSorted removes adjacent duplicate instants from a sorted slice.
func dedupeSorted(ts []time.Time) []time.Time {
	if len(ts) < 2 {
		return ts
	}
	out := ts[:1]
	for _, t := range ts[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}
