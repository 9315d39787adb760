// Package recurrence expands declarative alarm recurrence rules into
// concrete occurrence instants.
//
// A Rule describes how often and at what wall-clock time an alarm
// fires: one-time, daily, hourly, custom interval, specific weekdays,
// biweekly, monthly by rule (fixed day, first/last day, first/last
// weekday) or yearly. Expand evaluates a rule against a bounded
// Window through an injected Calendar context and returns the sorted
// instants that fall inside it:
//
//	cal := recurrence.NewCalendar(time.UTC)
//	rule := recurrence.Daily{Time: recurrence.TimeOfDay{Hour: 9, Minute: 30}}
//	instants := recurrence.ExpandWithinDuration(rule, time.Now(), 7*24*time.Hour, cal)
//
// Calendar arithmetic that fails to produce a real instant (Feb 30, a
// wall-clock time skipped by DST) silently drops the candidate; an
// expansion never returns an error, only fewer occurrences.
//
// Classify assigns each rule a frequency class (Strategy) whose fixed
// policy constants bound the expansion window and output size, so an
// every-five-minutes rule and a yearly rule both produce a useful,
// bounded schedule. Engine layers a result cache and the strategy
// policy on top of Expand for callers that query the same rules
// repeatedly.
package recurrence
