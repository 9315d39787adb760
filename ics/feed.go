// Package ics exports alarm schedules as an iCalendar feed, so that
// widget data sources and calendar-subscription consumers can read a
// schedule in a standard format.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/cyp0633/alarmsched/recurrence"
)

const productID = "-//alarmsched//EN"

// Alarm is one named alarm rule for feed export.
type Alarm struct {
	// UID identifies the alarm's events in the feed; when empty a
	// random UUID is generated per export.
	UID     string
	Summary string
	Rule    recurrence.Rule
}

// FeedConfig bounds the expansion performed for rules that cannot be
// represented as a single recurring event.
type FeedConfig struct {
	Start    time.Time
	Duration time.Duration
	Calendar recurrence.Calendar
}

// Calendar renders the alarms as a VCALENDAR. Rules with an RRULE
// equivalent become one recurring VEVENT anchored at their first
// occurrence inside the config window; rules without one (one-time
// alarms) become discrete per-occurrence VEVENTs. Alarms with no
// occurrence in the window contribute nothing.
func Calendar(alarms []Alarm, cfg FeedConfig) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, alarm := range alarms {
		if alarm.Rule == nil {
			return nil, fmt.Errorf("alarm %q has no rule", alarm.Summary)
		}
		if err := alarm.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("alarm %q: %w", alarm.Summary, err)
		}

		uid := alarm.UID
		if uid == "" {
			uid = uuid.NewString()
		}

		occurrences := recurrence.ExpandWithinDuration(alarm.Rule, cfg.Start, cfg.Duration, cfg.Calendar)
		if len(occurrences) == 0 {
			continue
		}

		if rr, err := recurrence.NewRRule(alarm.Rule, occurrences[0]); err == nil {
			cal.Children = append(cal.Children, recurringEvent(alarm, uid, occurrences[0], rr.String()))
			continue
		}

		for i, occ := range occurrences {
			instanceUID := uid
			if len(occurrences) > 1 {
				instanceUID = fmt.Sprintf("%s-%d", uid, i)
			}
			cal.Children = append(cal.Children, discreteEvent(alarm, instanceUID, occ))
		}
	}

	if len(cal.Children) == 0 {
		return nil, fmt.Errorf("no alarm produced an event in the feed window")
	}
	return cal, nil
}

// Encode writes the calendar in iCalendar wire format.
func Encode(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar feed: %w", err)
	}
	return nil
}

func recurringEvent(alarm Alarm, uid string, start time.Time, rruleValue string) *ical.Component {
	ve := newEvent(alarm, uid, start)
	// Raw value: SetText would escape the semicolons between RRULE parts.
	p := ical.NewProp(ical.PropRecurrenceRule)
	p.Value = rruleValue
	ve.Props.Add(p)
	return ve
}

func discreteEvent(alarm Alarm, uid string, start time.Time) *ical.Component {
	return newEvent(alarm, uid, start)
}

func newEvent(alarm Alarm, uid string, start time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	if alarm.Summary != "" {
		ve.Props.SetText(ical.PropSummary, alarm.Summary)
	}
	return ve
}
