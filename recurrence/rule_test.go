package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		minute  int
		wantErr bool
	}{
		{name: "midnight", hour: 0, minute: 0},
		{name: "end of day", hour: 23, minute: 59},
		{name: "hour too large", hour: 24, minute: 0, wantErr: true},
		{name: "negative hour", hour: -1, minute: 0, wantErr: true},
		{name: "minute too large", hour: 12, minute: 60, wantErr: true},
		{name: "negative minute", hour: 12, minute: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tod, err := NewTimeOfDay(tt.hour, tt.minute)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, tod.Hour)
			assert.Equal(t, tt.minute, tod.Minute)
		})
	}
}

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet(Friday, Monday, Wednesday)

	assert.Equal(t, 3, s.Count())
	assert.True(t, s.Contains(Monday))
	assert.True(t, s.Contains(Friday))
	assert.False(t, s.Contains(Sunday))
	assert.False(t, s.Contains(Weekday(9)))

	// Members come back in ascending weekday order regardless of
	// construction order.
	assert.Equal(t, []Weekday{Monday, Wednesday, Friday}, s.Weekdays())
	assert.Equal(t, "Mon|Wed|Fri", s.String())
}

func TestWeekdaySetValidate(t *testing.T) {
	assert.Error(t, WeekdaySet(0).Validate())
	assert.NoError(t, NewWeekdaySet(Sunday, Saturday).Validate())
}

func TestNewWeekdaySetIgnoresOutOfRangeDays(t *testing.T) {
	// Invalid days never set bits, whether just past Saturday, far out
	// of range, or negative.
	s := NewWeekdaySet(Weekday(7), Weekday(12), Weekday(-1))
	assert.Equal(t, WeekdaySet(0), s)
	assert.Error(t, s.Validate())

	mixed := NewWeekdaySet(Monday, Weekday(7), Friday)
	assert.Equal(t, NewWeekdaySet(Monday, Friday), mixed)
	assert.NoError(t, mixed.Validate())
}

func TestWeekdayOfNormalizesGoWeekdays(t *testing.T) {
	// Go's time.Weekday is already Sunday=0; the conversion must keep
	// that alignment.
	sunday := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Sunday, WeekdayOf(sunday.Weekday()))
	assert.Equal(t, Saturday, WeekdayOf(sunday.AddDate(0, 0, 6).Weekday()))
}

func TestRuleValidate(t *testing.T) {
	at := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	nine := TimeOfDay{Hour: 9, Minute: 0}

	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{name: "one-time", rule: OneTime{At: at}},
		{name: "one-time zero instant", rule: OneTime{}, wantErr: true},
		{name: "daily", rule: Daily{Time: nine}},
		{name: "daily bad time", rule: Daily{Time: TimeOfDay{Hour: 25}}, wantErr: true},
		{name: "hourly", rule: Hourly{IntervalHours: 3, Time: nine}},
		{name: "hourly zero interval", rule: Hourly{IntervalHours: 0, Time: nine}, wantErr: true},
		{name: "every minutes", rule: Every{Interval: 15, Unit: Minutes, Time: nine}},
		{name: "every zero interval", rule: Every{Interval: 0, Unit: Hours, Time: nine}, wantErr: true},
		{name: "every bad unit", rule: Every{Interval: 1, Unit: Unit(9), Time: nine}, wantErr: true},
		{name: "weekdays", rule: Weekdays{Time: nine, Days: NewWeekdaySet(Monday)}},
		{name: "weekdays empty set", rule: Weekdays{Time: nine}, wantErr: true},
		{name: "biweekly", rule: Biweekly{Time: nine, Days: NewWeekdaySet(Tuesday, Thursday)}},
		{name: "biweekly empty set", rule: Biweekly{Time: nine}, wantErr: true},
		{name: "monthly fixed", rule: Monthly{Day: FixedDay{Day: 15}, Time: nine}},
		{name: "monthly fixed day 0", rule: Monthly{Day: FixedDay{Day: 0}, Time: nine}, wantErr: true},
		{name: "monthly fixed day 32", rule: Monthly{Day: FixedDay{Day: 32}, Time: nine}, wantErr: true},
		{name: "monthly nil day", rule: Monthly{Time: nine}, wantErr: true},
		{name: "monthly last weekday", rule: Monthly{Day: LastWeekdayOfMonth{Weekday: Friday}, Time: nine}},
		{name: "monthly bad weekday", rule: Monthly{Day: FirstWeekdayOfMonth{Weekday: Weekday(7)}, Time: nine}, wantErr: true},
		{name: "yearly", rule: Yearly{Month: 12, Day: 25, Time: nine}},
		{name: "yearly month 13", rule: Yearly{Month: 13, Day: 1, Time: nine}, wantErr: true},
		{name: "yearly day 0", rule: Yearly{Month: 6, Day: 0, Time: nine}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleStringIsDeterministic(t *testing.T) {
	rules := []Rule{
		OneTime{At: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)},
		Daily{Time: TimeOfDay{Hour: 9, Minute: 30}},
		Hourly{IntervalHours: 2, Time: TimeOfDay{Hour: 6, Minute: 0}},
		Every{Interval: 45, Unit: Minutes, Time: TimeOfDay{Hour: 7, Minute: 15}},
		Weekdays{Time: TimeOfDay{Hour: 10, Minute: 0}, Days: NewWeekdaySet(Monday, Friday)},
		Biweekly{Time: TimeOfDay{Hour: 10, Minute: 0}, Days: NewWeekdaySet(Wednesday)},
		Monthly{Day: LastWeekdayOfMonth{Weekday: Friday}, Time: TimeOfDay{Hour: 17, Minute: 0}},
		Yearly{Month: 2, Day: 14, Time: TimeOfDay{Hour: 8, Minute: 0}},
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		s := r.String()
		assert.Equal(t, s, r.String())
		assert.False(t, seen[s], "duplicate rendering %q", s)
		seen[s] = true
	}
}

func TestWeekdaySetOrderIndependence(t *testing.T) {
	a := NewWeekdaySet(Monday, Wednesday, Friday)
	b := NewWeekdaySet(Friday, Wednesday, Monday)
	assert.Equal(t, a, b)
	assert.Equal(t, a.String(), b.String())
}
