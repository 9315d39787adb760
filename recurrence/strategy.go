package recurrence

import "time"

// Strategy is a frequency class with fixed generation policy constants.
// It bounds how far forward and how many occurrences to compute for a
// rule, so that high-frequency rules (every few minutes) stay cheap
// while low-frequency rules (yearly) still get useful coverage.
type Strategy int

const (
	// HighFrequency covers rules firing many times per hour.
	HighFrequency Strategy = iota
	// MediumFrequency covers rules firing a few times per day.
	MediumFrequency
	// LowFrequency covers rules firing at most a few times per week.
	LowFrequency
)

// strategyPolicy is one row of the fixed policy table.
type strategyPolicy struct {
	windowDuration        time.Duration
	maxAlarms             int // 0 = unlimited
	regenerationThreshold time.Duration
	minimumAlarmCount     int
}

var strategyPolicies = map[Strategy]strategyPolicy{
	HighFrequency: {
		windowDuration:        24 * time.Hour,
		maxAlarms:             100,
		regenerationThreshold: 12 * time.Hour,
		minimumAlarmCount:     20,
	},
	MediumFrequency: {
		windowDuration:        48 * time.Hour,
		maxAlarms:             0,
		regenerationThreshold: 24 * time.Hour,
		minimumAlarmCount:     12,
	},
	LowFrequency: {
		windowDuration:        7 * 24 * time.Hour,
		maxAlarms:             0,
		regenerationThreshold: 3 * 24 * time.Hour,
		minimumAlarmCount:     3,
	},
}

// WindowDuration is how far forward to expand from "now".
func (s Strategy) WindowDuration() time.Duration {
	return strategyPolicies[s].windowDuration
}

// MaxAlarms caps the number of generated occurrences; 0 means unlimited.
func (s Strategy) MaxAlarms() int {
	return strategyPolicies[s].maxAlarms
}

// RegenerationThreshold is how close to exhaustion a generated schedule
// may get before it should be regenerated.
func (s Strategy) RegenerationThreshold() time.Duration {
	return strategyPolicies[s].regenerationThreshold
}

// MinimumAlarmCount is the fewest pending occurrences a healthy
// schedule keeps on hand.
func (s Strategy) MinimumAlarmCount() int {
	return strategyPolicies[s].minimumAlarmCount
}

func (s Strategy) String() string {
	switch s {
	case HighFrequency:
		return "high-frequency"
	case MediumFrequency:
		return "medium-frequency"
	case LowFrequency:
		return "low-frequency"
	default:
		return "unknown-frequency"
	}
}

// Classify maps a rule to its frequency class. It is deterministic and
// total over all rule variants; unknown variants fall back to
// LowFrequency, the most conservative class.
func Classify(r Rule) Strategy {
	switch v := r.(type) {
	case Hourly:
		return classifyHourInterval(v.IntervalHours)
	case Every:
		switch v.Unit {
		case Minutes:
			if v.Interval <= 30 {
				return HighFrequency
			}
			return MediumFrequency
		case Hours:
			return classifyHourInterval(v.Interval)
		default: // Days, Weeks
			return LowFrequency
		}
	default: // OneTime, Daily, Weekdays, Biweekly, Monthly, Yearly
		return LowFrequency
	}
}

func classifyHourInterval(interval int) Strategy {
	if interval <= 3 {
		return MediumFrequency
	}
	return LowFrequency
}
