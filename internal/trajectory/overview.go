package trajectory

import (
	"math"
	"time"
)

// deviationThreshold is the share of the target weight a reading may stray
// before it is flagged.
const deviationThreshold = 0.05

// Deviation flags a weighed day that strays from its target.
type Deviation string

const (
	DeviationNone Deviation = ""
	DeviationHigh Deviation = "high"
	DeviationLow  Deviation = "low"
)

// DeviationOf compares a record's weight with its target.
func DeviationOf(rec DayRecord) Deviation {
	if rec.Weight == nil {
		return DeviationNone
	}
	diff := *rec.Weight - rec.TargetWeight
	if math.Abs(diff) <= rec.TargetWeight*deviationThreshold {
		return DeviationNone
	}
	if diff > 0 {
		return DeviationHigh
	}
	return DeviationLow
}

// Progress describes where an incubation stands on a given date.
type Progress struct {
	Percent       int    `json:"percent"`
	DaysRemaining int    `json:"daysRemaining"`
	HatchDate     string `json:"hatchDate"`
}

// ProgressAt computes incubation progress at now, clamped to [0, 100].
func ProgressAt(start time.Time, incubationDays int, now time.Time) Progress {
	end := start.AddDate(0, 0, incubationDays)
	p := Progress{HatchDate: end.Format(DateLayout)}

	total := end.Sub(start)
	if total > 0 {
		percent := math.Round(float64(now.Sub(start)) / float64(total) * 100)
		p.Percent = int(math.Max(0, math.Min(100, percent)))
	}

	remaining := int(math.Ceil(end.Sub(now).Hours() / 24))
	if remaining > 0 {
		p.DaysRemaining = remaining
	}
	return p
}
