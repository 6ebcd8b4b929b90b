// Package trajectory models an egg's daily weight curve during incubation: the
// planned target curve, the interpolation of unknown days from user-entered
// measurements, and pin hole recommendations that steer the projected final
// weight back toward the target.
//
// Every function here is pure. Callers own persistence and must write the
// returned series back as a whole.
package trajectory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format stored on each DayRecord.
const DateLayout = "2006-01-02"

// DayRecord is one day of a WeightSeries.
type DayRecord struct {
	Day          int      `bson:"day" json:"day"`
	Date         string   `bson:"date" json:"date"`
	Weight       *float64 `bson:"weight" json:"weight"`
	TargetWeight float64  `bson:"targetWeight" json:"targetWeight"`
	Interpolated bool     `bson:"interpolated" json:"interpolated"`
}

// Known reports whether the record holds a user-entered weight.
func (d DayRecord) Known() bool {
	return d.Weight != nil && !d.Interpolated
}

// WeightSeries holds one DayRecord per incubation day, index == day.
type WeightSeries []DayRecord

// KnownPoint is a user-entered measurement used as interpolation input.
type KnownPoint struct {
	Day    int
	Weight float64
}

// TotalDays is the last day of the series (the incubation length).
func (s WeightSeries) TotalDays() int {
	return len(s) - 1
}

// Clone returns a deep copy; weight pointers are not shared with s.
func (s WeightSeries) Clone() WeightSeries {
	if s == nil {
		return nil
	}
	out := make(WeightSeries, len(s))
	for i, rec := range s {
		out[i] = rec
		if rec.Weight != nil {
			w := *rec.Weight
			out[i].Weight = &w
		}
	}
	return out
}

// KnownPoints returns every user-entered measurement sorted by day.
func (s WeightSeries) KnownPoints() []KnownPoint {
	points := make([]KnownPoint, 0, len(s))
	for _, rec := range s {
		if rec.Known() {
			points = append(points, KnownPoint{Day: rec.Day, Weight: *rec.Weight})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Day < points[j].Day })
	return points
}

// LatestWeighedDay is the highest day holding any weight, known or
// interpolated. Zero when nothing beyond the anchor is present.
func (s WeightSeries) LatestWeighedDay() int {
	latest := 0
	for _, rec := range s {
		if rec.Weight != nil && rec.Day > latest {
			latest = rec.Day
		}
	}
	return latest
}

// LatestKnownDay is the highest day holding a user-entered weight.
func (s WeightSeries) LatestKnownDay() int {
	latest := 0
	for _, rec := range s {
		if rec.Known() && rec.Day > latest {
			latest = rec.Day
		}
	}
	return latest
}

// Validate checks the structural invariants of a persisted series.
func (s WeightSeries) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("%w: series must cover at least one incubation day", ErrInvalidInput)
	}
	for i, rec := range s {
		if rec.Day != i {
			return fmt.Errorf("%w: record %d carries day %d", ErrInvalidInput, i, rec.Day)
		}
		if rec.Weight == nil && rec.Interpolated {
			return fmt.Errorf("%w: day %d is interpolated without a weight", ErrInvalidInput, i)
		}
	}
	if !s[0].Known() {
		return fmt.Errorf("%w: day 0 must hold the measured initial weight", ErrAnchorRequired)
	}
	return nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func weightPtr(v float64) *float64 {
	return &v
}
