package trajectory

import (
	"fmt"
	"math"
)

// RecordWeight applies one user edit and returns the edited copy. A nil weight
// clears the day. The edited day is always a known point afterwards (or empty);
// callers run Interpolate to refresh derived days.
func RecordWeight(series WeightSeries, day int, weight *float64) (WeightSeries, error) {
	if day < 0 || day >= len(series) {
		return nil, fmt.Errorf("%w: day %d is outside 0..%d", ErrInvalidInput, day, series.TotalDays())
	}

	out := series.Clone()
	if weight == nil {
		if day == 0 {
			return nil, ErrAnchorRequired
		}
		out[day].Weight = nil
		out[day].Interpolated = false
		return out, nil
	}

	w := *weight
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return nil, fmt.Errorf("%w: weight for day %d must be a positive number", ErrInvalidInput, day)
	}
	out[day].Weight = weightPtr(round2(w))
	out[day].Interpolated = false
	return out, nil
}

// Interpolate recomputes every derived weight from the series' known points.
// Known points are never altered; running it twice yields the same series.
func Interpolate(series WeightSeries) WeightSeries {
	out := series.Clone()
	for i := range out {
		if out[i].Interpolated {
			out[i].Weight = nil
			out[i].Interpolated = false
		}
	}

	points := out.KnownPoints()
	if len(points) < 2 {
		return out
	}

	for i := 0; i < len(points)-1; i++ {
		fillSegment(out, points[i], points[i+1])
	}
	projectTail(out, points[0], points[len(points)-1])
	return out
}

func fillSegment(series WeightSeries, from, to KnownPoint) {
	rate := 0.0
	if span := to.Day - from.Day; span > 0 {
		rate = (to.Weight - from.Weight) / float64(span)
	}
	for day := from.Day + 1; day < to.Day; day++ {
		series[day].Weight = weightPtr(round2(from.Weight + rate*float64(day-from.Day)))
		series[day].Interpolated = true
	}
}

// projectTail extends past the last known point using the average daily loss
// since the first known point, not the last segment's slope.
func projectTail(series WeightSeries, first, last KnownPoint) {
	if last.Day <= 0 {
		return
	}
	avgDailyLoss := (first.Weight - last.Weight) / float64(last.Day)
	for day := last.Day + 1; day < len(series); day++ {
		projected := last.Weight - avgDailyLoss*float64(day-last.Day)
		series[day].Weight = weightPtr(round2(math.Max(0, projected)))
		series[day].Interpolated = true
	}
}
