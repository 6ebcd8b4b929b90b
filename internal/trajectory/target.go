package trajectory

import (
	"fmt"
	"math"
	"time"
)

// DefaultMidHumidityLossPercent is the expected total loss when none is configured.
const DefaultMidHumidityLossPercent = 12.0

// LossModel yields the planned weight for a day of incubation.
type LossModel interface {
	TargetWeight(initialWeight float64, day, incubationDays int) float64
}

// LinearLoss spreads a fixed fractional loss evenly across every incubation day.
type LinearLoss struct {
	Percent float64
}

// TargetWeight implements LossModel.
func (l LinearLoss) TargetWeight(initialWeight float64, day, incubationDays int) float64 {
	totalLoss := initialWeight * l.Percent / 100
	dailyLoss := totalLoss / float64(incubationDays)
	return initialWeight - dailyLoss*float64(day)
}

// SeriesParams describes the egg a WeightSeries is built for.
type SeriesParams struct {
	InitialWeight          float64
	IncubationDays         int
	StartDate              time.Time
	MidHumidityLossPercent float64
	// Model overrides the linear loss derived from MidHumidityLossPercent.
	Model LossModel
}

func (p SeriesParams) validate() error {
	switch {
	case math.IsNaN(p.InitialWeight) || math.IsInf(p.InitialWeight, 0) || p.InitialWeight <= 0:
		return fmt.Errorf("%w: initial weight must be a positive number", ErrInvalidInput)
	case p.IncubationDays < 1:
		return fmt.Errorf("%w: incubation days must be at least 1", ErrInvalidInput)
	case p.StartDate.IsZero():
		return fmt.Errorf("%w: incubation start date is required", ErrInvalidInput)
	case math.IsNaN(p.MidHumidityLossPercent) || p.MidHumidityLossPercent < 0 || p.MidHumidityLossPercent >= 100:
		return fmt.Errorf("%w: humidity loss must be within [0, 100) percent", ErrInvalidInput)
	}
	return nil
}

func (p SeriesParams) model() LossModel {
	if p.Model != nil {
		return p.Model
	}
	percent := p.MidHumidityLossPercent
	if percent == 0 {
		percent = DefaultMidHumidityLossPercent
	}
	return LinearLoss{Percent: percent}
}

// NewSeries builds the initial WeightSeries: targets and dates for days
// 0..IncubationDays, with only the day 0 anchor weighed.
func NewSeries(p SeriesParams) (WeightSeries, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	model := p.model()
	initial := round2(p.InitialWeight)
	series := make(WeightSeries, p.IncubationDays+1)
	for day := range series {
		series[day] = DayRecord{
			Day:          day,
			Date:         p.StartDate.AddDate(0, 0, day).Format(DateLayout),
			TargetWeight: round2(model.TargetWeight(p.InitialWeight, day, p.IncubationDays)),
		}
	}
	series[0].Weight = weightPtr(initial)
	return series, nil
}

// Rebuild recomputes targets and dates after the egg's parameters changed.
// User-entered weights survive for days that still exist; interpolated values
// are dropped and the day 0 anchor takes the new initial weight. The result
// has not been interpolated.
func Rebuild(existing WeightSeries, p SeriesParams) (WeightSeries, error) {
	series, err := NewSeries(p)
	if err != nil {
		return nil, err
	}
	for day := 1; day < len(series) && day < len(existing); day++ {
		if existing[day].Known() {
			series[day].Weight = weightPtr(*existing[day].Weight)
		}
	}
	return series, nil
}
