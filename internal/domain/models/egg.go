package models

import (
	"fmt"
	"time"

	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// Egg is the stored incubation record that owns a weight series.
type Egg struct {
	ID               string                  `bson:"_id" json:"id"`
	Name             string                  `bson:"name" json:"name"`
	TypeID           string                  `bson:"typeId,omitempty" json:"typeId,omitempty"`
	Type             string                  `bson:"type,omitempty" json:"type,omitempty"`
	Weight           float64                 `bson:"weight" json:"weight"`
	Coefficient      float64                 `bson:"coefficient,omitempty" json:"coefficient,omitempty"`
	IncubationStart  string                  `bson:"incubationStart" json:"incubationStart"`
	IncubationDays   int                     `bson:"incubationDays" json:"incubationDays"`
	HighHumidityLoss float64                 `bson:"highHumidityLoss,omitempty" json:"highHumidityLoss,omitempty"`
	MidHumidityLoss  float64                 `bson:"midHumidityLoss" json:"midHumidityLoss"`
	LowHumidityLoss  float64                 `bson:"lowHumidityLoss,omitempty" json:"lowHumidityLoss,omitempty"`
	Notes            string                  `bson:"notes,omitempty" json:"notes,omitempty"`
	DailyWeights     trajectory.WeightSeries `bson:"dailyWeights" json:"dailyWeights"`
	CreatedAt        time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// StartDate parses IncubationStart.
func (e Egg) StartDate() (time.Time, error) {
	start, err := time.Parse(trajectory.DateLayout, e.IncubationStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: incubation start %q is not a YYYY-MM-DD date", trajectory.ErrInvalidInput, e.IncubationStart)
	}
	return start, nil
}

// SeriesParams derives the target curve inputs from the egg.
func (e Egg) SeriesParams() (trajectory.SeriesParams, error) {
	start, err := e.StartDate()
	if err != nil {
		return trajectory.SeriesParams{}, err
	}
	return trajectory.SeriesParams{
		InitialWeight:          e.Weight,
		IncubationDays:         e.IncubationDays,
		StartDate:              start,
		MidHumidityLossPercent: e.MidHumidityLoss,
	}, nil
}

// ShapeChanged reports whether the target curve of e differs from prev.
func (e Egg) ShapeChanged(prev Egg) bool {
	return e.Weight != prev.Weight ||
		e.IncubationDays != prev.IncubationDays ||
		e.IncubationStart != prev.IncubationStart ||
		e.MidHumidityLoss != prev.MidHumidityLoss
}

// EggType is a catalog entry describing a species or breed.
type EggType struct {
	ID               string    `bson:"_id" json:"id"`
	Name             string    `bson:"name" json:"name"`
	IncubationPeriod int       `bson:"incubationPeriod" json:"incubationPeriod"`
	Coefficient      float64   `bson:"coefficient" json:"coefficient"`
	Notes            string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}
