package models

import "github.com/mamadbah2/hatchery/internal/trajectory"

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// WeightEntry is one day of a weight update request. A null weight clears the day.
type WeightEntry struct {
	Day    *int     `json:"day" binding:"required"`
	Weight *float64 `json:"weight"`
}

// WeightsRequest is the body of PUT /api/eggs/:id/weights.
type WeightsRequest struct {
	Weights []WeightEntry `json:"weights" binding:"required,min=1,dive"`
}

// EggRequest is the body used to create or update an egg.
type EggRequest struct {
	Name             string  `json:"name" binding:"required"`
	TypeID           string  `json:"typeId"`
	Weight           float64 `json:"weight" binding:"required"`
	IncubationStart  string  `json:"incubationStart" binding:"required"`
	IncubationDays   int     `json:"incubationDays"`
	HighHumidityLoss float64 `json:"highHumidityLoss"`
	MidHumidityLoss  float64 `json:"midHumidityLoss"`
	LowHumidityLoss  float64 `json:"lowHumidityLoss"`
	Notes            string  `json:"notes"`
}

// ToEgg copies the request fields onto an Egg.
func (r EggRequest) ToEgg() Egg {
	return Egg{
		Name:             r.Name,
		TypeID:           r.TypeID,
		Weight:           r.Weight,
		IncubationStart:  r.IncubationStart,
		IncubationDays:   r.IncubationDays,
		HighHumidityLoss: r.HighHumidityLoss,
		MidHumidityLoss:  r.MidHumidityLoss,
		LowHumidityLoss:  r.LowHumidityLoss,
		Notes:            r.Notes,
	}
}

// ExportResponse reports where a series was written.
type ExportResponse struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}

// RecommendationsResponse wraps a recommendation result with the egg it was computed for.
type RecommendationsResponse struct {
	EggID string `json:"eggId"`
	trajectory.RecommendationResult
}
