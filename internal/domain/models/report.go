package models

import "github.com/mamadbah2/hatchery/internal/trajectory"

// EggOverview is the read model shown for a single egg.
type EggOverview struct {
	Egg        Egg                          `json:"egg"`
	Progress   trajectory.Progress          `json:"progress"`
	Deviations map[int]trajectory.Deviation `json:"deviations"`
	LatestDay  int                          `json:"latestDay"`
	Latest     *trajectory.DayRecord        `json:"latest,omitempty"`
}

// DigestLine summarises one incubating egg in the daily digest.
type DigestLine struct {
	EggID        string            `json:"eggId"`
	Name         string            `json:"name"`
	Day          int               `json:"day"`
	TotalDays    int               `json:"totalDays"`
	LatestWeight *float64          `json:"latestWeight,omitempty"`
	TargetWeight float64           `json:"targetWeight"`
	Status       trajectory.Status `json:"status"`
}
