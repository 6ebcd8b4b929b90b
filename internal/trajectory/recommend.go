package trajectory

import (
	"fmt"
	"math"
)

const (
	// DefaultMinDayForFirstPinHole is the earliest day a pin hole may be proposed.
	DefaultMinDayForFirstPinHole = 7
	// DefaultDaysBetweenPinHoles is the minimum spacing between two pin holes.
	DefaultDaysBetweenPinHoles = 3

	// residualMarginDays is how much incubation must remain after a pin hole.
	residualMarginDays = 3
	onTrackTolerance   = 0.5
	secondHoleTrigger  = 1.0
)

// PinHoleType is one intervention strength from the catalog.
type PinHoleType struct {
	ID                    string  `bson:"_id" json:"id"`
	Name                  string  `bson:"name" json:"name"`
	DailyLossRateIncrease float64 `bson:"dailyLossRateIncrease" json:"dailyLossRateIncrease"`
	Description           string  `bson:"description,omitempty" json:"description,omitempty"`
}

// RecommendationSettings tunes the pin hole search.
type RecommendationSettings struct {
	MinDayForFirstPinHole int `bson:"minDayForFirstPinHole" json:"minDayForFirstPinHole"`
	DaysBetweenPinHoles   int `bson:"daysBetweenPinHoles" json:"daysBetweenPinHoles"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() RecommendationSettings {
	return RecommendationSettings{
		MinDayForFirstPinHole: DefaultMinDayForFirstPinHole,
		DaysBetweenPinHoles:   DefaultDaysBetweenPinHoles,
	}
}

// WithDefaults fills zero fields with their defaults.
func (s RecommendationSettings) WithDefaults() RecommendationSettings {
	if s.MinDayForFirstPinHole == 0 {
		s.MinDayForFirstPinHole = DefaultMinDayForFirstPinHole
	}
	if s.DaysBetweenPinHoles == 0 {
		s.DaysBetweenPinHoles = DefaultDaysBetweenPinHoles
	}
	return s
}

// Status classifies a RecommendationResult.
type Status string

const (
	StatusMissingData  Status = "missing_data"
	StatusNotReady     Status = "not_ready"
	StatusOnTrack      Status = "on_track"
	StatusBelowTarget  Status = "below_target"
	StatusRecommended  Status = "recommended"
	StatusNoCandidates Status = "no_candidates"
)

// Recommendation proposes one pin hole.
type Recommendation struct {
	Day    int         `json:"day"`
	Type   PinHoleType `json:"type"`
	Effect float64     `json:"effect"`
}

// RecommendationResult is the outcome of a pin hole search.
type RecommendationResult struct {
	Success            bool             `json:"success"`
	Status             Status           `json:"status"`
	Message            string           `json:"message"`
	CurrentDay         int              `json:"currentDay"`
	ProjectedEndWeight float64          `json:"projectedEndWeight"`
	TargetEndWeight    float64          `json:"targetEndWeight"`
	WeightGap          float64          `json:"weightGap"`
	ResidualGap        float64          `json:"residualGap"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// Policy proposes pin holes for a series. PinHoleRecommender is the default;
// deeper searches (three or more holes) plug in here.
type Policy interface {
	Recommend(series WeightSeries, types []PinHoleType, settings RecommendationSettings) RecommendationResult
}

// CurrentDayFunc picks the day the recommendation search starts after.
type CurrentDayFunc func(WeightSeries) int

// PinHoleRecommender searches one- and two-hole placements using the single
// strongest pin hole type.
type PinHoleRecommender struct {
	// CurrentDay defaults to WeightSeries.LatestWeighedDay.
	CurrentDay CurrentDayFunc
}

var _ Policy = PinHoleRecommender{}

// Recommend is PinHoleRecommender{}.Recommend.
func Recommend(series WeightSeries, types []PinHoleType, settings RecommendationSettings) RecommendationResult {
	return PinHoleRecommender{}.Recommend(series, types, settings)
}

// Recommend implements Policy.
func (r PinHoleRecommender) Recommend(series WeightSeries, types []PinHoleType, settings RecommendationSettings) RecommendationResult {
	best, ok := strongest(types)
	if len(series) < 2 || series[0].Weight == nil || !ok {
		return RecommendationResult{
			Status:          StatusMissingData,
			Message:         "Missing required data",
			Recommendations: []Recommendation{},
		}
	}

	settings = settings.WithDefaults()
	currentDayOf := r.CurrentDay
	if currentDayOf == nil {
		currentDayOf = WeightSeries.LatestWeighedDay
	}
	currentDay := currentDayOf(series)

	if currentDay < settings.MinDayForFirstPinHole {
		return RecommendationResult{
			Status:          StatusNotReady,
			Message:         fmt.Sprintf("Too early for recommendations. Wait until day %d.", settings.MinDayForFirstPinHole),
			CurrentDay:      currentDay,
			Recommendations: []Recommendation{},
		}
	}

	totalDays := series.TotalDays()
	last := series[totalDays]
	projected := *series[0].Weight
	if last.Weight != nil {
		projected = *last.Weight
	}
	gap := projected - last.TargetWeight

	result := RecommendationResult{
		CurrentDay:         currentDay,
		ProjectedEndWeight: projected,
		TargetEndWeight:    last.TargetWeight,
		WeightGap:          round2(gap),
		ResidualGap:        round2(gap),
		Recommendations:    []Recommendation{},
	}

	switch {
	case math.Abs(gap) < onTrackTolerance:
		result.Success = true
		result.Status = StatusOnTrack
		result.Message = "No pin holes needed, weight loss is on track"
		return result
	case gap < 0:
		result.Status = StatusBelowTarget
		result.Message = "Projected end weight is already below target"
		return result
	}

	search := holeSearch{
		gap:       gap,
		rate:      best.DailyLossRateIncrease,
		totalDays: totalDays,
		spacing:   settings.DaysBetweenPinHoles,
		days:      candidateDays(max(settings.MinDayForFirstPinHole, currentDay+1), totalDays-residualMarginDays),
	}
	holes, residual := search.run()

	result.Success = true
	result.ResidualGap = round2(residual)
	if len(holes) == 0 {
		result.Status = StatusNoCandidates
		result.Message = "No pin hole placement reduces the weight gap"
		if len(search.days) == 0 {
			result.Message = "No days left to place a pin hole"
		}
		return result
	}

	for _, day := range holes {
		result.Recommendations = append(result.Recommendations, Recommendation{
			Day:    day,
			Type:   best,
			Effect: round2(search.effect(day)),
		})
	}
	result.Status = StatusRecommended
	result.Message = fmt.Sprintf("%d pin hole(s) recommended", len(holes))
	return result
}

// strongest returns the type with the highest positive daily loss increase;
// the first one listed wins a tie.
func strongest(types []PinHoleType) (PinHoleType, bool) {
	var best PinHoleType
	found := false
	for _, t := range types {
		if t.DailyLossRateIncrease <= 0 || math.IsNaN(t.DailyLossRateIncrease) {
			continue
		}
		if !found || t.DailyLossRateIncrease > best.DailyLossRateIncrease {
			best = t
			found = true
		}
	}
	return best, found
}

func candidateDays(from, to int) []int {
	if from < 1 {
		from = 1
	}
	if to < from {
		return nil
	}
	days := make([]int, 0, to-from+1)
	for day := from; day <= to; day++ {
		days = append(days, day)
	}
	return days
}

type holeSearch struct {
	gap       float64
	rate      float64
	totalDays int
	spacing   int
	days      []int
}

func (h holeSearch) effect(day int) float64 {
	return h.rate * float64(h.totalDays-day)
}

// run scans one hole, then pairs when the best single hole leaves more than
// secondHoleTrigger grams. A placement must beat the best residual so far,
// starting from doing nothing.
func (h holeSearch) run() ([]int, float64) {
	var holes []int
	residual := h.gap

	for _, day := range h.days {
		remaining := h.gap - h.effect(day)
		if math.Abs(remaining) < math.Abs(residual) {
			residual = remaining
			holes = []int{day}
		}
	}

	if residual <= secondHoleTrigger {
		return holes, residual
	}

	for i := 0; i < len(h.days)-1; i++ {
		first := h.days[i]
		for j := i + 1; j < len(h.days); j++ {
			second := h.days[j]
			if second-first < h.spacing {
				continue
			}
			remaining := h.gap - h.effect(first) - h.effect(second)
			if math.Abs(remaining) < math.Abs(residual) {
				residual = remaining
				holes = []int{first, second}
			}
		}
	}
	return holes, residual
}
