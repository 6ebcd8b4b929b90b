package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

const (
	dateLayout  = trajectory.DateLayout
	shortIDSize = 8
)

// EggLister loads the eggs to report on.
type EggLister interface {
	ListEggs(ctx context.Context) ([]models.Egg, error)
}

// Recommender computes a pin hole recommendation for a loaded egg.
type Recommender interface {
	RecommendFor(ctx context.Context, egg models.Egg) (trajectory.RecommendationResult, error)
}

// Service builds the text summaries sent over WhatsApp.
type Service struct {
	eggs        EggLister
	recommender Recommender
	logger      *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(eggs EggLister, recommender Recommender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{eggs: eggs, recommender: recommender, logger: logger}
}

// ShortID is the egg id prefix shown in chat messages.
func ShortID(id string) string {
	if len(id) <= shortIDSize {
		return id
	}
	return id[:shortIDSize]
}

// IncubationDay returns the current day of an egg at now and whether the egg
// is still incubating.
func IncubationDay(egg models.Egg, now time.Time) (int, bool) {
	start, err := egg.StartDate()
	if err != nil {
		return 0, false
	}
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return 0, false
	}
	day := int(math.Floor(elapsed.Hours() / 24))
	if day >= egg.IncubationDays {
		return egg.IncubationDays, false
	}
	return day, true
}

// DigestLines returns one line per egg still incubating at now.
func (s *Service) DigestLines(ctx context.Context, now time.Time) ([]models.DigestLine, error) {
	eggs, err := s.eggs.ListEggs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load eggs: %w", err)
	}

	lines := []models.DigestLine{}
	for _, egg := range eggs {
		day, incubating := IncubationDay(egg, now)
		if !incubating || len(egg.DailyWeights) == 0 {
			continue
		}
		lines = append(lines, s.line(ctx, egg, day))
	}
	return lines, nil
}

func (s *Service) line(ctx context.Context, egg models.Egg, day int) models.DigestLine {
	line := models.DigestLine{
		EggID:     egg.ID,
		Name:      egg.Name,
		Day:       day,
		TotalDays: egg.IncubationDays,
	}

	latest := egg.DailyWeights.LatestKnownDay()
	if latest > 0 {
		rec := egg.DailyWeights[latest]
		line.LatestWeight = rec.Weight
		line.TargetWeight = rec.TargetWeight
	}

	if s.recommender != nil {
		res, err := s.recommender.RecommendFor(ctx, egg)
		if err != nil {
			s.logger.Debug("recommendation for digest failed", zap.String("egg", egg.ID), zap.Error(err))
		} else {
			line.Status = res.Status
		}
	}
	return line
}

// DailyDigest renders the digest as a chat message.
func (s *Service) DailyDigest(ctx context.Context, now time.Time) (string, error) {
	lines, err := s.DigestLines(ctx, now)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return fmt.Sprintf("Incubation digest %s: no eggs incubating.", now.Format(dateLayout)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Incubation digest %s (%d eggs)", now.Format(dateLayout), len(lines))
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(FormatLine(line))
	}
	return b.String(), nil
}

// FormatLine renders one digest line.
func FormatLine(line models.DigestLine) string {
	weight := "not weighed yet"
	if line.LatestWeight != nil {
		weight = fmt.Sprintf("%.2f g vs %.2f g target", *line.LatestWeight, line.TargetWeight)
	}
	text := fmt.Sprintf("- %s [%s]: day %d/%d, %s", line.Name, ShortID(line.EggID), line.Day, line.TotalDays, weight)
	if line.Status != "" {
		text += ", " + strings.ReplaceAll(string(line.Status), "_", " ")
	}
	return text
}
