// Package catalog manages egg types, pin hole types and recommendation settings.
package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// Service validates catalog writes before they reach the store.
type Service struct {
	store  repository.CatalogStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a catalog service.
func NewService(store repository.CatalogStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", trajectory.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateEggType(t models.EggType) error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("egg type name is required")
	}
	if t.IncubationPeriod < 1 {
		return invalid("incubation period must be at least one day")
	}
	if t.Coefficient < 0 || math.IsNaN(t.Coefficient) {
		return invalid("coefficient must not be negative")
	}
	return nil
}

// ListEggTypes returns every egg type.
func (s *Service) ListEggTypes(ctx context.Context) ([]models.EggType, error) {
	return s.store.ListEggTypes(ctx)
}

// CreateEggType stores a new egg type under a fresh id.
func (s *Service) CreateEggType(ctx context.Context, t models.EggType) (models.EggType, error) {
	if err := validateEggType(t); err != nil {
		return models.EggType{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	if err := s.store.SaveEggType(ctx, t); err != nil {
		return models.EggType{}, err
	}
	s.logger.Info("egg type created", zap.String("id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// UpdateEggType replaces an existing egg type.
func (s *Service) UpdateEggType(ctx context.Context, id string, t models.EggType) (models.EggType, error) {
	current, err := s.store.GetEggType(ctx, id)
	if err != nil {
		return models.EggType{}, err
	}
	if err := validateEggType(t); err != nil {
		return models.EggType{}, err
	}
	t.ID = id
	t.CreatedAt = current.CreatedAt
	if err := s.store.SaveEggType(ctx, t); err != nil {
		return models.EggType{}, err
	}
	return t, nil
}

// DeleteEggType removes an egg type.
func (s *Service) DeleteEggType(ctx context.Context, id string) error {
	return s.store.DeleteEggType(ctx, id)
}

func validatePinHoleType(t trajectory.PinHoleType) error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("pin hole type name is required")
	}
	if !(t.DailyLossRateIncrease > 0) || math.IsInf(t.DailyLossRateIncrease, 0) {
		return invalid("daily loss rate increase must be a positive number")
	}
	return nil
}

// ListPinHoleTypes returns every pin hole type.
func (s *Service) ListPinHoleTypes(ctx context.Context) ([]trajectory.PinHoleType, error) {
	return s.store.ListPinHoleTypes(ctx)
}

// CreatePinHoleType stores a new pin hole type under a fresh id.
func (s *Service) CreatePinHoleType(ctx context.Context, t trajectory.PinHoleType) (trajectory.PinHoleType, error) {
	if err := validatePinHoleType(t); err != nil {
		return trajectory.PinHoleType{}, err
	}
	t.ID = uuid.NewString()
	if err := s.store.SavePinHoleType(ctx, t); err != nil {
		return trajectory.PinHoleType{}, err
	}
	s.logger.Info("pin hole type created", zap.String("id", t.ID), zap.Float64("rate", t.DailyLossRateIncrease))
	return t, nil
}

// UpdatePinHoleType replaces an existing pin hole type.
func (s *Service) UpdatePinHoleType(ctx context.Context, id string, t trajectory.PinHoleType) (trajectory.PinHoleType, error) {
	types, err := s.store.ListPinHoleTypes(ctx)
	if err != nil {
		return trajectory.PinHoleType{}, err
	}
	found := false
	for _, existing := range types {
		if existing.ID == id {
			found = true
			break
		}
	}
	if !found {
		return trajectory.PinHoleType{}, repository.ErrNotFound
	}
	if err := validatePinHoleType(t); err != nil {
		return trajectory.PinHoleType{}, err
	}
	t.ID = id
	if err := s.store.SavePinHoleType(ctx, t); err != nil {
		return trajectory.PinHoleType{}, err
	}
	return t, nil
}

// DeletePinHoleType removes a pin hole type.
func (s *Service) DeletePinHoleType(ctx context.Context, id string) error {
	return s.store.DeletePinHoleType(ctx, id)
}

// Settings returns the recommendation settings with defaults applied.
func (s *Service) Settings(ctx context.Context) (trajectory.RecommendationSettings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return trajectory.RecommendationSettings{}, err
	}
	return settings.WithDefaults(), nil
}

// SaveSettings stores new settings. Zero fields take their defaults.
func (s *Service) SaveSettings(ctx context.Context, settings trajectory.RecommendationSettings) (trajectory.RecommendationSettings, error) {
	settings = settings.WithDefaults()
	if settings.MinDayForFirstPinHole < 1 || settings.DaysBetweenPinHoles < 1 {
		return trajectory.RecommendationSettings{}, invalid("settings must be positive day counts")
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return trajectory.RecommendationSettings{}, err
	}
	s.logger.Info("recommendation settings saved",
		zap.Int("min_day", settings.MinDayForFirstPinHole),
		zap.Int("days_between", settings.DaysBetweenPinHoles),
	)
	return settings, nil
}
