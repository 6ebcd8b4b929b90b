// Package incubation runs the egg lifecycle pipeline: load the record, edit
// its weight series, interpolate, save the whole series, recommend.
package incubation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/metrics"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// ErrPersistence wraps store failures. The caller's egg is left as it was
// before the failing call.
var ErrPersistence = errors.New("persistence failure")

// ErrCorruptSeries reports a stored weight series that breaks the series
// invariants. It is not treated as invalid caller input.
var ErrCorruptSeries = errors.New("stored weight series is malformed")

// WeightEdit sets (Weight != nil) or clears (Weight == nil) one day.
type WeightEdit struct {
	Day    int
	Weight *float64
}

// Option customises a Service.
type Option func(*Service)

// WithPolicy replaces the default pin hole policy.
func WithPolicy(p trajectory.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithDefaultLoss sets the mid humidity loss applied when an egg has none.
func WithDefaultLoss(percent float64) Option {
	return func(s *Service) { s.defaultLoss = percent }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service coordinates the stores and the trajectory engine.
type Service struct {
	eggs        repository.EggStore
	catalog     repository.CatalogStore
	policy      trajectory.Policy
	metrics     metrics.Recorder
	logger      *zap.Logger
	defaultLoss float64
	now         func() time.Time
}

// NewService constructs the pipeline.
func NewService(eggs repository.EggStore, catalog repository.CatalogStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		eggs:        eggs,
		catalog:     catalog,
		policy:      trajectory.PinHoleRecommender{},
		metrics:     metrics.Nop{},
		logger:      logger,
		defaultLoss: trajectory.DefaultMidHumidityLossPercent,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func persistErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// CreateEgg validates egg, builds its initial series and stores it.
func (s *Service) CreateEgg(ctx context.Context, egg models.Egg) (_ models.Egg, err error) {
	defer metrics.Since(ctx, s.metrics, "create_egg", time.Now(), &err)

	if strings.TrimSpace(egg.Name) == "" {
		return models.Egg{}, fmt.Errorf("%w: name is required", trajectory.ErrInvalidInput)
	}
	if err := s.applyEggType(ctx, &egg); err != nil {
		return models.Egg{}, err
	}
	if egg.MidHumidityLoss == 0 {
		egg.MidHumidityLoss = s.defaultLoss
	}

	params, err := egg.SeriesParams()
	if err != nil {
		return models.Egg{}, err
	}
	series, err := trajectory.NewSeries(params)
	if err != nil {
		return models.Egg{}, err
	}

	now := s.now().UTC()
	egg.ID = uuid.NewString()
	egg.DailyWeights = series
	egg.CreatedAt = now
	egg.UpdatedAt = now
	if err := s.eggs.CreateEgg(ctx, egg); err != nil {
		return models.Egg{}, persistErr("create egg", err)
	}

	s.logger.Info("egg created", zap.String("egg", egg.ID), zap.Int("days", egg.IncubationDays))
	return egg, nil
}

// applyEggType copies name, coefficient and incubation period from the
// referenced egg type.
func (s *Service) applyEggType(ctx context.Context, egg *models.Egg) error {
	if egg.TypeID == "" {
		return nil
	}
	t, err := s.catalog.GetEggType(ctx, egg.TypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: unknown egg type %q", trajectory.ErrInvalidInput, egg.TypeID)
	}
	if err != nil {
		return persistErr("load egg type", err)
	}
	egg.Type = t.Name
	if egg.Coefficient == 0 {
		egg.Coefficient = t.Coefficient
	}
	if egg.IncubationDays == 0 {
		egg.IncubationDays = t.IncubationPeriod
	}
	return nil
}

// GetEgg loads an egg, building and storing its series first when it has none.
func (s *Service) GetEgg(ctx context.Context, id string) (models.Egg, error) {
	egg, err := s.eggs.GetEgg(ctx, id)
	if err != nil {
		return models.Egg{}, persistErr("load egg", err)
	}
	if len(egg.DailyWeights) > 0 {
		if err := checkSeries(egg); err != nil {
			return models.Egg{}, err
		}
		return egg, nil
	}

	params, err := egg.SeriesParams()
	if err != nil {
		return models.Egg{}, err
	}
	series, err := trajectory.NewSeries(params)
	if err != nil {
		return models.Egg{}, err
	}
	if err := s.eggs.SaveWeightSeries(ctx, id, series); err != nil {
		return models.Egg{}, persistErr("initialise series", err)
	}
	s.logger.Info("series initialised", zap.String("egg", id))
	egg.DailyWeights = series
	return egg, nil
}

func checkSeries(egg models.Egg) error {
	if err := egg.DailyWeights.Validate(); err != nil {
		return fmt.Errorf("%w: egg %s: %v", ErrCorruptSeries, egg.ID, err)
	}
	return nil
}

// ListEggs returns every egg.
func (s *Service) ListEggs(ctx context.Context) ([]models.Egg, error) {
	eggs, err := s.eggs.ListEggs(ctx)
	if err != nil {
		return nil, persistErr("list eggs", err)
	}
	return eggs, nil
}

// UpdateEgg replaces the editable fields of an egg. When the target curve
// changes the series is rebuilt, keeping user-entered weights for days that
// still exist, and then re-interpolated.
func (s *Service) UpdateEgg(ctx context.Context, id string, patch models.Egg) (_ models.Egg, err error) {
	defer metrics.Since(ctx, s.metrics, "update_egg", time.Now(), &err)

	current, err := s.eggs.GetEgg(ctx, id)
	if err != nil {
		return models.Egg{}, persistErr("load egg", err)
	}
	if len(current.DailyWeights) > 0 {
		if err := checkSeries(current); err != nil {
			return models.Egg{}, err
		}
	}
	if strings.TrimSpace(patch.Name) == "" {
		return models.Egg{}, fmt.Errorf("%w: name is required", trajectory.ErrInvalidInput)
	}

	next := current
	next.Name = patch.Name
	next.TypeID = patch.TypeID
	next.Type = ""
	next.Weight = patch.Weight
	next.Coefficient = patch.Coefficient
	next.IncubationStart = patch.IncubationStart
	next.HighHumidityLoss = patch.HighHumidityLoss
	next.MidHumidityLoss = patch.MidHumidityLoss
	next.LowHumidityLoss = patch.LowHumidityLoss
	next.Notes = patch.Notes
	next.IncubationDays = patch.IncubationDays
	if next.IncubationDays == 0 && next.TypeID == "" {
		next.IncubationDays = current.IncubationDays
	}
	if err := s.applyEggType(ctx, &next); err != nil {
		return models.Egg{}, err
	}
	if next.MidHumidityLoss == 0 {
		next.MidHumidityLoss = s.defaultLoss
	}

	if next.ShapeChanged(current) || len(current.DailyWeights) == 0 {
		params, err := next.SeriesParams()
		if err != nil {
			return models.Egg{}, err
		}
		rebuilt, err := trajectory.Rebuild(current.DailyWeights, params)
		if err != nil {
			return models.Egg{}, err
		}
		next.DailyWeights = trajectory.Interpolate(rebuilt)
		s.logger.Info("series rebuilt", zap.String("egg", id), zap.Int("days", next.IncubationDays))
	}

	next.UpdatedAt = s.now().UTC()
	if err := s.eggs.UpdateEgg(ctx, next); err != nil {
		return models.Egg{}, persistErr("update egg", err)
	}
	return next, nil
}

// DeleteEgg removes an egg.
func (s *Service) DeleteEgg(ctx context.Context, id string) error {
	if err := s.eggs.DeleteEgg(ctx, id); err != nil {
		return persistErr("delete egg", err)
	}
	s.logger.Info("egg deleted", zap.String("egg", id))
	return nil
}

// RecordWeights applies edits in order, re-interpolates and saves the whole
// series. Nothing is saved when any edit is rejected.
func (s *Service) RecordWeights(ctx context.Context, id string, edits []WeightEdit) (_ models.Egg, err error) {
	defer metrics.Since(ctx, s.metrics, "record_weights", time.Now(), &err)

	if len(edits) == 0 {
		return models.Egg{}, fmt.Errorf("%w: no weights given", trajectory.ErrInvalidInput)
	}
	egg, err := s.GetEgg(ctx, id)
	if err != nil {
		return models.Egg{}, err
	}

	series := egg.DailyWeights
	for _, edit := range edits {
		series, err = trajectory.RecordWeight(series, edit.Day, edit.Weight)
		if err != nil {
			return models.Egg{}, err
		}
	}

	return s.saveSeries(ctx, egg, trajectory.Interpolate(series), zap.Int("edits", len(edits)))
}

// Interpolate recomputes the interpolated days of an egg and saves them.
func (s *Service) Interpolate(ctx context.Context, id string) (_ models.Egg, err error) {
	defer metrics.Since(ctx, s.metrics, "interpolate", time.Now(), &err)

	egg, err := s.GetEgg(ctx, id)
	if err != nil {
		return models.Egg{}, err
	}
	return s.saveSeries(ctx, egg, trajectory.Interpolate(egg.DailyWeights))
}

func (s *Service) saveSeries(ctx context.Context, egg models.Egg, series trajectory.WeightSeries, fields ...zap.Field) (models.Egg, error) {
	if err := s.eggs.SaveWeightSeries(ctx, egg.ID, series); err != nil {
		s.logger.Warn("saving weight series failed", zap.String("egg", egg.ID), zap.Error(err))
		return models.Egg{}, persistErr("save weight series", err)
	}
	egg.DailyWeights = series
	egg.UpdatedAt = s.now().UTC()
	s.logger.Debug("weight series saved", append(fields, zap.String("egg", egg.ID), zap.Int("known", len(series.KnownPoints())))...)
	return egg, nil
}

// Recommend proposes pin holes for an egg using the stored catalog and settings.
func (s *Service) Recommend(ctx context.Context, id string) (_ trajectory.RecommendationResult, err error) {
	defer metrics.Since(ctx, s.metrics, "recommend", time.Now(), &err)

	egg, err := s.GetEgg(ctx, id)
	if err != nil {
		return trajectory.RecommendationResult{}, err
	}
	return s.RecommendFor(ctx, egg)
}

// RecommendFor runs the policy on an already loaded egg.
func (s *Service) RecommendFor(ctx context.Context, egg models.Egg) (trajectory.RecommendationResult, error) {
	if len(egg.DailyWeights) > 0 {
		if err := checkSeries(egg); err != nil {
			return trajectory.RecommendationResult{}, err
		}
	}
	types, err := s.catalog.ListPinHoleTypes(ctx)
	if err != nil {
		return trajectory.RecommendationResult{}, persistErr("list pin hole types", err)
	}
	settings, err := s.catalog.GetSettings(ctx)
	if err != nil {
		return trajectory.RecommendationResult{}, persistErr("load settings", err)
	}

	result := s.policy.Recommend(egg.DailyWeights, types, settings)
	s.logger.Debug("recommendation computed",
		zap.String("egg", egg.ID),
		zap.String("status", string(result.Status)),
		zap.Float64("gap", result.WeightGap),
		zap.Int("holes", len(result.Recommendations)),
	)
	return result, nil
}

// Overview summarises progress and per-day deviations of an egg at now.
func (s *Service) Overview(ctx context.Context, id string, now time.Time) (_ models.EggOverview, err error) {
	defer metrics.Since(ctx, s.metrics, "overview", time.Now(), &err)

	egg, err := s.GetEgg(ctx, id)
	if err != nil {
		return models.EggOverview{}, err
	}
	return OverviewOf(egg, now)
}

// OverviewOf builds the overview of a loaded egg.
func OverviewOf(egg models.Egg, now time.Time) (models.EggOverview, error) {
	start, err := egg.StartDate()
	if err != nil {
		return models.EggOverview{}, err
	}

	overview := models.EggOverview{
		Egg:        egg,
		Progress:   trajectory.ProgressAt(start, egg.IncubationDays, now),
		Deviations: map[int]trajectory.Deviation{},
		LatestDay:  egg.DailyWeights.LatestKnownDay(),
	}
	for _, rec := range egg.DailyWeights {
		if dev := trajectory.DeviationOf(rec); dev != trajectory.DeviationNone {
			overview.Deviations[rec.Day] = dev
		}
	}
	if overview.LatestDay < len(egg.DailyWeights) {
		latest := egg.DailyWeights[overview.LatestDay]
		overview.Latest = &latest
	}
	return overview, nil
}
