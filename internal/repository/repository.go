// Package repository defines the storage contracts shared by the Mongo and
// SQLite backends.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// EggStore persists eggs and their weight series.
type EggStore interface {
	CreateEgg(ctx context.Context, egg models.Egg) error
	GetEgg(ctx context.Context, id string) (models.Egg, error)
	ListEggs(ctx context.Context) ([]models.Egg, error)
	UpdateEgg(ctx context.Context, egg models.Egg) error
	DeleteEgg(ctx context.Context, id string) error
	// SaveWeightSeries replaces the stored series of an egg in one write.
	SaveWeightSeries(ctx context.Context, id string, series trajectory.WeightSeries) error
}

// CatalogStore persists egg types, pin hole types and recommendation settings.
type CatalogStore interface {
	ListEggTypes(ctx context.Context) ([]models.EggType, error)
	GetEggType(ctx context.Context, id string) (models.EggType, error)
	SaveEggType(ctx context.Context, t models.EggType) error
	DeleteEggType(ctx context.Context, id string) error

	ListPinHoleTypes(ctx context.Context) ([]trajectory.PinHoleType, error)
	SavePinHoleType(ctx context.Context, t trajectory.PinHoleType) error
	DeletePinHoleType(ctx context.Context, id string) error

	// GetSettings returns the stored settings, or the defaults when none exist.
	GetSettings(ctx context.Context) (trajectory.RecommendationSettings, error)
	SaveSettings(ctx context.Context, s trajectory.RecommendationSettings) error
}

// Store is a full backend.
type Store interface {
	EggStore
	CatalogStore
	Close(ctx context.Context) error
}
