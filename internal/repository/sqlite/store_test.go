package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func testEgg(t *testing.T, id string) models.Egg {
	t.Helper()
	series, err := trajectory.NewSeries(trajectory.SeriesParams{
		InitialWeight:  60,
		IncubationDays: 21,
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return models.Egg{
		ID:              id,
		Name:            "Marans " + id,
		Weight:          60,
		IncubationStart: "2025-03-01",
		IncubationDays:  21,
		MidHumidityLoss: 12,
		DailyWeights:    series,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, Migrate(s.db))
	require.NoError(t, Migrate(s.db))
}

func TestStore_EggRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	egg := testEgg(t, "a")

	require.NoError(t, s.CreateEgg(ctx, egg))
	got, err := s.GetEgg(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, egg, got)

	_, err = s.GetEgg(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_SaveWeightSeries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	egg := testEgg(t, "a")
	require.NoError(t, s.CreateEgg(ctx, egg))

	series, err := trajectory.RecordWeight(egg.DailyWeights, 10, ptr(55.5))
	require.NoError(t, err)
	series = trajectory.Interpolate(series)
	require.NoError(t, s.SaveWeightSeries(ctx, "a", series))

	got, err := s.GetEgg(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, series, got.DailyWeights)
	assert.True(t, got.DailyWeights[5].Interpolated)
	assert.Nil(t, egg.DailyWeights[5].Weight)

	assert.ErrorIs(t, s.SaveWeightSeries(ctx, "missing", series), repository.ErrNotFound)
}

func TestStore_UpdateListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CreateEgg(ctx, testEgg(t, "a")))
	require.NoError(t, s.CreateEgg(ctx, testEgg(t, "b")))

	egg, err := s.GetEgg(ctx, "b")
	require.NoError(t, err)
	egg.Notes = "moved to tray 2"
	require.NoError(t, s.UpdateEgg(ctx, egg))

	eggs, err := s.ListEggs(ctx)
	require.NoError(t, err)
	require.Len(t, eggs, 2)
	assert.Equal(t, "b", eggs[0].ID, "newest first")
	assert.Equal(t, "moved to tray 2", eggs[0].Notes)

	require.NoError(t, s.DeleteEgg(ctx, "a"))
	assert.ErrorIs(t, s.DeleteEgg(ctx, "a"), repository.ErrNotFound)
	missing := testEgg(t, "zz")
	assert.ErrorIs(t, s.UpdateEgg(ctx, missing), repository.ErrNotFound)
}

func TestStore_ListEggsOrdersByCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Inserted out of creation order; "late" has a sub-second timestamp.
	late := testEgg(t, "late")
	late.CreatedAt = late.CreatedAt.Add(500 * time.Millisecond)
	early := testEgg(t, "early")
	early.CreatedAt = early.CreatedAt.Add(-time.Hour)
	mid := testEgg(t, "mid")
	for _, egg := range []models.Egg{late, early, mid} {
		require.NoError(t, s.CreateEgg(ctx, egg))
	}

	eggs, err := s.ListEggs(ctx)
	require.NoError(t, err)
	require.Len(t, eggs, 3)
	assert.Equal(t, "late", eggs[0].ID)
	assert.Equal(t, "mid", eggs[1].ID)
	assert.Equal(t, "early", eggs[2].ID)
	assert.True(t, eggs[0].CreatedAt.Equal(late.CreatedAt))
}

func TestStore_Catalog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveEggType(ctx, models.EggType{ID: "q", Name: "Quail", IncubationPeriod: 17, CreatedAt: time.Now()}))
	require.NoError(t, s.SaveEggType(ctx, models.EggType{ID: "c", Name: "Chicken", IncubationPeriod: 21, CreatedAt: time.Now()}))
	require.NoError(t, s.SaveEggType(ctx, models.EggType{ID: "c", Name: "Chicken", IncubationPeriod: 22, CreatedAt: time.Now()}))

	types, err := s.ListEggTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Chicken", types[0].Name)
	assert.Equal(t, 22, types[0].IncubationPeriod)

	got, err := s.GetEggType(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, 17, got.IncubationPeriod)
	require.NoError(t, s.DeleteEggType(ctx, "q"))
	_, err = s.GetEggType(ctx, "q")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.SavePinHoleType(ctx, trajectory.PinHoleType{ID: "2", Name: "Large", DailyLossRateIncrease: 0.5}))
	require.NoError(t, s.SavePinHoleType(ctx, trajectory.PinHoleType{ID: "1", Name: "Small", DailyLossRateIncrease: 0.2}))
	holes, err := s.ListPinHoleTypes(ctx)
	require.NoError(t, err)
	require.Len(t, holes, 2)
	assert.Equal(t, "Large", holes[0].Name, "insertion order is kept")
	assert.ErrorIs(t, s.DeletePinHoleType(ctx, "nope"), repository.ErrNotFound)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, trajectory.DefaultSettings(), settings)

	want := trajectory.RecommendationSettings{MinDayForFirstPinHole: 5, DaysBetweenPinHoles: 4}
	require.NoError(t, s.SaveSettings(ctx, want))
	require.NoError(t, s.SaveSettings(ctx, want))
	settings, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, settings)
}

func ptr(v float64) *float64 { return &v }
