package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/repository/sqlite"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return NewService(store, nil)
}

func TestEggTypes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateEggType(ctx, models.EggType{Name: "Chicken", IncubationPeriod: 21})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = svc.CreateEggType(ctx, models.EggType{Name: "Duck"})
	assert.ErrorIs(t, err, trajectory.ErrInvalidInput)

	updated, err := svc.UpdateEggType(ctx, created.ID, models.EggType{Name: "Chicken", IncubationPeriod: 22})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	types, err := svc.ListEggTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, 22, types[0].IncubationPeriod)

	_, err = svc.UpdateEggType(ctx, "missing", models.EggType{Name: "x", IncubationPeriod: 3})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, svc.DeleteEggType(ctx, created.ID))
}

func TestPinHoleTypes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, bad := range []trajectory.PinHoleType{
		{Name: "", DailyLossRateIncrease: 0.3},
		{Name: "Flat", DailyLossRateIncrease: 0},
		{Name: "Negative", DailyLossRateIncrease: -0.1},
	} {
		_, err := svc.CreatePinHoleType(ctx, bad)
		assert.ErrorIs(t, err, trajectory.ErrInvalidInput, bad.Name)
	}

	small, err := svc.CreatePinHoleType(ctx, trajectory.PinHoleType{Name: "Small", DailyLossRateIncrease: 0.2})
	require.NoError(t, err)
	_, err = svc.UpdatePinHoleType(ctx, small.ID, trajectory.PinHoleType{Name: "Small", DailyLossRateIncrease: 0.25})
	require.NoError(t, err)
	_, err = svc.UpdatePinHoleType(ctx, "missing", trajectory.PinHoleType{Name: "x", DailyLossRateIncrease: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	types, err := svc.ListPinHoleTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, 0.25, types[0].DailyLossRateIncrease)

	require.NoError(t, svc.DeletePinHoleType(ctx, small.ID))
	assert.ErrorIs(t, svc.DeletePinHoleType(ctx, small.ID), repository.ErrNotFound)
}

func TestSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, trajectory.DefaultSettings(), settings)

	saved, err := svc.SaveSettings(ctx, trajectory.RecommendationSettings{MinDayForFirstPinHole: 5})
	require.NoError(t, err)
	assert.Equal(t, trajectory.RecommendationSettings{MinDayForFirstPinHole: 5, DaysBetweenPinHoles: 3}, saved)

	_, err = svc.SaveSettings(ctx, trajectory.RecommendationSettings{MinDayForFirstPinHole: -1})
	assert.ErrorIs(t, err, trajectory.ErrInvalidInput)
}
