package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWeights(t *testing.T, s WeightSeries, weights map[int]float64) WeightSeries {
	t.Helper()
	var err error
	for day, w := range weights {
		s, err = RecordWeight(s, day, weightPtr(w))
		require.NoError(t, err)
	}
	return s
}

func TestInterpolate_SingleKnownPointLeavesSeriesUntouched(t *testing.T) {
	s := mustSeries(t, 60, 21, 12)
	out := Interpolate(s)

	assert.Equal(t, s, out)
	for day := 1; day < len(out); day++ {
		assert.Nil(t, out[day].Weight)
		assert.False(t, out[day].Interpolated)
	}
}

func TestInterpolate_LinearSegment(t *testing.T) {
	s := withWeights(t, mustSeries(t, 100, 10, 12), map[int]float64{10: 90})
	out := Interpolate(s)

	require.NotNil(t, out[5].Weight)
	assert.Equal(t, 95.0, *out[5].Weight)
	assert.True(t, out[5].Interpolated)
	for day := 1; day < 10; day++ {
		assert.Equal(t, 100-float64(day), *out[day].Weight, "day %d", day)
		assert.True(t, out[day].Interpolated, "day %d", day)
	}
	assert.Equal(t, 90.0, *out[10].Weight)
	assert.False(t, out[10].Interpolated)
}

func TestInterpolate_TailUsesGlobalAverageLoss(t *testing.T) {
	s := withWeights(t, mustSeries(t, 100, 20, 12), map[int]float64{6: 94})
	out := Interpolate(s)

	require.NotNil(t, out[10].Weight)
	assert.Equal(t, 90.0, *out[10].Weight)
	assert.True(t, out[10].Interpolated)
	assert.Equal(t, 80.0, *out[20].Weight)
}

func TestInterpolate_TailIgnoresLocalSlope(t *testing.T) {
	// 0→5 loses 5 g, 5→10 loses 0.5 g; the tail follows the 5.5 g / 10 day average.
	s := withWeights(t, mustSeries(t, 100, 14, 12), map[int]float64{5: 95, 10: 94.5})
	out := Interpolate(s)

	assert.Equal(t, 94.9, *out[6].Weight)
	assert.Equal(t, 93.95, *out[11].Weight)
	assert.Equal(t, 92.3, *out[14].Weight)
}

func TestInterpolate_TailClampsAtZero(t *testing.T) {
	s := withWeights(t, mustSeries(t, 10, 20, 12), map[int]float64{2: 4})
	out := Interpolate(s)

	assert.Equal(t, 1.0, *out[3].Weight)
	for day := 4; day <= 20; day++ {
		require.NotNil(t, out[day].Weight)
		assert.Equal(t, 0.0, *out[day].Weight, "day %d", day)
		assert.True(t, out[day].Interpolated)
	}
}

func TestInterpolate_RoundsToTwoDecimals(t *testing.T) {
	s := withWeights(t, mustSeries(t, 60, 21, 12), map[int]float64{3: 59})
	out := Interpolate(s)

	assert.Equal(t, 59.67, *out[1].Weight)
	assert.Equal(t, 59.33, *out[2].Weight)
}

func TestInterpolate_Idempotent(t *testing.T) {
	fixtures := []map[int]float64{
		{},
		{21: 52},
		{4: 58.7, 9: 57.1},
		{2: 59.8, 7: 58.01, 8: 57.9, 15: 55.2},
	}
	for _, weights := range fixtures {
		s := withWeights(t, mustSeries(t, 60, 21, 12), weights)
		once := Interpolate(s)
		twice := Interpolate(once)
		assert.Equal(t, once, twice)
	}
}

func TestInterpolate_NeverTouchesAnchor(t *testing.T) {
	s := withWeights(t, mustSeries(t, 61.23, 21, 12), map[int]float64{4: 60, 12: 57})
	out := Interpolate(s)

	assert.Equal(t, s[0], out[0])
	assert.Equal(t, s[4], out[4])
	assert.Equal(t, s[12], out[12])
}

func TestInterpolate_DoesNotMutateInput(t *testing.T) {
	s := withWeights(t, mustSeries(t, 60, 10, 12), map[int]float64{5: 58})
	before := s.Clone()
	_ = Interpolate(s)
	assert.Equal(t, before, s)
}

func TestRecordWeight_ClearingInterpolatedDayIsNotAnAnchor(t *testing.T) {
	s := withWeights(t, mustSeries(t, 100, 20, 12), map[int]float64{10: 90})
	s = Interpolate(s)
	require.True(t, s[15].Interpolated)

	cleared, err := RecordWeight(s, 15, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared[15].Weight)
	assert.False(t, cleared[15].Interpolated)

	out := Interpolate(cleared)
	assert.Equal(t, []KnownPoint{{Day: 0, Weight: 100}, {Day: 10, Weight: 90}}, out.KnownPoints())
	assert.Equal(t, 85.0, *out[15].Weight)
	assert.True(t, out[15].Interpolated)
}

func TestRecordWeight_ClearingKnownDayDropsItsInfluence(t *testing.T) {
	s := withWeights(t, mustSeries(t, 100, 20, 12), map[int]float64{10: 90})
	s = Interpolate(s)

	cleared, err := RecordWeight(s, 10, nil)
	require.NoError(t, err)
	out := Interpolate(cleared)

	for day := 1; day < len(out); day++ {
		assert.Nil(t, out[day].Weight, "day %d", day)
		assert.False(t, out[day].Interpolated, "day %d", day)
	}
}

func TestRecordWeight_OverwritesInterpolatedValue(t *testing.T) {
	s := Interpolate(withWeights(t, mustSeries(t, 100, 20, 12), map[int]float64{10: 90}))

	edited, err := RecordWeight(s, 4, weightPtr(97.456))
	require.NoError(t, err)
	assert.Equal(t, 97.46, *edited[4].Weight)
	assert.False(t, edited[4].Interpolated)
	assert.True(t, s[4].Interpolated, "input series must not change")
}

func TestRecordWeight_Rejections(t *testing.T) {
	s := mustSeries(t, 60, 21, 12)

	_, err := RecordWeight(s, 0, nil)
	assert.ErrorIs(t, err, ErrAnchorRequired)

	_, err = RecordWeight(s, 22, weightPtr(50))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = RecordWeight(s, -1, weightPtr(50))
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, bad := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		_, err = RecordWeight(s, 3, weightPtr(bad))
		assert.ErrorIs(t, err, ErrInvalidInput, "weight %v", bad)
	}
}

func TestKnownPoints_SortedAndUserEnteredOnly(t *testing.T) {
	s := withWeights(t, mustSeries(t, 60, 21, 12), map[int]float64{14: 55, 3: 59})
	s = Interpolate(s)

	assert.Equal(t, []KnownPoint{{0, 60}, {3, 59}, {14, 55}}, s.KnownPoints())
	assert.Equal(t, 21, s.LatestWeighedDay())
	assert.Equal(t, 14, s.LatestKnownDay())
}
