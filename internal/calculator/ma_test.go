package calculator

import (
	"errors"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBreadth/internal/model"
)

func floats(vs ...float64) []null.Float {
	out := make([]null.Float, len(vs))
	for i, v := range vs {
		out[i] = null.FloatFrom(v)
	}
	return out
}

func TestCalculateSMA_Scenario(t *testing.T) {
	ma, err := CalculateSMA(floats(50.0, 100.0/3), 2)
	require.NoError(t, err)
	require.Len(t, ma.Values, 2)
	assert.Equal(t, 2, ma.Window)
	assert.False(t, ma.Values[0].Valid)
	require.True(t, ma.Values[1].Valid)
	assert.InDelta(t, 41.6667, ma.Values[1].Float64, 1e-4)
}

func TestCalculateSMA_Alignment(t *testing.T) {
	values := floats(10, 20, 30, 40, 50, 60, 70)
	for w := MinWindow; w <= len(values); w++ {
		ma, err := CalculateSMA(values, w)
		require.NoError(t, err)
		require.Len(t, ma.Values, len(values))

		var leading, defined int
		for i, v := range ma.Values {
			if v.Valid {
				defined++
			} else {
				assert.Less(t, i, w-1, "window %d: gap at %d", w, i)
				leading++
			}
		}
		assert.Equal(t, w-1, leading, "window %d", w)
		assert.Equal(t, len(values)-w+1, defined, "window %d", w)

		var sum float64
		for _, v := range values[len(values)-w:] {
			sum += v.Float64
		}
		assert.InDelta(t, sum/float64(w), ma.Last().Float64, 1e-9, "window %d", w)
	}
}

func TestCalculateSMA_InvalidWindow(t *testing.T) {
	values := floats(1, 2, 3)
	for _, w := range []int{-1, 0, 1} {
		_, err := CalculateSMA(values, w)
		require.ErrorIs(t, err, ErrInvalidParameter, "window %d", w)
		var we *WindowError
		require.True(t, errors.As(err, &we))
		assert.Equal(t, MinWindow, we.Min)
	}

	_, err := CalculateSMA(values, 4)
	require.ErrorIs(t, err, ErrInvalidParameter)
	var we *WindowError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, 3, we.Max)
	assert.Contains(t, err.Error(), "maximum is 3")
}

func TestCalculateSMA_NeverSpansGap(t *testing.T) {
	values := []null.Float{
		null.FloatFrom(10), null.FloatFrom(20), {}, null.FloatFrom(30), null.FloatFrom(50), null.FloatFrom(70),
	}
	ma, err := CalculateSMA(values, 2)
	require.NoError(t, err)

	valid := make([]bool, len(ma.Values))
	for i, v := range ma.Values {
		valid[i] = v.Valid
	}
	assert.Equal(t, []bool{false, true, false, false, true, true}, valid)
	assert.InDelta(t, 15.0, ma.Values[1].Float64, 1e-9)
	assert.InDelta(t, 40.0, ma.Values[4].Float64, 1e-9)
	assert.InDelta(t, 60.0, ma.Values[5].Float64, 1e-9)
}

func TestCalculateSMA_RecomputeLeavesInputUntouched(t *testing.T) {
	values := floats(1, 2, 3, 4, 5)
	snapshot := append([]null.Float(nil), values...)

	a, err := CalculateSMA(values, 2)
	require.NoError(t, err)
	b, err := CalculateSMA(values, 5)
	require.NoError(t, err)
	again, err := CalculateSMA(values, 2)
	require.NoError(t, err)

	assert.Equal(t, snapshot, values)
	assert.Equal(t, a, again)
	assert.InDelta(t, 3.0, b.Last().Float64, 1e-9)
}

func TestMovingAverage_FromSeries(t *testing.T) {
	series := []model.DailyBreadth{
		{URSI: null.FloatFrom(50)},
		{URSI: null.FloatFrom(100.0 / 3)},
	}
	ma, err := MovingAverage(series, 2)
	require.NoError(t, err)
	assert.InDelta(t, 41.6667, ma.Last().Float64, 1e-4)

	_, err = MovingAverage(series, 3)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestValidateWindow_ShortSeries(t *testing.T) {
	err := ValidateWindow(2, 1)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "too short")
}
