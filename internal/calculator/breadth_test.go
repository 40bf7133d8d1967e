package calculator

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBreadth/internal/dataset"
	"MarketBreadth/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1+n, 0, 0, 0, 0, time.UTC)
}

// basket builds a dataset from per-day closes; closes[d][i] belongs to instruments[i].
func basket(t *testing.T, instruments []string, closes [][]float64) *dataset.Dataset {
	t.Helper()
	var obs []model.PriceObservation
	for d, row := range closes {
		for i, c := range row {
			obs = append(obs, model.PriceObservation{
				Instrument: instruments[i],
				Day:        day(d),
				Close:      decimal.NewFromFloat(c),
			})
		}
	}
	ds, err := dataset.New(obs)
	require.NoError(t, err)
	return ds
}

func TestClassify(t *testing.T) {
	tests := []struct {
		price, prev string
		want        model.Status
	}{
		{"11", "10", model.StatusAdvancing},
		{"9", "10", model.StatusDeclining},
		{"10", "10.000", model.StatusUnchanged},
		{"0.3", "0.1", model.StatusAdvancing},
	}
	for _, tt := range tests {
		got := Classify(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.prev))
		assert.Equal(t, tt.want, got, "%s vs %s", tt.price, tt.prev)
	}
}

func TestAggregateDay_ExcludesUnchangedFromRatio(t *testing.T) {
	b := AggregateDay(day(1), []model.Status{
		model.StatusAdvancing, model.StatusDeclining, model.StatusUnchanged,
	})
	assert.Equal(t, 1, b.Advancing)
	assert.Equal(t, 1, b.Declining)
	assert.Equal(t, 1, b.Unchanged)
	assert.Equal(t, 3, b.Total)
	require.True(t, b.URSI.Valid)
	assert.Equal(t, 50.0, b.URSI.Float64)
}

func TestAggregateDay_UndefinedRatio(t *testing.T) {
	all := AggregateDay(day(1), []model.Status{model.StatusUnchanged, model.StatusUnchanged})
	assert.False(t, all.URSI.Valid)
	assert.Equal(t, 2, all.Total)

	none := AggregateDay(day(1), nil)
	assert.False(t, none.URSI.Valid)
	assert.Equal(t, 0, none.Total)
}

func TestComputeBreadth_Scenario(t *testing.T) {
	ds := basket(t, []string{"A", "B", "C"}, [][]float64{
		{10, 10, 10},
		{11, 9, 10},
		{12, 8, 11},
	})
	series := ComputeBreadth(ds)
	require.Len(t, series, 2, "first day has no classified instrument")

	d2 := series[0]
	assert.Equal(t, day(1), d2.Day)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{d2.Advancing, d2.Declining, d2.Unchanged})
	assert.InDelta(t, 50.0, d2.URSI.Float64, 1e-9)

	d3 := series[1]
	assert.Equal(t, [3]int{2, 1, 0}, [3]int{d3.Advancing, d3.Declining, d3.Unchanged})
	assert.InDelta(t, 100.0*2/3, d3.URSI.Float64, 1e-9)
}

func TestComputeBreadth_CountsMovesAgainstPreviousDay(t *testing.T) {
	// Day 3 moves reverse day 2's; against the first day they would not.
	ds := basket(t, []string{"A", "B"}, [][]float64{
		{10, 10},
		{12, 8},
		{11, 9},
	})
	series := ComputeBreadth(ds)
	require.Len(t, series, 2)
	assert.Equal(t, 1, series[1].Advancing, "B 8->9 advances")
	assert.Equal(t, 1, series[1].Declining, "A 12->11 declines")
}

func TestComputeBreadth_SingleInstrumentIsAllOrNothing(t *testing.T) {
	ds := basket(t, []string{"A"}, [][]float64{{10}, {11}, {9}, {9.5}})
	for _, b := range ComputeBreadth(ds) {
		require.True(t, b.URSI.Valid)
		assert.Contains(t, []float64{0, 100}, b.URSI.Float64)
		assert.Equal(t, 1, b.Total)
	}
}

func TestComputeBreadth_FirstObservationExcluded(t *testing.T) {
	// C enters on day 2: its first close must not be counted on day 2.
	obs := []model.PriceObservation{
		{Instrument: "A", Day: day(0), Close: decimal.NewFromInt(10)},
		{Instrument: "A", Day: day(1), Close: decimal.NewFromInt(11)},
		{Instrument: "C", Day: day(1), Close: decimal.NewFromInt(5)},
		{Instrument: "C", Day: day(2), Close: decimal.NewFromInt(5)},
	}
	ds, err := dataset.New(obs)
	require.NoError(t, err)

	series := ComputeBreadth(ds)
	require.Len(t, series, 2)
	assert.Equal(t, 1, series[0].Total)
	assert.Equal(t, 1, series[0].Advancing)

	// Day 3 has only C, unchanged: counted, ratio undefined.
	assert.Equal(t, day(2), series[1].Day)
	assert.Equal(t, 1, series[1].Unchanged)
	assert.False(t, series[1].URSI.Valid)
}

func TestComputeBreadth_Invariants(t *testing.T) {
	ds := basket(t, []string{"A", "B", "C", "D"}, [][]float64{
		{10, 20, 30, 40},
		{10, 21, 29, 40},
		{10, 21, 29, 40},
		{11, 20, 30, 41},
		{11, 20, 31, 39},
	})
	series := ComputeBreadth(ds)
	for i, b := range series {
		assert.Equal(t, b.Total, b.Advancing+b.Declining+b.Unchanged)
		assert.Equal(t, 4, b.Total)
		if b.Advancing+b.Declining > 0 {
			require.True(t, b.URSI.Valid)
			assert.GreaterOrEqual(t, b.URSI.Float64, 0.0)
			assert.LessOrEqual(t, b.URSI.Float64, 100.0)
		} else {
			assert.False(t, b.URSI.Valid)
		}
		if i > 0 {
			assert.True(t, series[i-1].Day.Before(b.Day))
		}
	}
	assert.False(t, series[1].URSI.Valid, "all four unchanged on day 3")
}

func TestComputeBreadth_Idempotent(t *testing.T) {
	ds := basket(t, []string{"A", "B"}, [][]float64{
		{10, 10}, {10, 10}, {11, 9}, {11, 9},
	})
	first := ComputeBreadth(ds)
	second := ComputeBreadth(ds)
	assert.Equal(t, first, second)
}

func TestValues(t *testing.T) {
	series := []model.DailyBreadth{
		{URSI: null.FloatFrom(40)},
		{},
	}
	assert.Equal(t, []null.Float{null.FloatFrom(40), {}}, Values(series))
}
