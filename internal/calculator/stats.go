package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"MarketBreadth/internal/model"
	"MarketBreadth/internal/sentiment"
)

// Summarize computes descriptive statistics over the defined URSI values of series.
func Summarize(series []model.DailyBreadth, bands sentiment.Bands) model.Summary {
	var s model.Summary
	if len(series) == 0 {
		return s
	}
	s.Start = series[0].Day
	s.End = series[len(series)-1].Day
	s.TradingDays = len(series)
	s.Latest = series[len(series)-1]

	defined := make([]float64, 0, len(series))
	for _, b := range series {
		if !b.URSI.Valid {
			continue
		}
		defined = append(defined, b.URSI.Float64)
		switch bands.Classify(b.URSI) {
		case sentiment.ZoneOverbought:
			s.DaysOverbought++
		case sentiment.ZoneOversold:
			s.DaysOversold++
		default:
			s.DaysNeutral++
		}
	}
	s.DefinedDays = len(defined)
	if len(defined) == 0 {
		return s
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range defined {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	avg := mean(defined)
	s.Mean = null.FloatFrom(avg)
	s.Median = null.FloatFrom(median(defined))
	s.Min = null.FloatFrom(lo)
	s.Max = null.FloatFrom(hi)

	// Sample standard deviation; undefined below two values.
	if len(defined) > 1 {
		var sq float64
		for _, v := range defined {
			sq += (v - avg) * (v - avg)
		}
		s.StdDev = null.FloatFrom(math.Sqrt(sq / float64(len(defined)-1)))
	}
	return s
}

// MonthlyAverages groups series by calendar month. Count means cover every day of the
// month; the URSI mean covers defined values only.
func MonthlyAverages(series []model.DailyBreadth) []model.MonthlyAverage {
	var out []model.MonthlyAverage
	var cur *model.MonthlyAverage
	var ursi []float64

	flush := func() {
		if cur == nil {
			return
		}
		n := float64(cur.TradingDays)
		cur.Advancing /= n
		cur.Declining /= n
		cur.Unchanged /= n
		if len(ursi) > 0 {
			cur.URSI = null.FloatFrom(mean(ursi))
		}
		out = append(out, *cur)
	}

	for _, b := range series {
		month := time.Date(b.Day.Year(), b.Day.Month(), 1, 0, 0, 0, 0, time.UTC)
		if cur == nil || !cur.Month.Equal(month) {
			flush()
			cur = &model.MonthlyAverage{Month: month}
			ursi = ursi[:0]
		}
		cur.TradingDays++
		cur.Advancing += float64(b.Advancing)
		cur.Declining += float64(b.Declining)
		cur.Unchanged += float64(b.Unchanged)
		if b.URSI.Valid {
			ursi = append(ursi, b.URSI.Float64)
		}
	}
	flush()
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
