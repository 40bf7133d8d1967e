package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceObservation is one instrument's prices on one trading day.
// Only Close takes part in breadth; the other fields are carried when the source has them.
type PriceObservation struct {
	Instrument string
	Day        time.Time
	Open       float64
	High       float64
	Low        float64
	Close      decimal.Decimal
	Volume     float64
}

// TradingDay keeps the calendar date t states in its own location and
// returns it as midnight UTC.
func TradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FromBar converts a bar into an observation for the given instrument.
func FromBar(instrument string, bar OHLCV) PriceObservation {
	return PriceObservation{
		Instrument: instrument,
		Day:        TradingDay(bar.Time),
		Open:       bar.Open,
		High:       bar.High,
		Low:        bar.Low,
		Close:      decimal.NewFromFloat(bar.Close),
		Volume:     bar.Volume,
	}
}
