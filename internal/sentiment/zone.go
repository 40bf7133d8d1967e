package sentiment

import (
	"fmt"

	"github.com/guregu/null/v6"
)

// Zone labels a URSI reading against the configured bands.
type Zone string

const (
	ZoneOverbought Zone = "OVERBOUGHT"
	ZoneNeutral    Zone = "NEUTRAL"
	ZoneOversold   Zone = "OVERSOLD"
	ZoneNoData     Zone = "NO_DATA"
)

// Bands are the conventional overbought/oversold thresholds on the 0-100 scale.
type Bands struct {
	Overbought float64 `yaml:"overbought"`
	Oversold   float64 `yaml:"oversold"`
}

// DefaultBands mirrors the 70/30 convention.
var DefaultBands = Bands{Overbought: 70, Oversold: 30}

// Neutral is the midpoint guide line drawn on charts.
const Neutral = 50.0

// Describe holds a human label for each zone.
var Describe = map[Zone]string{
	ZoneOverbought: "Overbought (bullish breadth)",
	ZoneNeutral:    "Neutral",
	ZoneOversold:   "Oversold (bearish breadth)",
	ZoneNoData:     "No data",
}

// Validate checks that the bands are ordered and inside 0-100.
func (b Bands) Validate() error {
	if b.Oversold < 0 || b.Overbought > 100 {
		return fmt.Errorf("bands must lie within [0, 100], got oversold=%.2f overbought=%.2f", b.Oversold, b.Overbought)
	}
	if b.Oversold >= b.Overbought {
		return fmt.Errorf("oversold band %.2f must be below overbought band %.2f", b.Oversold, b.Overbought)
	}
	return nil
}

// Classify maps a reading to its zone. Values on a band edge count as neutral.
func (b Bands) Classify(v null.Float) Zone {
	if !v.Valid {
		return ZoneNoData
	}
	switch {
	case v.Float64 > b.Overbought:
		return ZoneOverbought
	case v.Float64 < b.Oversold:
		return ZoneOversold
	default:
		return ZoneNeutral
	}
}
