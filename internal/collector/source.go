package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketBreadth/internal/model"
)

// Source loads daily price observations for a basket of instruments.
type Source interface {
	Load(ctx context.Context) ([]model.PriceObservation, error)
	Name() string
}

var dayLayouts = []string{
	time.DateOnly,
	"2006_01_02",
	"2006/01/02",
	time.DateTime,
	time.RFC3339,
}

// parseDay accepts the date layouts seen in exported OHLCV files.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.TradingDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
