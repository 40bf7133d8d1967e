// Package export renders a computed breadth series to files: CSV, a multi-sheet
// workbook, and an HTML dashboard.
package export

import (
	"MarketBreadth/internal/model"
	"MarketBreadth/internal/sentiment"
)

// Data is the read-only view every exporter renders.
type Data struct {
	Title   string
	Series  []model.DailyBreadth
	Summary model.Summary
	Monthly []model.MonthlyAverage
	// MA is the default overlay. Window is zero when the series is too short to average.
	MA    model.MovingAverage
	Bands sentiment.Bands
}

const dateLayout = "2006-01-02"
