package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"MarketBreadth/internal/calculator"
	"MarketBreadth/internal/export"
	"MarketBreadth/internal/model"
	"MarketBreadth/internal/notifier"
	"MarketBreadth/internal/sentiment"
)

// Report is the immutable result of one pipeline run. Callers must not modify its slices.
type Report struct {
	RunID        uuid.UUID
	GeneratedAt  time.Time
	Title        string
	Source       string
	Instruments  int
	Observations int
	Series       []model.DailyBreadth
	Summary      model.Summary
	Monthly      []model.MonthlyAverage
	DefaultMA    model.MovingAverage
	Bands        sentiment.Bands
}

// MovingAverage recomputes the rolling mean over the report's series.
func (r *Report) MovingAverage(window int) (model.MovingAverage, error) {
	return calculator.MovingAverage(r.Series, window)
}

// Latest returns the most recent day of the report, or false for an empty series.
func (r *Report) Latest() (model.DailyBreadth, bool) {
	if len(r.Series) == 0 {
		return model.DailyBreadth{}, false
	}
	return r.Series[len(r.Series)-1], true
}

// ExportData is the view handed to the file exporters and the dashboard.
func (r *Report) ExportData() export.Data {
	return export.Data{
		Title:   r.Title,
		Series:  r.Series,
		Summary: r.Summary,
		Monthly: r.Monthly,
		MA:      r.DefaultMA,
		Bands:   r.Bands,
	}
}

// Message formats the report for chat delivery.
func (r *Report) Message() string {
	return notifier.FormatBreadthReport(r.Title, r.Summary, r.DefaultMA, r.Bands)
}

// Holder keeps the latest report for concurrent readers.
type Holder struct {
	mu     sync.RWMutex
	report *Report
}

// Set swaps in a new report.
func (h *Holder) Set(r *Report) {
	h.mu.Lock()
	h.report = r
	h.mu.Unlock()
}

// Current returns the latest report, or nil before the first run completes.
func (h *Holder) Current() *Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.report
}
