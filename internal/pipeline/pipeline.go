package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"MarketBreadth/internal/calculator"
	"MarketBreadth/internal/collector"
	"MarketBreadth/internal/export"
	"MarketBreadth/internal/metrics"
	"MarketBreadth/internal/notifier"
	"MarketBreadth/internal/recorder"
	"MarketBreadth/internal/sentiment"
)

// Options controls what a run computes and where it writes.
// An empty file name disables that export.
type Options struct {
	Title         string
	MAWindow      int
	Bands         sentiment.Bands
	OutputDir     string
	CSVFile       string
	XLSXFile      string
	HTMLFile      string
	NotifyRetries int
}

// Pipeline runs collect, compute, export, record and notify in sequence.
type Pipeline struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Metrics   *metrics.Recorder
	Options   Options
	Logger    *zap.Logger

	now func() time.Time

	mu           sync.Mutex
	lastNotified time.Time
}

// New creates a Pipeline. Notifier and Metrics may be nil.
func New(col *collector.Collector, rec recorder.Recorder, n notifier.Notifier, m *metrics.Recorder, opts Options, logger *zap.Logger) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Collector: col,
		Recorder:  rec,
		Notifier:  n,
		Metrics:   m,
		Options:   opts,
		Logger:    logger,
		now:       time.Now,
	}
}

// Run executes one full pass and returns the resulting report.
// Recording and notification failures are logged and do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := p.now()
	report, err := p.run(ctx, start)
	if p.Metrics != nil {
		p.Metrics.RecordRun(err, p.now().Sub(start))
	}
	if err != nil {
		p.Logger.Error("pipeline run failed", zap.Error(err))
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, start time.Time) (*Report, error) {
	ds, err := p.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	run := recorder.NewRun(p.Collector.Source.Name(), start)
	series := calculator.ComputeBreadth(ds)
	report := &Report{
		RunID:        run.ID,
		GeneratedAt:  start,
		Title:        p.Options.Title,
		Source:       run.Source,
		Instruments:  len(ds.Instruments()),
		Observations: ds.Len(),
		Series:       series,
		Summary:      calculator.Summarize(series, p.Options.Bands),
		Monthly:      calculator.MonthlyAverages(series),
		Bands:        p.Options.Bands,
	}
	if w := DefaultWindow(p.Options.MAWindow, len(series)); w > 0 {
		if report.DefaultMA, err = calculator.MovingAverage(series, w); err != nil {
			return nil, fmt.Errorf("default moving average: %w", err)
		}
	}
	p.Logger.Info("breadth computed",
		zap.String("run_id", report.RunID.String()),
		zap.Int("trading_days", len(series)),
		zap.Int("defined_days", report.Summary.DefinedDays),
		zap.Int("ma_window", report.DefaultMA.Window),
	)

	if err := p.export(report); err != nil {
		return nil, err
	}

	run.Instruments = report.Instruments
	run.Observations = report.Observations
	run.Series = report.Series
	run.Summary = report.Summary
	if err := p.Recorder.RecordRun(ctx, run); err != nil {
		p.Logger.Error("record run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}

	p.notify(ctx, report)

	if latest, ok := report.Latest(); ok && p.Metrics != nil {
		p.Metrics.RecordLatest(latest)
	}
	return report, nil
}

// notify sends the report once per latest trading day, so scheduled refreshes
// over unchanged data stay quiet. A failed send is retried on the next run.
func (p *Pipeline) notify(ctx context.Context, r *Report) {
	if p.Notifier == nil {
		return
	}
	latest, ok := r.Latest()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if latest.Day.Equal(p.lastNotified) {
		p.Logger.Debug("latest day already notified", zap.Time("day", latest.Day))
		return
	}
	if err := p.Notifier.SendWithRetry(ctx, r.Message(), p.Options.NotifyRetries); err != nil {
		p.Logger.Error("send notification", zap.Error(err))
		return
	}
	p.lastNotified = latest.Day
}

func (p *Pipeline) export(r *Report) error {
	o := p.Options
	if o.CSVFile == "" && o.XLSXFile == "" && o.HTMLFile == "" {
		return nil
	}
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data := r.ExportData()
	if o.CSVFile != "" {
		path := filepath.Join(o.OutputDir, o.CSVFile)
		if err := export.WriteCSVFile(path, r.Series); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		p.Logger.Info("csv exported", zap.String("path", path))
	}
	if o.XLSXFile != "" {
		path := filepath.Join(o.OutputDir, o.XLSXFile)
		if err := export.WriteXLSX(path, data); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		p.Logger.Info("xlsx exported", zap.String("path", path))
	}
	if o.HTMLFile != "" {
		path := filepath.Join(o.OutputDir, o.HTMLFile)
		if err := export.WriteHTMLFile(path, data, r.GeneratedAt); err != nil {
			return fmt.Errorf("export html: %w", err)
		}
		p.Logger.Info("html exported", zap.String("path", path))
	}
	return nil
}

// DefaultWindow clamps the configured window to the series length.
// It returns 0 when the series is too short for any average.
func DefaultWindow(configured, days int) int {
	if days < calculator.MinWindow {
		return 0
	}
	if configured > days {
		return days
	}
	if configured < calculator.MinWindow {
		return calculator.MinWindow
	}
	return configured
}
