package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketBreadth/internal/collector"
	"MarketBreadth/internal/metrics"
	"MarketBreadth/internal/model"
	"MarketBreadth/internal/notifier"
	"MarketBreadth/internal/recorder"
	"MarketBreadth/internal/sentiment"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

type failingRecorder struct{}

func (failingRecorder) RecordRun(context.Context, *recorder.Run) error {
	return errors.New("disk full")
}

func (failingRecorder) Close() error { return nil }

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Load(context.Context) ([]model.PriceObservation, error) {
	return nil, errors.New("unreachable")
}

// basket builds observations for instruments over consecutive days.
func basket(closes map[string][]float64) *collector.StaticSource {
	src := &collector.StaticSource{}
	for inst, cs := range closes {
		for i, c := range cs {
			src.Observations = append(src.Observations, model.PriceObservation{
				Instrument: inst,
				Day:        time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC),
				Close:      decimal.NewFromFloat(c),
			})
		}
	}
	return src
}

func newPipeline(t *testing.T, src collector.Source, rec recorder.Recorder, n *fakeNotifier, opts Options) *Pipeline {
	t.Helper()
	logger := zap.NewNop()
	var nt notifier.Notifier
	if n != nil {
		nt = n
	}
	p := New(collector.NewCollector(src, logger), rec, nt, metrics.New(), opts, logger)
	p.now = func() time.Time { return time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC) }
	return p
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	src := basket(map[string][]float64{
		"A": {10, 11, 12, 11, 12},
		"B": {20, 19, 19, 20, 21},
		"C": {30, 31, 30, 30, 29},
	})
	n := &fakeNotifier{}
	opts := Options{
		Title: "URSI", MAWindow: 3, Bands: sentiment.DefaultBands,
		OutputDir: dir, CSVFile: "ursi.csv", XLSXFile: "ursi.xlsx", HTMLFile: "ursi.html",
	}

	report, err := newPipeline(t, src, nil, n, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "static", report.Source)
	assert.Equal(t, 3, report.Instruments)
	assert.Equal(t, 15, report.Observations)
	require.Len(t, report.Series, 4, "first day carries no prior close")
	assert.Equal(t, 3, report.DefaultMA.Window)
	assert.Len(t, report.DefaultMA.Values, 4)
	assert.Equal(t, 4, report.Summary.TradingDays)

	for _, name := range []string{"ursi.csv", "ursi.xlsx", "ursi.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "MA-3")
}

func TestPipeline_ClampsDefaultWindow(t *testing.T) {
	src := basket(map[string][]float64{"A": {1, 2, 3}, "B": {3, 2, 1}})
	report, err := newPipeline(t, src, nil, nil, Options{MAWindow: 20, Bands: sentiment.DefaultBands}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Series, 2)
	assert.Equal(t, 2, report.DefaultMA.Window)
}

func TestPipeline_ShortSeriesHasNoAverage(t *testing.T) {
	src := basket(map[string][]float64{"A": {1, 2}})
	report, err := newPipeline(t, src, nil, nil, Options{MAWindow: 20, Bands: sentiment.DefaultBands}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Series, 1)
	assert.Zero(t, report.DefaultMA.Window)

	_, err = report.MovingAverage(2)
	require.Error(t, err)
}

func TestPipeline_SideEffectFailuresAreNotFatal(t *testing.T) {
	src := basket(map[string][]float64{"A": {1, 2, 3}})
	n := &fakeNotifier{err: errors.New("telegram down")}
	report, err := newPipeline(t, src, failingRecorder{}, n, Options{MAWindow: 2, Bands: sentiment.DefaultBands}).Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report)
	assert.Len(t, n.sent, 1)
}

func TestPipeline_NotifiesOncePerLatestDay(t *testing.T) {
	src := basket(map[string][]float64{"A": {1, 2, 3}, "B": {3, 2, 1}})
	n := &fakeNotifier{}
	p := newPipeline(t, src, nil, n, Options{MAWindow: 2, Bands: sentiment.DefaultBands})

	for i := 0; i < 3; i++ {
		_, err := p.Run(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, n.sent, 1, "refreshes over the same latest day stay quiet")

	src.Observations = append(src.Observations,
		model.PriceObservation{Instrument: "A", Day: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromFloat(4)},
		model.PriceObservation{Instrument: "B", Day: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromFloat(2)},
	)
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.sent, 2, "a new trading day is announced")
}

func TestPipeline_RetriesNotificationAfterFailure(t *testing.T) {
	src := basket(map[string][]float64{"A": {1, 2, 3}})
	n := &fakeNotifier{err: errors.New("telegram down")}
	p := newPipeline(t, src, nil, n, Options{MAWindow: 2, Bands: sentiment.DefaultBands})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	n.err = nil
	_, err = p.Run(context.Background())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.sent, 2)
}

func TestPipeline_CollectFailure(t *testing.T) {
	_, err := newPipeline(t, failingSource{}, nil, nil, Options{Bands: sentiment.DefaultBands}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestPipeline_RecordsHistory(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "h.db"), zap.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	src := basket(map[string][]float64{"A": {1, 2, 2}, "B": {5, 4, 4}})
	_, err = newPipeline(t, src, rec, nil, Options{MAWindow: 2, Bands: sentiment.DefaultBands}).Run(context.Background())
	require.NoError(t, err)

	hist, err := rec.History(context.Background())
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.False(t, hist[1].URSI.Valid)
}

func TestDefaultWindow(t *testing.T) {
	tests := []struct {
		configured, days, want int
	}{
		{20, 100, 20},
		{20, 5, 5},
		{0, 5, 2},
		{20, 1, 0},
		{20, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultWindow(tt.configured, tt.days), "configured=%d days=%d", tt.configured, tt.days)
	}
}

func TestHolder(t *testing.T) {
	var h Holder
	assert.Nil(t, h.Current())
	r := &Report{Title: "x"}
	h.Set(r)
	assert.Same(t, r, h.Current())
}
