package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketBreadth/internal/model"
)

// Recorder exposes breadth and pipeline metrics on its own registry.
type Recorder struct {
	registry     *prometheus.Registry
	ursi         prometheus.Gauge
	ursiDefined  prometheus.Gauge
	instruments  *prometheus.GaugeVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	maRequests   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ursi: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ursi_latest",
			Help: "URSI of the most recent trading day",
		}),
		ursiDefined: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ursi_latest_defined",
			Help: "1 when the most recent trading day has a URSI value, 0 otherwise",
		}),
		instruments: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ursi_latest_instruments",
			Help: "Instruments on the most recent trading day by status",
		}, []string{"status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ursi_pipeline_runs_total",
			Help: "Pipeline runs by result",
		}, []string{"result"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ursi_pipeline_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		maRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ursi_moving_average_requests_total",
			Help: "Moving-average recompute requests by result",
		}, []string{"result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// RecordLatest publishes the most recent day's reading.
func (r *Recorder) RecordLatest(b model.DailyBreadth) {
	r.setURSI(b.URSI)
	r.instruments.WithLabelValues(model.StatusAdvancing.String()).Set(float64(b.Advancing))
	r.instruments.WithLabelValues(model.StatusDeclining.String()).Set(float64(b.Declining))
	r.instruments.WithLabelValues(model.StatusUnchanged.String()).Set(float64(b.Unchanged))
}

func (r *Recorder) setURSI(v null.Float) {
	if !v.Valid {
		r.ursiDefined.Set(0)
		return
	}
	r.ursiDefined.Set(1)
	r.ursi.Set(v.Float64)
}

// RecordRun counts a pipeline run and its duration.
func (r *Recorder) RecordRun(err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.runs.WithLabelValues(result).Inc()
	r.runDuration.Observe(d.Seconds())
}

// RecordMARequest counts a moving-average request; invalid is true when the window was rejected.
func (r *Recorder) RecordMARequest(invalid bool) {
	result := "ok"
	if invalid {
		result = "invalid"
	}
	r.maRequests.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency using the route template as label.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
