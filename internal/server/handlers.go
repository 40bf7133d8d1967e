package server

import (
	"bytes"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"MarketBreadth/internal/calculator"
	"MarketBreadth/internal/export"
	"MarketBreadth/internal/model"
	"MarketBreadth/internal/sentiment"
)

// BreadthRequest filters the daily series.
type BreadthRequest struct {
	From  string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Order string `query:"order" default:"asc" validate:"oneof=asc desc"`
}

// MARequest selects a moving-average window. A missing window means the report's default.
type MARequest struct {
	Window int `query:"window"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Min     int               `json:"min,omitempty"`
	Max     int               `json:"max,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type breadthResponse struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Rows        []model.DailyBreadth `json:"rows"`
}

type summaryResponse struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Source      string                 `json:"source"`
	Instruments int                    `json:"instruments"`
	Zone        sentiment.Zone         `json:"zone"`
	Bands       sentiment.Bands        `json:"bands"`
	Summary     model.Summary          `json:"summary"`
	Monthly     []model.MonthlyAverage `json:"monthly"`
	MAWindow    int                    `json:"ma_window"`
	MALatest    null.Float             `json:"ma_latest"`
}

type maResponse struct {
	Window int          `json:"window"`
	Dates  []string     `json:"dates"`
	Values []null.Float `json:"values"`
}

func notReady(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Code: "ERR_NOT_READY", Message: "no report computed yet",
	})
}

// Dashboard renders the interactive HTML page for the latest report.
func (s *Server) Dashboard(c echo.Context) error {
	r := s.reports.Current()
	if r == nil {
		return c.String(http.StatusServiceUnavailable, "no report computed yet")
	}
	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, r.ExportData(), export.HTMLOptions{
		Interactive: true,
		APIPath:     "api/ma",
		GeneratedAt: r.GeneratedAt,
	}); err != nil {
		s.logger.Error("render dashboard", zap.Error(err))
		return c.String(http.StatusInternalServerError, "something went wrong")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Breadth returns the daily rows, optionally limited to a date range.
func (s *Server) Breadth(c echo.Context) error {
	req := &BreadthRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "ERR_VALIDATION", Message: "invalid request", Errors: verr})
	}
	r := s.reports.Current()
	if r == nil {
		return notReady(c)
	}

	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)
	rows := make([]model.DailyBreadth, 0, len(r.Series))
	for _, b := range r.Series {
		if req.From != "" && b.Day.Before(from) {
			continue
		}
		if req.To != "" && b.Day.After(to) {
			continue
		}
		rows = append(rows, b)
	}
	if req.Order == "desc" {
		slices.Reverse(rows)
	}

	return c.JSON(http.StatusOK, breadthResponse{
		RunID:       r.RunID.String(),
		GeneratedAt: r.GeneratedAt,
		Rows:        rows,
	})
}

// Summary returns the statistics, monthly averages and latest zone.
func (s *Server) Summary(c echo.Context) error {
	r := s.reports.Current()
	if r == nil {
		return notReady(c)
	}
	return c.JSON(http.StatusOK, summaryResponse{
		RunID:       r.RunID.String(),
		GeneratedAt: r.GeneratedAt,
		Source:      r.Source,
		Instruments: r.Instruments,
		Zone:        r.Bands.Classify(r.Summary.Latest.URSI),
		Bands:       r.Bands,
		Summary:     r.Summary,
		Monthly:     r.Monthly,
		MAWindow:    r.DefaultMA.Window,
		MALatest:    r.DefaultMA.Last(),
	})
}

// MovingAverage recomputes the rolling mean of the current series for the requested window.
func (s *Server) MovingAverage(c echo.Context) error {
	req := &MARequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		s.recordMA(true)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "ERR_VALIDATION", Message: "invalid request", Errors: verr})
	}
	r := s.reports.Current()
	if r == nil {
		return notReady(c)
	}
	if c.QueryParam("window") == "" {
		req.Window = r.DefaultMA.Window
	}

	ma, err := r.MovingAverage(req.Window)
	if err != nil {
		s.recordMA(true)
		var we *calculator.WindowError
		if errors.As(err, &we) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "ERR_INVALID_PARAMETER",
				Message: err.Error(),
				Min:     we.Min,
				Max:     we.Max,
			})
		}
		s.logger.Error("moving average", zap.Int("window", req.Window), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "ERR_INTERNAL", Message: "something went wrong"})
	}
	s.recordMA(false)

	dates := make([]string, len(r.Series))
	for i, b := range r.Series {
		dates[i] = b.Day.Format(time.DateOnly)
	}
	return c.JSON(http.StatusOK, maResponse{Window: ma.Window, Dates: dates, Values: ma.Values})
}

// Health reports liveness and whether a report is available.
func (s *Server) Health(c echo.Context) error {
	body := map[string]any{"status": "ok", "ready": false}
	if r := s.reports.Current(); r != nil {
		body["ready"] = true
		body["run_id"] = r.RunID.String()
		body["generated_at"] = r.GeneratedAt
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) recordMA(invalid bool) {
	if s.metrics != nil {
		s.metrics.RecordMARequest(invalid)
	}
}
