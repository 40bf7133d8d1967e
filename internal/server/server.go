package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"MarketBreadth/internal/metrics"
	"MarketBreadth/internal/pipeline"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the dashboard and the breadth API from the latest report.
type Server struct {
	echo    *echo.Echo
	config  *ServerConfig
	reports *pipeline.Holder
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New creates the HTTP server. m may be nil, in which case /metrics is not exposed.
func New(reports *pipeline.Holder, m *metrics.Recorder, logger *zap.Logger, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &Server{echo: e, config: cfg, reports: reports, metrics: m, logger: logger}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			}
			if v.Error != nil {
				logger.Warn("http request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("http request", fields...)
			return nil
		},
	}))
	if m != nil {
		e.Use(m.Middleware())
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	s.RegisterRoutes(e)
	return s
}

// RegisterRoutes wires the dashboard and API handlers.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Dashboard)
	e.GET("/healthz", s.Health)

	g := e.Group("/api")
	g.GET("/breadth", s.Breadth)
	g.GET("/summary", s.Summary)
	g.GET("/ma", s.MovingAverage)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.config.Addr))
		if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info("http server stopped gracefully")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(c *ServerConfig) {
		c.Addr = addr
	}
}

// WithTimeouts sets read/write/shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}
