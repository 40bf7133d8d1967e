package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"MarketBreadth/internal/dataset"
	"MarketBreadth/internal/model"
)

// Collector loads observations from a source and freezes them into a dataset.
type Collector struct {
	Source Source
	Logger *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(source Source, logger *zap.Logger) *Collector {
	return &Collector{Source: source, Logger: logger}
}

// Collect loads the basket and builds the immutable dataset.
func (c *Collector) Collect(ctx context.Context) (*dataset.Dataset, error) {
	obs, err := c.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.Source.Name(), err)
	}
	ds, err := dataset.New(obs)
	if err != nil {
		return nil, fmt.Errorf("build dataset from %s: %w", c.Source.Name(), err)
	}
	c.Logger.Info("dataset loaded",
		zap.String("source", c.Source.Name()),
		zap.Int("observations", ds.Len()),
		zap.Int("instruments", len(ds.Instruments())),
		zap.Int("days", len(ds.Days())),
	)
	return ds, nil
}

// StaticSource serves a fixed set of observations. Useful for tests and replays.
type StaticSource struct {
	Observations []model.PriceObservation
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load(_ context.Context) ([]model.PriceObservation, error) {
	return s.Observations, nil
}
