package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"MarketBreadth/internal/model"
)

// Run holds everything persisted for one pipeline execution.
type Run struct {
	ID           uuid.UUID
	StartedAt    time.Time
	Source       string
	Instruments  int
	Observations int
	Series       []model.DailyBreadth
	Summary      model.Summary
}

// NewRun stamps a run with a fresh id.
func NewRun(source string, startedAt time.Time) *Run {
	return &Run{ID: uuid.New(), StartedAt: startedAt, Source: source}
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
	Close() error
}
