package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketBreadth/internal/notifier"
	"MarketBreadth/internal/pipeline"
)

// Runner produces a fresh report.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Scheduler refreshes the served report on a cron schedule.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  Runner
	Reports *pipeline.Holder
	Logger  *zap.Logger
	Ctx     context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping scheduled runs are skipped.
func NewScheduler(ctx context.Context, runner Runner, reports *pipeline.Holder, logger *zap.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		Runner:  runner,
		Reports: reports,
		Logger:  logger,
		Ctx:     ctx,
	}
}

// Register adds the refresh job on the given six-field cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes a refresh immediately. A failed run keeps the previous report.
func (s *Scheduler) RunNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.Runner.Run(s.Ctx)
	if err != nil {
		return err
	}
	s.Reports.Set(report)
	s.Logger.Info("report refreshed",
		zap.String("run_id", report.RunID.String()),
		zap.Int("trading_days", len(report.Series)),
	)
	return nil
}

func (s *Scheduler) refreshTask() {
	s.Logger.Info("running scheduled refresh")
	if err := s.RunNow(); err != nil {
		s.Logger.Error("scheduled refresh failed, keeping previous report", zap.Error(err))
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/ursi", "/latest":
		if r := s.Reports.Current(); r != nil {
			return r.Message()
		}
		return "No report computed yet."
	case "/refresh":
		if err := s.RunNow(); err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return s.Reports.Current().Message()
	default:
		return notifier.FormatHelp()
	}
}
