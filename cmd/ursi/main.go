package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"MarketBreadth/internal/collector"
	"MarketBreadth/internal/config"
	"MarketBreadth/internal/logging"
	"MarketBreadth/internal/metrics"
	"MarketBreadth/internal/notifier"
	"MarketBreadth/internal/pipeline"
	"MarketBreadth/internal/recorder"
	"MarketBreadth/internal/scheduler"
	"MarketBreadth/internal/server"
)

const usage = `usage: ursi [-config path] <command>

commands:
  run     compute the indicator once and write the enabled exports
  serve   compute, then serve the dashboard and API, refreshing on schedule
`

func main() {
	_ = godotenv.Load()
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

// realMain returns the process exit code so deferred cleanup runs before os.Exit.
func realMain(args []string, stderr io.Writer) int {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	fs := flag.NewFlagSet("ursi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	command := "run"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}
	if command != "run" && command != "serve" {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config validation: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg, logger); err != nil {
		logger.Error("ursi failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, command string, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("ursi starting", zap.String("command", command), zap.String("source", cfg.Source.Type))

	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	col := collector.NewCollector(source, logger)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var tn *notifier.TelegramNotifier
	var nt notifier.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		nt = tn
	}

	m := metrics.New()
	p := pipeline.New(col, rec, nt, m, pipelineOptions(cfg), logger)

	if command == "run" {
		report, err := p.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("run complete",
			zap.String("run_id", report.RunID.String()),
			zap.Int("trading_days", len(report.Series)),
			zap.String("output_dir", cfg.Output.Dir),
		)
		return nil
	}

	reports := &pipeline.Holder{}
	sched := scheduler.NewScheduler(ctx, p, reports, logger)
	if err := sched.RunNow(); err != nil {
		logger.Error("initial run failed, serving once a refresh succeeds", zap.Error(err))
	}
	if err := sched.Register(cfg.Server.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	srv := server.New(reports, m, logger, server.WithAddr(cfg.Server.Listen))
	return srv.Start(ctx)
}

func newSource(cfg *config.Config, logger *zap.Logger) (collector.Source, error) {
	switch cfg.Source.Type {
	case "csv":
		return collector.NewCSVSource(cfg.Source.Path), nil
	case "sqlite":
		return collector.NewSQLiteSource(cfg.Source.Path, cfg.Source.Table), nil
	case "yahoo":
		return collector.NewYahooSource(cfg.Source.Symbols, cfg.Source.Days, cfg.Proxy, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		Title:         cfg.Output.Title,
		MAWindow:      cfg.Indicator.MAWindow,
		Bands:         cfg.Indicator.Bands,
		OutputDir:     cfg.Output.Dir,
		NotifyRetries: 3,
	}
	if cfg.Output.CSV {
		opts.CSVFile = cfg.Output.CSVFile
	}
	if cfg.Output.XLSX {
		opts.XLSXFile = cfg.Output.XLSXFile
	}
	if cfg.Output.HTML {
		opts.HTMLFile = cfg.Output.HTMLFile
	}
	return opts
}
