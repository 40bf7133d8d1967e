package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"MarketBreadth/internal/logging"
	"MarketBreadth/internal/sentiment"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		Type    string   `yaml:"type"` // csv, sqlite or yahoo
		Path    string   `yaml:"path"`
		Table   string   `yaml:"table"`
		Symbols []string `yaml:"symbols"`
		Days    int      `yaml:"days"`
	} `yaml:"source"`
	Output struct {
		Dir      string `yaml:"dir"`
		CSV      bool   `yaml:"csv"`
		XLSX     bool   `yaml:"xlsx"`
		HTML     bool   `yaml:"html"`
		CSVFile  string `yaml:"csv_file"`
		XLSXFile string `yaml:"xlsx_file"`
		HTMLFile string `yaml:"html_file"`
		Title    string `yaml:"title"`
	} `yaml:"output"`
	Indicator struct {
		MAWindow int             `yaml:"ma_window"`
		Bands    sentiment.Bands `yaml:"bands"`
	} `yaml:"indicator"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Listen      string `yaml:"listen"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"server"`
	Log   logging.Config `yaml:"log"`
	Proxy string         `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("URSI_SOURCE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("URSI_INPUT"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("URSI_SYMBOLS"); v != "" {
		cfg.Source.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("URSI_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("URSI_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("URSI_REFRESH_CRON"); v != "" {
		cfg.Server.RefreshCron = v
	}
	if v := os.Getenv("URSI_MA_WINDOW"); v != "" {
		var w int
		if _, err := fmt.Sscanf(v, "%d", &w); err == nil {
			cfg.Indicator.MAWindow = w
		}
	}

	// Defaults
	if cfg.Source.Type == "" {
		cfg.Source.Type = "csv"
	}
	if cfg.Source.Path == "" && cfg.Source.Type == "csv" {
		cfg.Source.Path = "data/ohlcv.csv"
	}
	if cfg.Source.Table == "" {
		cfg.Source.Table = "ohlcv"
	}
	if cfg.Source.Days == 0 {
		cfg.Source.Days = 365
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if !cfg.Output.CSV && !cfg.Output.XLSX && !cfg.Output.HTML {
		cfg.Output.CSV, cfg.Output.XLSX, cfg.Output.HTML = true, true, true
	}
	if cfg.Output.CSVFile == "" {
		cfg.Output.CSVFile = "ursi_data.csv"
	}
	if cfg.Output.XLSXFile == "" {
		cfg.Output.XLSXFile = "ursi_analysis.xlsx"
	}
	if cfg.Output.HTMLFile == "" {
		cfg.Output.HTMLFile = "ursi_interactive_ma.html"
	}
	if cfg.Output.Title == "" {
		cfg.Output.Title = "URSI (Up/Down Relative Strength Index)"
	}
	if cfg.Indicator.MAWindow == 0 {
		cfg.Indicator.MAWindow = 20
	}
	if cfg.Indicator.Bands == (sentiment.Bands{}) {
		cfg.Indicator.Bands = sentiment.DefaultBands
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/market_breadth.db"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.RefreshCron == "" {
		cfg.Server.RefreshCron = "0 30 17 * * 1-5"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "csv", "sqlite":
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for %s source", c.Source.Type)
		}
	case "yahoo":
		if len(c.Source.Symbols) == 0 {
			return fmt.Errorf("source.symbols is required for yahoo source")
		}
	default:
		return fmt.Errorf("source.type must be csv, sqlite or yahoo, got %q", c.Source.Type)
	}
	if c.Source.Days <= 0 {
		return fmt.Errorf("source.days must be positive")
	}
	if c.Indicator.MAWindow < 2 {
		return fmt.Errorf("indicator.ma_window must be at least 2")
	}
	if err := c.Indicator.Bands.Validate(); err != nil {
		return fmt.Errorf("indicator.bands: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
