package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"MarketBreadth/internal/model"
)

const dayLayout = "2006-01-02"

// SQLiteRecorder persists run metadata and the daily breadth history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			started_at    INTEGER NOT NULL,
			source        TEXT,
			instruments   INTEGER,
			observations  INTEGER,
			trading_days  INTEGER,
			defined_days  INTEGER,
			first_day     TEXT,
			last_day      TEXT,
			mean_ursi     REAL,
			latest_ursi   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS daily_breadth (
			day        TEXT PRIMARY KEY,
			advancing  INTEGER NOT NULL,
			declining  INTEGER NOT NULL,
			unchanged  INTEGER NOT NULL,
			total      INTEGER NOT NULL,
			ursi       REAL,
			run_id     TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run row and replaces the stored days inside the run's range
// with its series, in one transaction. Days before or after that range are kept.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	var firstDay, lastDay null.String
	if sum.TradingDays > 0 {
		firstDay = null.StringFrom(sum.Start.Format(dayLayout))
		lastDay = null.StringFrom(sum.End.Format(dayLayout))
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, source, instruments, observations, trading_days, defined_days,
		 first_day, last_day, mean_ursi, latest_ursi)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID.String(), run.StartedAt.Unix(), run.Source, run.Instruments, run.Observations,
		sum.TradingDays, sum.DefinedDays, firstDay, lastDay, sum.Mean, sum.Latest.URSI,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if n := len(run.Series); n > 0 {
		from, to := run.Series[0].Day.Format(dayLayout), run.Series[n-1].Day.Format(dayLayout)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM daily_breadth WHERE day BETWEEN ? AND ?`, from, to); err != nil {
			return fmt.Errorf("clear %s..%s: %w", from, to, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_breadth
		(day, advancing, declining, unchanged, total, ursi, run_id)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(day) DO UPDATE SET
			advancing = excluded.advancing,
			declining = excluded.declining,
			unchanged = excluded.unchanged,
			total     = excluded.total,
			ursi      = excluded.ursi,
			run_id    = excluded.run_id`)
	if err != nil {
		return fmt.Errorf("prepare daily_breadth: %w", err)
	}
	defer stmt.Close()

	for _, b := range run.Series {
		if _, err := stmt.ExecContext(ctx, b.Day.Format(dayLayout),
			b.Advancing, b.Declining, b.Unchanged, b.Total, b.URSI, run.ID.String()); err != nil {
			return fmt.Errorf("upsert %s: %w", b.Day.Format(dayLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("run recorded", zap.String("run_id", run.ID.String()), zap.Int("days", len(run.Series)))
	return nil
}

// History returns the stored breadth series in ascending day order.
func (r *SQLiteRecorder) History(ctx context.Context) ([]model.DailyBreadth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT day, advancing, declining, unchanged, total, ursi FROM daily_breadth ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.DailyBreadth
	for rows.Next() {
		var (
			day string
			b   model.DailyBreadth
		)
		if err := rows.Scan(&day, &b.Advancing, &b.Declining, &b.Unchanged, &b.Total, &b.URSI); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if b.Day, err = time.Parse(dayLayout, day); err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RunCount returns the number of recorded runs.
func (r *SQLiteRecorder) RunCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
