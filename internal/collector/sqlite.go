package collector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"MarketBreadth/internal/model"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads observations from a table with stock, day and close columns.
type SQLiteSource struct {
	Path  string
	Table string
}

// NewSQLiteSource creates a source over the given database file and table.
func NewSQLiteSource(path, table string) *SQLiteSource {
	return &SQLiteSource{Path: path, Table: table}
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Load(ctx context.Context) ([]model.PriceObservation, error) {
	if !tableName.MatchString(s.Table) {
		return nil, fmt.Errorf("sqlite source: invalid table name %q", s.Table)
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT stock, day, close FROM %s`, s.Table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rows.Close()

	var out []model.PriceObservation
	for rows.Next() {
		var inst, dayStr, closeStr string
		if err := rows.Scan(&inst, &dayStr, &closeStr); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		day, err := parseDay(dayStr)
		if err != nil {
			return nil, fmt.Errorf("%s row %s: %w", s.Table, inst, err)
		}
		closePx, err := decimal.NewFromString(closeStr)
		if err != nil {
			return nil, fmt.Errorf("%s row %s %s: close %q: %w", s.Table, inst, dayStr, closeStr, err)
		}
		out = append(out, model.PriceObservation{Instrument: inst, Day: day, Close: closePx})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.Table, err)
	}
	return out, nil
}
