package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"MarketBreadth/internal/model"
)

// CSVSource reads observations from a CSV file with a header row.
// Recognized columns: stock|symbol|ticker, day|date, close, and optional open, high, low and volume.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source reading the file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Load(_ context.Context) ([]model.PriceObservation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses observations from r.
func ReadCSV(r io.Reader) ([]model.PriceObservation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)
	instCol, ok := cols.first("stock", "symbol", "ticker", "instrument")
	if !ok {
		return nil, errors.New("csv: missing stock/symbol column")
	}
	dayCol, ok := cols.first("day", "date")
	if !ok {
		return nil, errors.New("csv: missing day/date column")
	}
	closeCol, ok := cols.first("close")
	if !ok {
		return nil, errors.New("csv: missing close column")
	}
	optional := map[string]int{}
	for _, name := range []string{"open", "high", "low", "volume"} {
		if i, ok := cols.first(name); ok {
			optional[name] = i
		}
	}

	var out []model.PriceObservation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		day, err := parseDay(rec[dayCol])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		closePx, err := decimal.NewFromString(strings.TrimSpace(rec[closeCol]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: close %q: %w", line, rec[closeCol], err)
		}
		o := model.PriceObservation{
			Instrument: strings.TrimSpace(rec[instCol]),
			Day:        day,
			Close:      closePx,
		}
		for name, i := range optional {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				continue
			}
			switch name {
			case "open":
				o.Open = v
			case "high":
				o.High = v
			case "low":
				o.Low = v
			case "volume":
				o.Volume = v
			}
		}
		out = append(out, o)
	}
	return out, nil
}

type columns map[string]int

func columnIndex(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func (c columns) first(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := c[n]; ok {
			return i, true
		}
	}
	return 0, false
}
