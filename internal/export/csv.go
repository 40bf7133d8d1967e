package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/guregu/null/v6"

	"MarketBreadth/internal/model"
)

// CSVHeader lists the columns of the daily breadth file.
var CSVHeader = []string{
	"date", "advancing_stocks", "declining_stocks", "unchanged_stocks", "total_stocks", "URSI",
}

// WriteCSV writes one row per day. A day without a URSI value gets an empty cell.
func WriteCSV(w io.Writer, series []model.DailyBreadth) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range series {
		rec := []string{
			b.Day.Format(dateLayout),
			strconv.Itoa(b.Advancing),
			strconv.Itoa(b.Declining),
			strconv.Itoa(b.Unchanged),
			strconv.Itoa(b.Total),
			formatValue(b.URSI, 4),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates (or truncates) path and writes the series to it.
func WriteCSVFile(path string, series []model.DailyBreadth) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, series); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v null.Float, prec int) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', prec, 64)
}
