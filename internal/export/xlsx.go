package export

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"github.com/xuri/excelize/v2"

	"MarketBreadth/internal/calculator"
)

const (
	SheetDaily   = "URSI_Daily"
	SheetSummary = "Summary"
	SheetMonthly = "Monthly_Averages"
)

// WriteXLSX writes the workbook with daily, summary and monthly sheets.
func WriteXLSX(path string, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDaily); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	if err := writeDaily(f, d); err != nil {
		return fmt.Errorf("%s: %w", SheetDaily, err)
	}
	if err := writeRows(f, SheetSummary, summaryRows(d)); err != nil {
		return fmt.Errorf("%s: %w", SheetSummary, err)
	}
	if err := writeRows(f, SheetMonthly, monthlyRows(d)); err != nil {
		return fmt.Errorf("%s: %w", SheetMonthly, err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeDaily(f *excelize.File, d Data) error {
	header := []any{"date", "advancing_stocks", "declining_stocks", "unchanged_stocks", "total_stocks", "URSI"}

	// Standard windows longer than the series are left out.
	values := calculator.Values(d.Series)
	var mas [][]null.Float
	for _, w := range calculator.DefaultWindows {
		ma, err := calculator.CalculateSMA(values, w)
		if err != nil {
			continue
		}
		header = append(header, fmt.Sprintf("MA_%d", w))
		mas = append(mas, ma.Values)
	}

	rows := [][]any{header}
	for i, b := range d.Series {
		row := []any{b.Day.Format(dateLayout), b.Advancing, b.Declining, b.Unchanged, b.Total, cell(b.URSI)}
		for _, ma := range mas {
			row = append(row, cell(ma[i]))
		}
		rows = append(rows, row)
	}
	return writeRows(f, SheetDaily, rows)
}

func summaryRows(d Data) [][]any {
	s := d.Summary
	start, end := "", ""
	if s.TradingDays > 0 {
		start, end = s.Start.Format(dateLayout), s.End.Format(dateLayout)
	}
	return [][]any{
		{"Metric", "Value"},
		{"Start Date", start},
		{"End Date", end},
		{"Total Trading Days", s.TradingDays},
		{"Average URSI", formatValue(s.Mean, 2)},
		{"Median URSI", formatValue(s.Median, 2)},
		{"Min URSI", formatValue(s.Min, 2)},
		{"Max URSI", formatValue(s.Max, 2)},
		{"Standard Deviation", formatValue(s.StdDev, 2)},
		{fmt.Sprintf("Days Above %g (Overbought)", d.Bands.Overbought), s.DaysOverbought},
		{fmt.Sprintf("Days Below %g (Oversold)", d.Bands.Oversold), s.DaysOversold},
		{fmt.Sprintf("Days in Neutral Zone (%g-%g)", d.Bands.Oversold, d.Bands.Overbought), s.DaysNeutral},
		{"Current URSI", formatValue(s.Latest.URSI, 2)},
		{"Current Advancing Stocks", s.Latest.Advancing},
		{"Current Declining Stocks", s.Latest.Declining},
		{"Current Unchanged Stocks", s.Latest.Unchanged},
	}
}

func monthlyRows(d Data) [][]any {
	rows := [][]any{{"Month", "Avg_URSI", "Avg_Advancing", "Avg_Declining", "Avg_Unchanged"}}
	for _, m := range d.Monthly {
		var ursi any
		if m.URSI.Valid {
			ursi = round2(m.URSI.Float64)
		}
		rows = append(rows, []any{
			m.Month.Format(dateLayout), ursi,
			round2(m.Advancing), round2(m.Declining), round2(m.Unchanged),
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// cell leaves the spreadsheet cell blank for a missing value.
func cell(v null.Float) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
