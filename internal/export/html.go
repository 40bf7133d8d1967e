package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"MarketBreadth/internal/calculator"
	"MarketBreadth/internal/model"
	"MarketBreadth/internal/sentiment"
)

//go:embed templates/dashboard.html
var dashboardTemplate string

var dashboard = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct":  pct,
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(dashboardTemplate))

// HTMLOptions controls how the dashboard recomputes the moving average.
// An interactive page asks the API; a static one carries every valid window precomputed.
type HTMLOptions struct {
	Interactive bool
	APIPath     string
	GeneratedAt time.Time
}

// chartData is serialized into the page as JSON by html/template.
type chartData struct {
	Title       string       `json:"title"`
	Dates       []string     `json:"dates"`
	URSI        []null.Float `json:"ursi"`
	Counts      [][4]int     `json:"counts"`
	MA          []null.Float `json:"ma"`
	MAWindow    int          `json:"maWindow"`
	MinWindow   int          `json:"minWindow"`
	Latest      null.Float   `json:"latest"`
	Overbought  float64      `json:"overbought"`
	Oversold    float64      `json:"oversold"`
	Neutral     float64      `json:"neutral"`
	Interactive bool         `json:"interactive"`
	APIPath     string       `json:"apiPath"`
	// Windows maps each valid window to its average. Only filled for static pages.
	Windows map[int][]null.Float `json:"windows,omitempty"`
}

type dashboardView struct {
	Data
	Chart       chartData
	Zone        string
	MinWindow   int
	GeneratedAt string
}

// WriteHTML renders the dashboard page.
func WriteHTML(w io.Writer, d Data, opts HTMLOptions) error {
	chart := chartData{
		Title:       d.Title,
		Dates:       make([]string, len(d.Series)),
		URSI:        calculator.Values(d.Series),
		Counts:      make([][4]int, len(d.Series)),
		MA:          d.MA.Values,
		MAWindow:    d.MA.Window,
		MinWindow:   calculator.MinWindow,
		Latest:      d.Summary.Latest.URSI,
		Overbought:  d.Bands.Overbought,
		Oversold:    d.Bands.Oversold,
		Neutral:     sentiment.Neutral,
		Interactive: opts.Interactive,
		APIPath:     opts.APIPath,
	}
	for i, b := range d.Series {
		chart.Dates[i] = b.Day.Format(dateLayout)
		chart.Counts[i] = [4]int{b.Advancing, b.Declining, b.Unchanged, b.Total}
	}
	if chart.MA == nil {
		chart.MA = make([]null.Float, len(d.Series))
	}
	if !opts.Interactive {
		windows, err := allWindows(d.Series)
		if err != nil {
			return err
		}
		chart.Windows = windows
	}

	view := dashboardView{
		Data:        d,
		Chart:       chart,
		Zone:        sentiment.Describe[d.Bands.Classify(d.Summary.Latest.URSI)],
		MinWindow:   calculator.MinWindow,
		GeneratedAt: opts.GeneratedAt.Format("2006-01-02 15:04"),
	}

	var buf bytes.Buffer
	if err := dashboard.Execute(&buf, view); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// WriteHTMLFile writes a static dashboard to path.
func WriteHTMLFile(path string, d Data, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteHTML(f, d, HTMLOptions{GeneratedAt: generatedAt}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// allWindows computes the average for every window from MinWindow to the series length.
func allWindows(series []model.DailyBreadth) (map[int][]null.Float, error) {
	out := make(map[int][]null.Float)
	for w := calculator.MinWindow; w <= len(series); w++ {
		ma, err := calculator.MovingAverage(series, w)
		if err != nil {
			return nil, fmt.Errorf("moving average %d: %w", w, err)
		}
		out[w] = ma.Values
	}
	return out, nil
}

func pct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.Float64, 'f', 2, 64) + "%"
}
