package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"MarketBreadth/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource fetches daily bars for every instrument of a basket from the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL string
	Symbols []string
	Days    int
	Client  *http.Client
	Logger  *zap.Logger
}

// NewYahooSource creates a Yahoo source with optional proxy support.
func NewYahooSource(symbols []string, days int, proxyURL string, logger *zap.Logger) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		BaseURL: yahooBaseURL,
		Symbols: symbols,
		Days:    days,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Logger: logger,
	}
}

func (f *YahooSource) Name() string { return "yahoo" }

// Load fetches each symbol in turn. A failing symbol is skipped; the load fails only if all do.
func (f *YahooSource) Load(ctx context.Context) ([]model.PriceObservation, error) {
	var out []model.PriceObservation
	var lastErr error
	for _, sym := range f.Symbols {
		bars, err := f.FetchDailyBars(ctx, sym, f.Days)
		if err != nil {
			lastErr = err
			f.Logger.Warn("yahoo fetch failed, skipping instrument", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		for _, b := range bars {
			out = append(out, model.FromBar(sym, b))
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("yahoo: no instrument loaded: %w", lastErr)
	}
	return out, nil
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

func (f *YahooSource) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	// Bars are stamped at the session open; read them in exchange time so the trading day is the local one.
	loc := time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns up to days of the most recent daily bars for symbol.
func (f *YahooSource) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "10y"
	switch {
	case days <= 30:
		rng = "1mo"
	case days <= 90:
		rng = "3mo"
	case days <= 180:
		rng = "6mo"
	case days <= 365:
		rng = "1y"
	case days <= 730:
		rng = "2y"
	case days <= 1825:
		rng = "5y"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	// Trim to requested count
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}
