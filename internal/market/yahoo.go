package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ragoalert/internal/models"
	"ragoalert/pkg/utils"
)

// nasdaqSeed is the candidate pool for volume ranking.
var nasdaqSeed = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "TSLA", "AVGO",
	"COST", "NFLX", "AMD", "PEP", "ADBE", "CSCO", "QCOM", "INTC",
	"TXN", "AMAT", "INTU", "BKNG", "MU", "LRCX", "ADI", "PANW",
	"ABNB", "MRVL", "KLAC", "SNPS", "CDNS", "PDD",
}

// YahooClient talks to the Yahoo Finance chart and quote endpoints.
// Requests are retried with exponential backoff.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewYahooClient creates a client with sane timeouts.
func NewYahooClient(logger zerolog.Logger) *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://query1.finance.yahoo.com",
		retry:      utils.DefaultRetryConfig(),
		logger:     logger.With().Str("component", "yahoo").Logger(),
	}
}

// NewYahooClientWithBaseURL is used in tests to point the client at a
// stub server.
func NewYahooClientWithBaseURL(baseURL string, logger zerolog.Logger) *YahooClient {
	c := NewYahooClient(logger)
	c.baseURL = baseURL
	c.retry.MaxAttempts = 1
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Price returns the latest regular market price for a symbol.
func (c *YahooClient) Price(ctx context.Context, symbol string) (float64, error) {
	resp, err := utils.RetryWithResult(ctx, c.retry, func() (*chartResponse, error) {
		return c.fetchChart(ctx, symbol, "1d", "1m")
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return resp.Chart.Result[0].Meta.RegularMarketPrice, nil
}

// DailyCandles returns up to days daily candles, oldest first. Rows
// with a missing close are skipped.
func (c *YahooClient) DailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	resp, err := utils.RetryWithResult(ctx, c.retry, func() (*chartResponse, error) {
		return c.fetchChart(ctx, symbol, rangeForDays(days), "1d")
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return candles, nil
}

// TopByVolume ranks the seed pool by last-session volume and returns
// the top n symbols. Symbols whose quote fails are skipped.
func (c *YahooClient) TopByVolume(ctx context.Context, n int) ([]string, error) {
	type ranked struct {
		symbol string
		volume int64
	}

	results := make([]ranked, 0, len(nasdaqSeed))
	for _, symbol := range nasdaqSeed {
		resp, err := c.fetchChart(ctx, symbol, "1d", "1d")
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("ranking fetch failed")
			continue
		}
		if len(resp.Chart.Result) == 0 {
			continue
		}
		results = append(results, ranked{symbol, resp.Chart.Result[0].Meta.RegularMarketVolume})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: ranking pool empty", ErrNoData)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].volume > results[j].volume
	})
	if n > len(results) {
		n = len(results)
	}
	symbols := make([]string, n)
	for i := 0; i < n; i++ {
		symbols[i] = results[i].symbol
	}
	return symbols, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, rangeParam, interval string) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), rangeParam, interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ragoalert/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", symbol, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("fetching %s: %s", symbol, parsed.Chart.Error.Description)
	}
	return &parsed, nil
}

func rangeForDays(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	default:
		return "1y"
	}
}

// IsAggregateRef reports whether a symbol is an aggregate reference
// that needs ranking expansion.
func IsAggregateRef(symbol string) bool {
	return strings.EqualFold(symbol, "TOP_NASDAQ")
}
