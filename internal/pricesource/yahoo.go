package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"EtfSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// YahooSource fetches the latest close from the Yahoo Finance public API.
type YahooSource struct {
	Client    *http.Client
	SymbolMap map[string]string // maps internal ticker to Yahoo symbol
}

// NewYahooSource creates a new Yahoo Finance source with optional proxy support.
func NewYahooSource(proxyURL string) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) yahooSymbol(ticker string) string {
	if mapped, ok := s.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// LatestPrice fetches a few days of daily closes and returns the newest
// non-null one, so a holiday or a not-yet-opened session doesn't blank out.
func (s *YahooSource) LatestPrice(ctx context.Context, ticker string) (model.PriceSample, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=5d",
		url.PathEscape(s.yahooSymbol(ticker)))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return model.PriceSample{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSample{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.PriceSample{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.PriceSample{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.PriceSample{}, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.PriceSample{}, fmt.Errorf("yahoo: no quote data")
	}
	closes := result.Indicators.Quote[0].Close

	// Walk backwards to the newest non-null close.
	for i := len(result.Timestamp) - 1; i >= 0; i-- {
		if i >= len(closes) {
			continue
		}
		c := toFloat(closes[i])
		if c <= 0 {
			continue
		}
		return model.PriceSample{
			Ticker:     ticker,
			Price:      decimal.NewFromFloat(c),
			ObservedAt: time.Unix(result.Timestamp[i], 0),
		}, nil
	}
	return model.PriceSample{}, fmt.Errorf("yahoo: no usable close in response")
}
