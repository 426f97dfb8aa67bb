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

// QuoteAPISource fetches the latest quote from a self-hosted REST API.
type QuoteAPISource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewQuoteAPISource creates a new source with optional proxy support.
func NewQuoteAPISource(baseURL, apiKey, proxyURL string) *QuoteAPISource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &QuoteAPISource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *QuoteAPISource) Name() string { return "quote-api" }

func (s *QuoteAPISource) LatestPrice(ctx context.Context, ticker string) (model.PriceSample, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", s.BaseURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return model.PriceSample{}, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.PriceSample{}, fmt.Errorf("fetch quote: status %d, body: %s", resp.StatusCode, string(body))
	}
	var result struct {
		Price     float64 `json:"price"`
		Timestamp int64   `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.PriceSample{}, fmt.Errorf("decode quote: %w", err)
	}
	observed := time.Now()
	if result.Timestamp > 0 {
		observed = time.Unix(result.Timestamp, 0)
	}
	return model.PriceSample{
		Ticker:     ticker,
		Price:      decimal.NewFromFloat(result.Price),
		ObservedAt: observed,
	}, nil
}
