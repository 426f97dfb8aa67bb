package pricesource

import (
	"context"
	"errors"
	"time"

	"EtfSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// ErrUnavailable marks a failed or unusable quote fetch. The controller aborts
// the invocation before any state mutation when it sees this.
var ErrUnavailable = errors.New("price source unavailable")

// Source supplies the latest quote for a ticker.
type Source interface {
	LatestPrice(ctx context.Context, ticker string) (model.PriceSample, error)
	Name() string
}

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price decimal.Decimal
	Err   error
	Calls int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) LatestPrice(_ context.Context, ticker string) (model.PriceSample, error) {
	m.Calls++
	if m.Err != nil {
		return model.PriceSample{}, m.Err
	}
	return model.PriceSample{
		Ticker:     ticker,
		Price:      m.Price,
		ObservedAt: time.Now(),
	}, nil
}
