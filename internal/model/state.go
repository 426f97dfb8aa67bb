package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks a precondition violation: a non-positive price or a
// corrupt persisted state. Surfaced rather than silently coerced.
var ErrInvalidInput = errors.New("invalid input")

// Status is the lifecycle marker of an InvestmentState.
type Status string

const (
	// StatusWaiting is the steady state between purchases.
	StatusWaiting Status = "WAITING"
	// StatusBoughtPendingAck is set after a BUY decision is persisted but
	// before the cycle is finalized. If a run crashes in between, the next
	// run finds this marker and finishes the cycle instead of deciding again.
	StatusBoughtPendingAck Status = "BOUGHT_PENDING_ACK"
)

// InvestmentState is the durable record, one per ticker. It is the system's
// only memory across invocations and is owned exclusively by the controller.
type InvestmentState struct {
	Ticker           string            `json:"ticker"`
	BaselinePrice    decimal.Decimal   `json:"baseline_price"`
	BaselineDate     time.Time         `json:"baseline_date"`
	RecentPrices     []decimal.Decimal `json:"recent_prices"`
	LastDecisionDate time.Time         `json:"last_decision_date"`
	Status           Status            `json:"status"`
	LastAction       string            `json:"last_action"`
	LastReason       string            `json:"last_reason"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewState synthesizes the initial state for a ticker from its first observed
// price. LastDecisionDate stays at the zero value, a sentinel before any
// calendar date the system will ever see.
func NewState(ticker string, firstPrice decimal.Decimal, today time.Time) *InvestmentState {
	return &InvestmentState{
		Ticker:        ticker,
		BaselinePrice: firstPrice,
		BaselineDate:  DateOnly(today),
		Status:        StatusWaiting,
		LastAction:    "None",
	}
}

// Clone returns a deep copy; RecentPrices does not share backing storage.
func (s *InvestmentState) Clone() *InvestmentState {
	c := *s
	c.RecentPrices = make([]decimal.Decimal, len(s.RecentPrices))
	copy(c.RecentPrices, s.RecentPrices)
	return &c
}

// Validate checks the invariants a persisted document must satisfy before the
// engine is allowed to see it.
func (s *InvestmentState) Validate() error {
	if s.Ticker == "" {
		return fmt.Errorf("%w: state has empty ticker", ErrInvalidInput)
	}
	if !s.BaselinePrice.IsPositive() {
		return fmt.Errorf("%w: baseline price %s is not positive", ErrInvalidInput, s.BaselinePrice)
	}
	if s.BaselineDate.IsZero() {
		return fmt.Errorf("%w: baseline date is unset", ErrInvalidInput)
	}
	switch s.Status {
	case StatusWaiting, StatusBoughtPendingAck:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s.Status)
	}
	for i, p := range s.RecentPrices {
		if !p.IsPositive() {
			return fmt.Errorf("%w: recent price #%d (%s) is not positive", ErrInvalidInput, i, p)
		}
	}
	return nil
}
