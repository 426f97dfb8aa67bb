package engine

import (
	"fmt"
	"time"

	"EtfSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// Params are the tuning knobs of the decision rule.
type Params struct {
	WaitPeriodDays   int     // forced buy after this many days without one
	VolatilityFactor float64 // k in threshold = baseline * (1 - k*sigma)
	MinHistory       int     // max samples fed into the volatility estimate
	WindowSize       int     // W, ring-buffer bound on recent prices
}

// Decide evaluates one price observation against the persisted state and
// returns the decision plus the state the next run should see. Pure and
// deterministic: no I/O, no clock reads, total on valid inputs.
func Decide(currentPrice decimal.Decimal, today time.Time, state *model.InvestmentState, p Params) (*model.Decision, *model.InvestmentState, error) {
	if !currentPrice.IsPositive() {
		return nil, nil, fmt.Errorf("%w: current price %s is not positive", model.ErrInvalidInput, currentPrice)
	}

	next := state.Clone()
	next.RecentPrices = appendBounded(next.RecentPrices, currentPrice, p.WindowSize)

	sigma := Volatility(next.RecentPrices, p.MinHistory)
	threshold := Threshold(state.BaselinePrice, p.VolatilityFactor, sigma)
	daysWaited := model.DaysBetween(state.BaselineDate, today)

	decision := &model.Decision{
		ThresholdUsed: threshold,
		DaysWaited:    daysWaited,
		Sigma:         sigma,
	}

	// Rule order matters: a price dip wins over the elapsed-time fallback.
	// The comparison is strict: with sigma = 0 the threshold degenerates to
	// the baseline itself, and a flat price is not a dip.
	switch {
	case currentPrice.LessThan(threshold):
		decision.Action = model.ActionBuy
		decision.Reason = model.ReasonThresholdMet
	case daysWaited >= p.WaitPeriodDays:
		decision.Action = model.ActionBuy
		decision.Reason = model.ReasonWaitPeriodExpired
	default:
		decision.Action = model.ActionWait
		decision.Reason = model.ReasonStillWaiting
	}

	if decision.Action == model.ActionBuy {
		// A purchase starts a new waiting episode. The price window is kept:
		// volatility history survives a buy.
		next.BaselinePrice = currentPrice
		next.BaselineDate = model.DateOnly(today)
		next.Status = model.StatusWaiting
	}
	next.LastDecisionDate = model.DateOnly(today)
	next.LastAction = string(decision.Action)
	next.LastReason = string(decision.Reason)

	return decision, next, nil
}

// Threshold computes the volatility-adjusted buy level. Higher trailing
// volatility widens the expected dip, pulling the level further below the
// baseline.
func Threshold(baseline decimal.Decimal, k, sigma float64) decimal.Decimal {
	return baseline.Mul(decimal.NewFromFloat(1 - k*sigma))
}

// appendBounded inserts a price with ring-buffer semantics: once the window
// holds max entries, the oldest one is evicted.
func appendBounded(prices []decimal.Decimal, price decimal.Decimal, max int) []decimal.Decimal {
	prices = append(prices, price)
	if max > 0 && len(prices) > max {
		prices = prices[len(prices)-max:]
	}
	return prices
}
