package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Volatility estimates trailing volatility as the sample standard deviation
// of day-over-day fractional returns across the newest maxSamples prices
// (all of them if the history is shorter). With fewer than two returns there
// is no volatility signal and the estimate is 0.
func Volatility(prices []decimal.Decimal, maxSamples int) float64 {
	window := prices
	if maxSamples > 0 && len(window) > maxSamples {
		window = window[len(window)-maxSamples:]
	}
	if len(window) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev := window[i-1]
		if prev.IsZero() {
			continue
		}
		r, _ := window[i].Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(returns)-1))
}
