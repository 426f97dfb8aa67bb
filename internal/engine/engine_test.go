package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"EtfSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var today = time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func defaultParams() Params {
	return Params{
		WaitPeriodDays:   30,
		VolatilityFactor: 2.0,
		MinHistory:       14,
		WindowSize:       14,
	}
}

func stateWith(baseline string, daysAgo int, recent ...string) *model.InvestmentState {
	prices := make([]decimal.Decimal, len(recent))
	for i, r := range recent {
		prices[i] = dec(r)
	}
	return &model.InvestmentState{
		Ticker:           "VOO",
		BaselinePrice:    dec(baseline),
		BaselineDate:     model.DateOnly(today.AddDate(0, 0, -daysAgo)),
		RecentPrices:     prices,
		LastDecisionDate: model.DateOnly(today.AddDate(0, 0, -1)),
		Status:           model.StatusWaiting,
	}
}

func TestDecide_FlatPriceInsideWaitPeriodWaits(t *testing.T) {
	// Single prior sample: no volatility signal, threshold degenerates to
	// the baseline itself, and a flat price must not count as a dip.
	state := stateWith("100", 5, "100")
	d, next, err := Decide(dec("100"), today, state, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != model.ActionWait {
		t.Fatalf("expected WAIT, got %s (%s)", d.Action, d.Reason)
	}
	if d.Reason != model.ReasonStillWaiting {
		t.Errorf("expected reason %s, got %s", model.ReasonStillWaiting, d.Reason)
	}
	if !d.ThresholdUsed.Equal(dec("100")) {
		t.Errorf("expected threshold 100, got %s", d.ThresholdUsed)
	}
	if d.DaysWaited != 5 {
		t.Errorf("expected 5 days waited, got %d", d.DaysWaited)
	}
	if !next.BaselinePrice.Equal(dec("100")) || !next.BaselineDate.Equal(state.BaselineDate) {
		t.Error("baseline must be untouched on WAIT")
	}
	if !next.LastDecisionDate.Equal(model.DateOnly(today)) {
		t.Error("last decision date must advance to today")
	}
	if len(next.RecentPrices) != 2 {
		t.Errorf("expected 2 recent prices, got %d", len(next.RecentPrices))
	}
}

func TestDecide_ForcedBuyAfterWaitPeriod(t *testing.T) {
	// After waitPeriodDays the buy is forced regardless of price.
	state := stateWith("100", 31, "100")
	d, next, err := Decide(dec("150"), today, state, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != model.ActionBuy || d.Reason != model.ReasonWaitPeriodExpired {
		t.Fatalf("expected forced BUY, got %s (%s)", d.Action, d.Reason)
	}
	if d.DaysWaited != 31 {
		t.Errorf("expected 31 days waited, got %d", d.DaysWaited)
	}
	if !next.BaselinePrice.Equal(dec("150")) {
		t.Errorf("baseline must reset to the buy price, got %s", next.BaselinePrice)
	}
	if !next.BaselineDate.Equal(model.DateOnly(today)) {
		t.Error("baseline date must reset to today")
	}
	if len(next.RecentPrices) != 2 {
		t.Error("price window must survive a buy")
	}
}

func TestDecide_ThresholdMetOnGradualDecline(t *testing.T) {
	// A slow, steady slide keeps sigma small, so the threshold stays close
	// to the baseline and the dip triggers an early buy.
	state := stateWith("100", 5, "100", "97", "94", "91")
	d, next, err := Decide(dec("89"), today, state, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != model.ActionBuy || d.Reason != model.ReasonThresholdMet {
		t.Fatalf("expected threshold BUY, got %s (%s)", d.Action, d.Reason)
	}
	if d.Sigma <= 0 {
		t.Errorf("expected positive sigma, got %f", d.Sigma)
	}
	if !d.ThresholdUsed.LessThan(dec("100")) {
		t.Errorf("threshold must sit below the baseline, got %s", d.ThresholdUsed)
	}
	if !next.BaselinePrice.Equal(dec("89")) {
		t.Errorf("baseline must reset to 89, got %s", next.BaselinePrice)
	}
	if len(next.RecentPrices) != 5 {
		t.Errorf("expected 5 recent prices, got %d", len(next.RecentPrices))
	}
}

func TestDecide_Deterministic(t *testing.T) {
	state := stateWith("100", 12, "100", "102", "99", "101")
	d1, n1, err1 := Decide(dec("98.5"), today, state, defaultParams())
	d2, n2, err2 := Decide(dec("98.5"), today, state, defaultParams())
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Errorf("decisions differ: %+v vs %+v", d1, d2)
	}
	if !reflect.DeepEqual(n1, n2) {
		t.Errorf("next states differ: %+v vs %+v", n1, n2)
	}
}

func TestDecide_WindowBoundHolds(t *testing.T) {
	p := defaultParams()
	p.WindowSize = 4
	state := stateWith("100", 1, "101", "102", "103", "104")
	_, next, err := Decide(dec("105"), today, state, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next.RecentPrices) != 4 {
		t.Fatalf("window must stay bounded at 4, got %d", len(next.RecentPrices))
	}
	if !next.RecentPrices[0].Equal(dec("102")) {
		t.Errorf("oldest sample must be evicted, window starts at %s", next.RecentPrices[0])
	}
	if !next.RecentPrices[3].Equal(dec("105")) {
		t.Errorf("newest sample must be last, got %s", next.RecentPrices[3])
	}
}

func TestDecide_NonPositivePriceRejected(t *testing.T) {
	state := stateWith("100", 5, "100")
	for _, price := range []string{"0", "-5"} {
		_, _, err := Decide(dec(price), today, state, defaultParams())
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("price %s: expected ErrInvalidInput, got %v", price, err)
		}
	}
}

func TestThreshold_KnownValues(t *testing.T) {
	// baseline=100, sigma=0.05, k=2 → 100 * (1 - 0.1) = 90
	got := Threshold(dec("100"), 2, 0.05)
	if !got.Equal(dec("90")) {
		t.Errorf("expected threshold 90, got %s", got)
	}
	// sigma=0 degenerates to the baseline
	if got := Threshold(dec("100"), 2, 0); !got.Equal(dec("100")) {
		t.Errorf("expected threshold 100 at sigma 0, got %s", got)
	}
}

func TestThreshold_DecreasesWithK(t *testing.T) {
	baseline := dec("100")
	sigma := 0.05
	prev := Threshold(baseline, 0, sigma)
	for _, k := range []float64{0.5, 1, 2, 4} {
		cur := Threshold(baseline, k, sigma)
		if !cur.LessThan(prev) {
			t.Errorf("threshold must decrease as k grows: k=%.1f gave %s, previous %s", k, cur, prev)
		}
		prev = cur
	}
}
