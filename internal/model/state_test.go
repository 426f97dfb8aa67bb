package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validState() *InvestmentState {
	return &InvestmentState{
		Ticker:           "VOO",
		BaselinePrice:    decimal.RequireFromString("412.50"),
		BaselineDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		RecentPrices:     []decimal.Decimal{decimal.RequireFromString("410")},
		LastDecisionDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		Status:           StatusWaiting,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*InvestmentState)
		wantErr bool
	}{
		{"valid waiting", func(s *InvestmentState) {}, false},
		{"valid pending", func(s *InvestmentState) { s.Status = StatusBoughtPendingAck }, false},
		{"empty ticker", func(s *InvestmentState) { s.Ticker = "" }, true},
		{"zero baseline", func(s *InvestmentState) { s.BaselinePrice = decimal.Zero }, true},
		{"negative baseline", func(s *InvestmentState) { s.BaselinePrice = decimal.RequireFromString("-1") }, true},
		{"unset baseline date", func(s *InvestmentState) { s.BaselineDate = time.Time{} }, true},
		{"unknown status", func(s *InvestmentState) { s.Status = "LIMBO" }, true},
		{"bad recent price", func(s *InvestmentState) { s.RecentPrices = append(s.RecentPrices, decimal.Zero) }, true},
	}
	for _, tt := range tests {
		s := validState()
		tt.mutate(s)
		err := s.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: got err=%v, wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	s := validState()
	c := s.Clone()
	c.RecentPrices[0] = decimal.RequireFromString("999")
	c.RecentPrices = append(c.RecentPrices, decimal.RequireFromString("1"))
	if !s.RecentPrices[0].Equal(decimal.RequireFromString("410")) {
		t.Error("mutating a clone must not touch the original window")
	}
	if len(s.RecentPrices) != 1 {
		t.Error("appending to a clone must not grow the original window")
	}
}

func TestDateHelpers(t *testing.T) {
	morning := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 23, 30, 0, 0, time.FixedZone("X", 3600))
	if !SameDay(morning, evening) {
		t.Error("same wall-clock date must compare equal regardless of zone")
	}
	if d := DaysBetween(morning, morning.AddDate(0, 0, 31)); d != 31 {
		t.Errorf("expected 31 days, got %d", d)
	}
	if d := DaysBetween(morning, morning); d != 0 {
		t.Errorf("expected 0 days, got %d", d)
	}
	if d := DaysBetween(time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC), time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)); d != 1 {
		t.Errorf("late night to early morning must be 1 calendar day, got %d", d)
	}
}
