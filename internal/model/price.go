package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single quote observation. Produced fresh on every
// invocation and never persisted on its own.
type PriceSample struct {
	Ticker     string
	Price      decimal.Decimal
	ObservedAt time.Time
}
