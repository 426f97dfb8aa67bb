package model

import "github.com/shopspring/decimal"

// Action is the recommendation produced by one decision cycle.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionWait Action = "WAIT"
)

// ReasonCode explains which rule produced the action.
type ReasonCode string

const (
	ReasonThresholdMet      ReasonCode = "THRESHOLD_MET"
	ReasonWaitPeriodExpired ReasonCode = "WAIT_PERIOD_EXPIRED"
	ReasonStillWaiting      ReasonCode = "BELOW_WAIT_PERIOD_ABOVE_THRESHOLD"
)

// Decision is the ephemeral output of the decision engine. It is folded into
// the state transition and the notification message, never stored as a record.
type Decision struct {
	Action        Action
	Reason        ReasonCode
	ThresholdUsed decimal.Decimal
	DaysWaited    int
	Sigma         float64 // trailing volatility behind ThresholdUsed
}

// Outcome is the terminal result of one full invocation.
type Outcome struct {
	Action     Action
	Reason     ReasonCode
	DaysWaited int
	NoOp       bool // true when the idempotency gate short-circuited
	Recovered  bool // true when a half-committed prior BUY was finished
}
