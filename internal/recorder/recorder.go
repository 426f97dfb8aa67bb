package recorder

import "EtfSentinel/internal/model"

// CycleRecord holds everything worth keeping from one completed decision
// cycle. Written after the state store is updated; losing a record never
// affects correctness.
type CycleRecord struct {
	RunID      string
	Ticker     string
	Price      string // decimal rendered as text, lossless
	Sigma      float64
	Threshold  string
	DaysWaited int
	Action     model.Action
	Reason     model.ReasonCode
	Notified   bool
	Recovered  bool
}

// Recorder persists decision history for later analysis.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	Close() error
}
