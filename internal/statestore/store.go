package statestore

import (
	"context"
	"errors"

	"EtfSentinel/internal/model"
)

// ErrNotFound is returned by Read when no document exists for the ticker yet.
var ErrNotFound = errors.New("state not found")

// ErrUnavailable marks a transient store failure. Read failures abort the
// invocation before any decision; write failures are classified by the
// controller depending on where in the protocol they happen.
var ErrUnavailable = errors.New("state store unavailable")

// Store persists one InvestmentState document per ticker. Whole-document
// semantics only: there is no partial-field update and no native locking,
// so all consistency discipline lives in the controller.
type Store interface {
	Read(ctx context.Context, ticker string) (*model.InvestmentState, error)
	Write(ctx context.Context, ticker string, state *model.InvestmentState) error
}
