package notifier

import (
	"context"
	"errors"
)

// ErrDeliveryFailed marks a notification that could not be handed off.
// Non-fatal: the decision and state are already durable by the time a send
// is attempted.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Sink delivers a human-readable message. Best effort; at-least-once.
type Sink interface {
	Send(ctx context.Context, text string) error
}
