// Package broker defines the execution backend abstraction and provides the
// real Alpaca implementation and a local simulator. The backend is selected
// once at startup by configuration, never per call.
package broker

import (
	"context"
	"time"

	"optrader/internal/domain"
)

// Confirmation is the backend's report for a submitted order.
type Confirmation struct {
	// Status is the order state the backend settled on: filled, pending
	// (simulated limit order resting away from the market), or cancelled.
	Status domain.OrderStatus

	// BrokerID is the brokerage-assigned order ID (real backend only).
	BrokerID string

	// FillPrice and FilledAt are set when Status is filled.
	FillPrice float64
	FilledAt  time.Time
}

// Backend executes orders. Implementations must be safe for use by a single
// engine goroutine at a time; the engine serializes calls.
type Backend interface {
	// Name returns the backend identifier (e.g. "alpaca", "simulator").
	Name() string

	// Submit sends the order for execution and blocks until the backend
	// settles on an outcome. Failures to reach a terminal state are
	// reported as errors matching domain.ErrBackendTimeout or
	// domain.ErrBackendRejected; the engine records such orders as
	// rejected with zero portfolio mutation.
	Submit(ctx context.Context, order *domain.Order) (Confirmation, error)

	// Cancel requests cancellation of a still-open order. It is only
	// guaranteed to succeed before the backend reports a fill.
	Cancel(ctx context.Context, order *domain.Order) error
}
