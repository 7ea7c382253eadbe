package domain

import "errors"

// Sentinel errors for the trading engine and its collaborators. Call sites
// wrap these with fmt.Errorf("...: %w", err) and callers match with
// errors.Is.
var (
	// ErrMalformedSymbol means an option symbol does not follow the OCC
	// fixed-width layout.
	ErrMalformedSymbol = errors.New("malformed option symbol")

	// ErrFieldOverflow means an underlying or strike does not fit its
	// fixed-width symbol field.
	ErrFieldOverflow = errors.New("symbol field overflow")

	// ErrInvalidQuantity means an order quantity is zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrMissingLimitPrice means a limit order was submitted without a
	// limit price.
	ErrMissingLimitPrice = errors.New("limit order missing limit price")

	// ErrInsufficientFunds means a buy would drive cash negative at the
	// worst-case fill price.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPosition means a sell exceeds the held quantity and
	// short selling is not enabled.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrQuoteUnavailable means no current price could be obtained for a
	// symbol.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrCorruptPortfolio means a portfolio file exists but cannot be parsed.
	// It is surfaced to the caller, never silently repaired.
	ErrCorruptPortfolio = errors.New("corrupt portfolio file")

	// ErrBackendTimeout means the execution backend did not report a
	// terminal order status within the configured deadline.
	ErrBackendTimeout = errors.New("backend timeout")

	// ErrBackendRejected means the execution backend rejected the order.
	ErrBackendRejected = errors.New("backend rejected order")

	// ErrOrderNotCancellable means a cancel request arrived after the order
	// already reached a terminal state.
	ErrOrderNotCancellable = errors.New("order not cancellable")
)
