package util

import (
	"context"
	"time"
)

// maxBackoff caps the delay between retry attempts.
const maxBackoff = 30 * time.Second

// Retry calls fn up to maxAttempts times with exponential backoff starting
// at baseDelay and capped at 30s. It returns nil on the first success, the
// last error if every attempt fails, or the context error if the context is
// cancelled between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}

	return err
}
