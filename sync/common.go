package sync

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrMaxAttemptsReached = errors.New("max attempts reached")

// RetryHandler paces the retries of the sync loops
type RetryHandler struct {
	RetryAfterErrorPeriod      time.Duration
	MaxRetryAttemptsAfterError int
}

// Handle waits RetryAfterErrorPeriod before the next attempt. It returns ErrMaxAttemptsReached
// once attempts reaches MaxRetryAttemptsAfterError, or the ctx error if it is done while waiting.
// A MaxRetryAttemptsAfterError of 0 retries forever
func (h *RetryHandler) Handle(ctx context.Context, funcName string, attempts int) error {
	if h.MaxRetryAttemptsAfterError > 0 && attempts >= h.MaxRetryAttemptsAfterError {
		return fmt.Errorf("%s failed too many times (%d): %w", funcName, attempts, ErrMaxAttemptsReached)
	}
	return sleep(ctx, h.RetryAfterErrorPeriod)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
