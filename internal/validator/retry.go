package validator

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// #region constants

const maxRetries = 2 // max 2 retries = 3 total attempts

// DefaultBackoff is the wait before the first retry; it doubles per retry.
const DefaultBackoff = 100 * time.Millisecond

// #endregion

// #region should-retry

// shouldRetry reports whether a failed attempt may be repeated. attempts
// counts the attempts made so far, including the one that just failed.
func shouldRetry(ctx context.Context, err error, attempts int) bool {
	if attempts > maxRetries || ctx.Err() != nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// wait sleeps for the backoff of the given attempt or until ctx ends.
func wait(ctx context.Context, base time.Duration, attempts int) error {
	if base <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(base << (attempts - 1))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// #endregion
