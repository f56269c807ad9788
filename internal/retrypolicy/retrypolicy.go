// Package retrypolicy is the single bounded-retry policy shared by every
// component that talks to contended or flaky dependencies. Only errors the
// caller classifies as transient are retried; permanent failures surface
// immediately.
package retrypolicy

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	baseDelay  = 50 * time.Millisecond
	jitter     = 25 * time.Millisecond
	maxRetries = 4
)

// Do runs fn under capped exponential backoff with jitter. transient decides
// which errors are worth another attempt; everything else (and the last
// transient error once the budget is spent) is returned as-is.
func Do(ctx context.Context, transient func(error) bool, fn func() error) error {
	b := retry.WithMaxRetries(maxRetries, retry.WithJitter(jitter, retry.NewExponential(baseDelay)))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(); err != nil {
			if transient != nil && transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
