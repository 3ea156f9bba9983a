// Package retrypolicy applies one bounded retry policy at the service
// boundary. The pure engine never retries; only I/O collaborators such
// as page capture go through this.
package retrypolicy

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy bounds retries with exponential backoff.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Default is the boundary-wide policy: one retry after a short backoff.
func Default() Policy {
	return Policy{MaxAttempts: 2, InitialBackoff: 500 * time.Millisecond}
}

// Do runs fn under the policy. fn returning a retry.RetryableError is
// retried up to MaxAttempts total attempts; other errors stop
// immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoffBase := p.InitialBackoff
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(backoffBase))
	return retry.Do(ctx, backoff, fn)
}

// Transient marks err as retryable under Do.
func Transient(err error) error {
	return retry.RetryableError(err)
}
