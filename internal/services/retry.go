package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"eventlottery/internal/domain"
)

// RetryPolicy bounds how often a unit of work is re-run after a transient store failure.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when a zero RetryPolicy is supplied.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	return p
}

// withRetry runs fn until it succeeds, fails with a non-transient error, or the policy is exhausted.
// Exhaustion is reported as *domain.OperationFailedError carrying the last cause.
func withRetry(ctx context.Context, op string, policy RetryPolicy, fn func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, domain.ErrTransient) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
	)
	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if errors.Is(err, domain.ErrTransient) {
		return &domain.OperationFailedError{Op: op, Err: err}
	}
	return err
}
