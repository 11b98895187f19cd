package rails

import (
	"context"
	"errors"
	"time"

	"bookingpay/services/apperr"
)

// RetryPolicy bounds how rail calls are retried. Only RailTransient failures are retried;
// each attempt gets its own Timeout.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// Do runs call until it succeeds, fails terminally, or retries are exhausted.
// The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = p.attempt(ctx, call)
		if err == nil || !errors.Is(err, apperr.ErrRailTransient) || attempt >= p.MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.backoff(attempt)):
		}
	}
}

func (p RetryPolicy) attempt(ctx context.Context, call func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return call(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return call(attemptCtx)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
