package db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mandarons/wapar/pkg/apperr"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
)

// RetryPolicy is applied to every storage write. Transient failures are
// retried with linear backoff (BaseDelay × attempt); anything else returns
// after the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	IsTransient func(error) bool
	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(err error, attempt int, delay time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		IsTransient: IsTransientErr,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.IsTransient == nil {
		p.IsTransient = IsTransientErr
	}
	return p
}

// Do runs fn until it succeeds, fails permanently or the attempts run out.
// An exhausted transient failure is reported as apperr.KindTransientStorage.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p = p.withDefaults()

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !p.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var b backoff.BackOff = &linearBackOff{base: p.BaseDelay}
	if p.MaxAttempts == 1 {
		// WithMaxRetries treats zero as unlimited
		b = &backoff.StopBackOff{}
	} else {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	b = backoff.WithContext(b, ctx)

	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, attempt, delay)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err == nil {
		return nil
	}
	if p.IsTransient(err) {
		return apperr.TransientStorage(err)
	}
	return err
}

type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}
