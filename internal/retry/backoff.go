package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config defines how retry behavior should work.
type Config struct {
	MaxAttempts int           // Maximum number of attempts (e.g., 3)
	BaseDelay   time.Duration // Initial delay (e.g., 1s)
	MaxDelay    time.Duration // Maximum delay (e.g., 30s)
	Jitter      bool          // Randomize each delay by up to 25%
}

// ResolvePolicy is used while the DNS name of a fresh cluster propagates.
var ResolvePolicy = Config{
	MaxAttempts: 4,
	BaseDelay:   2 * time.Second,
	MaxDelay:    15 * time.Second,
	Jitter:      true,
}

const jitterFactor = 0.25

// Permanent marks err so Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, returns a permanent error, the attempts
// run out or ctx is done. The last error is returned wrapped.
func Do(ctx context.Context, log *slog.Logger, cfg Config, fn func(context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)

	attempt := 0
	stopped := false
	operation := func() (struct{}, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			stopped = true
			return struct{}{}, backoff.Permanent(err)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Debug("Operation succeeded after retry", "attempt", attempt)
			}
			return struct{}{}, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			stopped = true
			return struct{}{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			stopped = true
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("Operation attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", attempts,
				"delay_seconds", next.Seconds(),
				"error", err.Error())
		}),
	)
	if err == nil || stopped {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("max attempts reached (%d): %w", attempts, err)
}

// backOff builds the exponential schedule: BaseDelay * 2^(attempt-1),
// capped at MaxDelay.
func (c Config) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.Multiplier = 2
	b.MaxInterval = c.MaxDelay
	if c.MaxDelay <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.RandomizationFactor = 0
	if c.Jitter {
		b.RandomizationFactor = jitterFactor
	}
	b.Reset()
	return b
}
