package resilience

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 4 (one initial call plus three retries)
	MaxAttempts int

	// Delay is the base delay between retries. The wait before retry n is
	// Delay * n, so backoff grows linearly with the attempt number.
	// Default: 1s
	Delay time.Duration

	// Clock is the time source for backoff waits. Default: the real
	// clock.
	Clock clockwork.Clock

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with linearly increasing backoff.
type Retry struct {
	config RetryConfig
	clock  clockwork.Clock
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 4
	}
	if config.Delay <= 0 {
		config.Delay = time.Second
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config, clock: config.Clock}
}

// Execute runs the operation with retry logic. A non-retryable error
// short-circuits immediately; after exhausting attempts the last error is
// returned.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			return nil
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.config.Delay * time.Duration(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		// Wait for delay or context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(delay):
			// Continue to next attempt
		}
	}

	return lastErr
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
