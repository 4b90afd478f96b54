package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", r.config.MaxAttempts)
	}
	if r.config.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", r.config.Delay)
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_LinearDelays(t *testing.T) {
	clock := clockwork.NewFakeClock()

	var delays []time.Duration
	r := NewRetry(RetryConfig{
		MaxAttempts: 4,
		Delay:       time.Second,
		Clock:       clock,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	testErr := errors.New("transient")
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
	}()

	// Three retry waits: 1s, 2s, 3s
	for _, d := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		clock.BlockUntil(1)
		clock.Advance(d)
	}

	if err := <-done; err != testErr {
		t.Errorf("Execute() error = %v, want last error %v", err, testErr)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetry_NonRetryableShortCircuits(t *testing.T) {
	fatal := errors.New("fatal")
	r := NewRetry(RetryConfig{
		MaxAttempts: 4,
		RetryIf:     func(err error) bool { return err != fatal },
	})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})

	if err != fatal {
		t.Errorf("Execute() error = %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on non-retryable error)", calls)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Second,
		Clock:       clock,
	})

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)

	if err := <-done; err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ContextCancelDuringWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRetry(RetryConfig{
		MaxAttempts: 4,
		Delay:       time.Minute,
		Clock:       clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error {
			return errors.New("transient")
		})
	}()

	clock.BlockUntil(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}
