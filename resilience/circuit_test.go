package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
	if cb.config.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cb.config.MaxFailures)
	}
	if cb.config.ResetTimeout != 30*time.Second {
		t.Errorf("ResetTimeout = %v, want 30s", cb.config.ResetTimeout)
	}
	if cb.config.HalfOpenMaxRequests != 1 {
		t.Errorf("HalfOpenMaxRequests = %d, want 1", cb.config.HalfOpenMaxRequests)
	}
}

func TestCircuitBreaker_OpenAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  3,
		ResetTimeout: time.Second,
	})

	testErr := errors.New("test error")

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
		if cb.State() != StateClosed {
			t.Errorf("After %d failures, state = %v, want closed", i+1, cb.State())
		}
	}

	// A success in between resets the consecutive count
	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after non-consecutive failures, want closed", cb.State())
	}

	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})
	if cb.State() != StateOpen {
		t.Fatalf("After 3 consecutive failures, state = %v, want open", cb.State())
	}

	// Next request should be rejected without running the op
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("op should not run while circuit is open")
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Execute() when open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_RecoveryCycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
		Clock:        clock,
	})

	testErr := errors.New("test error")

	for i := 0; i < 5; i++ {
		cb.RecordFailure(testErr)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if cb.CanExecute() {
		t.Error("CanExecute() = true while open")
	}

	// Just before the recovery window closes, still open
	clock.Advance(29 * time.Second)
	if cb.CanExecute() {
		t.Error("CanExecute() = true before recovery timeout elapsed")
	}

	// After the window: exactly one half-open probe admitted
	clock.Advance(2 * time.Second)
	if !cb.CanExecute() {
		t.Fatal("CanExecute() = false after recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}
	if cb.CanExecute() {
		t.Error("second probe admitted in half-open state")
	}

	// A successful probe closes the circuit
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Second,
		Clock:        clock,
	})

	testErr := errors.New("test error")
	cb.RecordFailure(testErr)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	clock.Advance(10 * time.Second)
	if !cb.CanExecute() {
		t.Fatal("probe not admitted after recovery timeout")
	}
	cb.RecordFailure(testErr)
	if cb.State() != StateOpen {
		t.Fatalf("state after failed probe = %v, want open", cb.State())
	}

	// The recovery window restarts from the probe failure
	clock.Advance(9 * time.Second)
	if cb.CanExecute() {
		t.Error("CanExecute() = true before restarted window elapsed")
	}
	clock.Advance(time.Second)
	if !cb.CanExecute() {
		t.Error("CanExecute() = false after restarted window elapsed")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := clockwork.NewFakeClock()

	type transition struct{ from, to State }
	var transitions []transition

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Clock:        clock,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, transition{from, to})
		},
	})

	cb.RecordFailure(errors.New("boom"))
	clock.Advance(time.Second)
	_ = cb.State() // Open -> HalfOpen
	cb.RecordSuccess()

	want := []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})

	cb.RecordFailure(errors.New("boom"))
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.State())
	}
	if m := cb.Metrics(); m.Failures != 0 {
		t.Errorf("Failures after Reset = %d, want 0", m.Failures)
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	benign := errors.New("benign")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure: func(err error) bool {
			return err != nil && err != benign
		},
	})

	cb.RecordFailure(benign)
	if cb.State() != StateClosed {
		t.Errorf("benign error opened the circuit")
	}

	cb.RecordFailure(errors.New("real"))
	if cb.State() != StateOpen {
		t.Errorf("real error did not open the circuit")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
