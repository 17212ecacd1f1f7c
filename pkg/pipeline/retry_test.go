package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetryer returns a retryer whose backoffs are too small to slow the
// tests down.
func fastRetryer(maxAttempts int) *Retryer {
	r := NewRetryer(maxAttempts)
	fast := RetryConfig{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Microsecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	r.Profiles = map[Class]RetryConfig{
		ClassNetwork:   fast,
		ClassServer:    fast,
		ClassRateLimit: fast,
	}
	return r
}

func TestRetry_ImmediateSuccess(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), fastRetryer(3), func(ctx context.Context) Outcome[string] {
		calls++
		return Success("payload")
	})

	if out.Status != StatusSuccess {
		t.Errorf("Status = %v, want success", out.Status)
	}
	if out.Payload != "payload" {
		t.Errorf("Payload = %q, want %q", out.Payload, "payload")
	}
	if calls != 1 {
		t.Errorf("attempts = %d, want exactly 1", calls)
	}
}

func TestRetry_EmptyPassesThrough(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), fastRetryer(3), func(ctx context.Context) Outcome[string] {
		calls++
		return Empty[string]()
	})

	if out.Status != StatusEmpty {
		t.Errorf("Status = %v, want empty", out.Status)
	}
	if calls != 1 {
		t.Errorf("attempts = %d, want 1", calls)
	}
}

func TestRetry_ExhaustsAtCap(t *testing.T) {
	tests := []struct {
		name string
		cap  int
	}{
		{"cap of one", 1},
		{"default cap", 3},
		{"larger cap", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			out := Retry(context.Background(), fastRetryer(tt.cap), func(ctx context.Context) Outcome[int] {
				calls++
				return Retryable[int](ClassNetwork, errors.New("connection reset"))
			})

			if out.Status != StatusPermanent {
				t.Errorf("Status = %v, want permanent", out.Status)
			}
			if calls != tt.cap {
				t.Errorf("attempts = %d, want exactly %d", calls, tt.cap)
			}
			if !errors.Is(out.Err, ErrRetryExhausted) {
				t.Errorf("Err = %v, want ErrRetryExhausted", out.Err)
			}
		})
	}
}

func TestRetry_PermanentNoRetry(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), fastRetryer(3), func(ctx context.Context) Outcome[int] {
		calls++
		return Permanent[int](ClassClient, errors.New("404 not found"))
	})

	if out.Status != StatusPermanent {
		t.Errorf("Status = %v, want permanent", out.Status)
	}
	if calls != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent)", calls)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), fastRetryer(3), func(ctx context.Context) Outcome[int] {
		calls++
		if calls < 3 {
			return Retryable[int](ClassServer, errors.New("502"))
		}
		return Success(42)
	})

	if out.Status != StatusSuccess {
		t.Errorf("Status = %v, want success", out.Status)
	}
	if out.Payload != 42 {
		t.Errorf("Payload = %d, want 42", out.Payload)
	}
	if calls != 3 {
		t.Errorf("attempts = %d, want 3", calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRetryer(3)
	r.Profiles = map[Class]RetryConfig{
		ClassNetwork: {
			MaxAttempts:       3,
			InitialBackoff:    10 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 1.0,
		},
	}

	calls := 0
	done := make(chan Outcome[int], 1)
	go func() {
		done <- Retry(ctx, r, func(ctx context.Context) Outcome[int] {
			calls++
			return Retryable[int](ClassNetwork, errors.New("timeout"))
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		if out.Status != StatusPermanent {
			t.Errorf("Status = %v, want permanent", out.Status)
		}
		if !errors.Is(out.Err, ErrAborted) {
			t.Errorf("Err = %v, want ErrAborted", out.Err)
		}
		if calls != 1 {
			t.Errorf("attempts = %d, want 1 (cancelled during first backoff)", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Retry did not return after context cancellation")
	}
}

func TestRetryConfigForClass(t *testing.T) {
	rateLimit := RetryConfigForClass(ClassRateLimit)
	network := RetryConfigForClass(ClassNetwork)
	server := RetryConfigForClass(ClassServer)

	if rateLimit.InitialBackoff <= network.InitialBackoff {
		t.Error("rate limit backoff should exceed network backoff")
	}
	if rateLimit.MaxBackoff <= server.MaxBackoff {
		t.Error("rate limit max backoff should exceed server max backoff")
	}

	def := RetryConfigForClass(ClassClient)
	if def != DefaultRetryConfig() {
		t.Errorf("unknown class config = %+v, want default", def)
	}
}
