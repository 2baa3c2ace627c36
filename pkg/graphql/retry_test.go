package graphql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryConfig_BaseDelay(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt int
		class   ErrorClass
		want    time.Duration
	}{
		{1, ClassServer, 100 * time.Millisecond},
		{2, ClassServer, 200 * time.Millisecond},
		{3, ClassServer, 400 * time.Millisecond},
		{5, ClassServer, time.Second},
		{1, ClassNetwork, 200 * time.Millisecond},
		{3, ClassNetwork, 800 * time.Millisecond},
		{4, ClassNetwork, time.Second},
	}

	for _, tt := range tests {
		if got := cfg.baseDelay(tt.attempt, tt.class); got != tt.want {
			t.Errorf("baseDelay(%d, %s) = %v, want %v", tt.attempt, tt.class, got, tt.want)
		}
	}
}

func TestJittered(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := jittered(time.Second)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jittered(1s) = %v, want within ±20%%", got)
		}
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), func() (ErrorClass, error) {
		callCount++
		return "", nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), func() (ErrorClass, error) {
		callCount++
		if callCount < 3 {
			return ClassServer, errors.New("temporary error")
		}
		return "", nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")
	err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), func() (ErrorClass, error) {
		callCount++
		return ClassNetwork, testErr
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls (MaxAttempts), got %d", callCount)
	}
}

func TestRetryWithBackoff_NoRetryClasses(t *testing.T) {
	for _, class := range []ErrorClass{ClassClient, ClassGraphQL, ClassDecode, ClassBudget} {
		t.Run(string(class), func(t *testing.T) {
			callCount := 0
			testErr := errors.New("final")
			err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), func() (ErrorClass, error) {
				callCount++
				return class, testErr
			})

			if callCount != 1 {
				t.Errorf("Expected 1 call, got %d", callCount)
			}
			if errors.Is(err, ErrRetryExhausted) {
				t.Error("Should not return ErrRetryExhausted when no retry was attempted")
			}
			if !errors.Is(err, testErr) {
				t.Errorf("Expected original error, got %v", err)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastRetry()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	callCount := 0
	err := retryWithBackoff(ctx, cfg, zerolog.Nop(), func() (ErrorClass, error) {
		callCount++
		cancel()
		return ClassServer, errors.New("server down")
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", callCount)
	}
}

func TestRetryWithBackoff_ZeroAttempts(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxAttempts = 0

	callCount := 0
	_ = retryWithBackoff(context.Background(), cfg, zerolog.Nop(), func() (ErrorClass, error) {
		callCount++
		return ClassServer, errors.New("x")
	})
	if callCount != 1 {
		t.Errorf("Expected a single attempt, got %d", callCount)
	}
}
