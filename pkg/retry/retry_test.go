package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	errs "igavail/pkg/errors"
	"igavail/pkg/logger"
)

func TestExponentialBackoffSchedule(t *testing.T) {
	backoff := DefaultExponentialBackoff()
	backoff.JitterFactor = 0 // deterministic

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{12, 10 * time.Second},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("attempt %d", test.attempt), func(t *testing.T) {
			if delay := backoff.Delay(test.attempt); delay != test.expected {
				t.Errorf("Delay(%d) = %v, want %v", test.attempt, delay, test.expected)
			}
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("NextDelay(%d) = %v, want %v", test.attempt, delay, test.expected)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		if delay < 140*time.Millisecond || delay > 260*time.Millisecond {
			t.Errorf("Jittered delay %v outside ±30%% of 200ms", delay)
		}
		delays[delay] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 50 * time.Millisecond}
	if backoff.NextDelay(0) != 0 {
		t.Error("Expected zero delay before the first attempt")
	}
	for attempt := 1; attempt < 5; attempt++ {
		if delay := backoff.NextDelay(attempt); delay != 50*time.Millisecond {
			t.Errorf("Attempt %d: expected 50ms, got %v", attempt, delay)
		}
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsAtFirstSuccess(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return nil
	}, FromRetries(context.Background(), 3, &ConstantBackoff{Delay: time.Millisecond}, nil))

	if err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly one attempt, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	persistent := errs.New(errs.ErrorTypeNetwork, 0, "connection refused")
	attempts := 0
	op := func() error {
		attempts++
		return persistent
	}

	cfg := FromRetries(context.Background(), 2, &ConstantBackoff{Delay: time.Millisecond}, nil)

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts for a budget of 2 retries, got %d", attempts)
	}
	if !errors.Is(err, ErrMaxAttempts) {
		t.Errorf("Expected ErrMaxAttempts, got %v", err)
	}
	if !errors.Is(err, persistent) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
}

func TestRetryDoesNotWaitAfterLastAttempt(t *testing.T) {
	cfg := &Config{
		MaxAttempts: 1,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	start := time.Now()
	if err := Do(func() error { return errors.New("boom") }, cfg); err == nil {
		t.Error("Expected error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected immediate return, took %v", elapsed)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Message: "authentication required",
		Code:    401,
	}

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != authError {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for auth error), got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"untyped", errors.New("reset by peer"), true},
		{"network", errs.New(errs.ErrorTypeNetwork, 0, "dial"), true},
		{"timeout", errs.New(errs.ErrorTypeTimeout, 0, "deadline"), true},
		{"rate limit", errs.New(errs.ErrorTypeRateLimit, 429, "slow down"), true},
		{"server", errs.New(errs.ErrorTypeServerError, 502, "bad gateway"), true},
		{"parsing", errs.New(errs.ErrorTypeParsing, 0, "bad json"), true},
		{"auth", errs.New(errs.ErrorTypeAuth, 401, "denied"), false},
		{"invalid request", errs.New(errs.ErrorTypeInvalidRequest, 400, "bad"), false},
		{"wrapped auth", fmt.Errorf("crawler: %w", errs.New(errs.ErrorTypeAuth, 403, "denied")), false},
		{"cancelled", context.Canceled, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DefaultRetryIf(test.err); got != test.expected {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestOnRetryAndLogging(t *testing.T) {
	log := logger.NewTestLogger()
	var seen []int

	cfg := FromRetries(context.Background(), 2, &ConstantBackoff{Delay: time.Millisecond}, log)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
	}

	_ = Do(func() error { return errors.New("flaky") }, cfg)

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("Expected OnRetry for attempts 1 and 2, got %v", seen)
	}
	if !log.HasMessage("max retry attempts exceeded") {
		t.Error("Expected exhaustion to be logged")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
