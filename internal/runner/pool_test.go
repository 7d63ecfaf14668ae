package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	errs "igavail/pkg/errors"
	"igavail/pkg/instagram"
	"igavail/pkg/logger"
	"igavail/pkg/ratelimit"
	"igavail/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport answers from a function and records concurrency
type stubTransport struct {
	delay   time.Duration
	answer  func(username string, call int) (instagram.Probe, error)
	calls   sync.Map // username -> *int32
	current int32
	peak    int32
}

func (s *stubTransport) Name() string { return "stub" }

func (s *stubTransport) Check(ctx context.Context, username string) (instagram.Probe, error) {
	n := atomic.AddInt32(&s.current, 1)
	defer atomic.AddInt32(&s.current, -1)
	for {
		peak := atomic.LoadInt32(&s.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&s.peak, peak, n) {
			break
		}
	}

	counter, _ := s.calls.LoadOrStore(username, new(int32))
	call := int(atomic.AddInt32(counter.(*int32), 1))

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return instagram.Probe{}, ctx.Err()
		}
	}
	return s.answer(username, call)
}

func (s *stubTransport) callsFor(username string) int {
	counter, ok := s.calls.Load(username)
	if !ok {
		return 0
	}
	return int(atomic.LoadInt32(counter.(*int32)))
}

func fastRetry(retries int) *retry.Config {
	return &retry.Config{
		MaxAttempts: retries + 1,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
	}
}

func availableIfEven(username string, _ int) (instagram.Probe, error) {
	var n int
	fmt.Sscanf(username, "user%d", &n)
	if n%2 == 0 {
		return instagram.Probe{Availability: instagram.Available, StatusCode: 404}, nil
	}
	return instagram.Probe{Availability: instagram.Unavailable, StatusCode: 200}, nil
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%d", i)
	}
	return out
}

func TestPoolBasicFunctionality(t *testing.T) {
	transport := &stubTransport{answer: availableIfEven}
	pool := NewPool(context.Background(), 3, transport, nil, fastRetry(0), logger.NewTestLogger())

	results := pool.Run(context.Background(), names(10))

	require.Len(t, results, 10)
	available := 0
	for _, r := range results {
		assert.NotEqual(t, VerdictError, r.Verdict)
		assert.Equal(t, 1, r.Attempts)
		if r.Verdict == VerdictAvailable {
			available++
			assert.Equal(t, 404, r.Status)
		}
	}
	assert.Equal(t, 5, available)
}

func TestPoolManualLifecycle(t *testing.T) {
	transport := &stubTransport{answer: availableIfEven}
	pool := NewPool(context.Background(), 2, transport, ratelimit.Unlimited, fastRetry(0), nil)
	pool.Start()

	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	for _, name := range names(6) {
		require.NoError(t, pool.Submit(name))
	}

	pool.Stop()
	wg.Wait()

	assert.Len(t, results, 6)
	assert.ErrorIs(t, pool.Submit("late"), ErrPoolStopped)

	// Stop is idempotent
	pool.Stop()
}

func TestPoolConcurrencyBound(t *testing.T) {
	for _, workers := range []int{1, 4, 20} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			transport := &stubTransport{delay: 5 * time.Millisecond, answer: availableIfEven}
			pool := NewPool(context.Background(), workers, transport, nil, fastRetry(0), logger.NewTestLogger())

			results := pool.Run(context.Background(), names(60))

			assert.Len(t, results, 60)
			assert.LessOrEqual(t, int(atomic.LoadInt32(&transport.peak)), workers)
			assert.Equal(t, 0, pool.InFlight())
		})
	}
}

func TestPoolConcurrencyDoesNotChangeVerdicts(t *testing.T) {
	collect := func(workers int) []string {
		transport := &stubTransport{delay: time.Millisecond, answer: availableIfEven}
		pool := NewPool(context.Background(), workers, transport, nil, fastRetry(0), logger.NewTestLogger())

		var available []string
		for _, r := range pool.Run(context.Background(), names(40)) {
			if r.Verdict == VerdictAvailable {
				available = append(available, r.Username)
			}
		}
		sort.Strings(available)
		return available
	}

	assert.Equal(t, collect(1), collect(20))
}

func TestPoolRetriesTransientErrors(t *testing.T) {
	// fails twice, then answers
	transport := &stubTransport{answer: func(username string, call int) (instagram.Probe, error) {
		if call <= 2 {
			return instagram.Probe{}, errs.New(errs.ErrorTypeServerError, 503, "unavailable")
		}
		return instagram.Probe{Availability: instagram.Available, StatusCode: 404}, nil
	}}

	pool := NewPool(context.Background(), 1, transport, nil, fastRetry(3), logger.NewTestLogger())
	results := pool.Run(context.Background(), []string{"flaky"})

	require.Len(t, results, 1)
	assert.Equal(t, VerdictAvailable, results[0].Verdict)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, 3, transport.callsFor("flaky"))
}

func TestPoolExhaustsRetryBudget(t *testing.T) {
	transport := &stubTransport{answer: func(username string, call int) (instagram.Probe, error) {
		if username == "broken" {
			return instagram.Probe{}, errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
		}
		return instagram.Probe{Availability: instagram.Available, StatusCode: 404}, nil
	}}

	log := logger.NewTestLogger()
	pool := NewPool(context.Background(), 2, transport, nil, fastRetry(2), log)
	results := pool.Run(context.Background(), []string{"broken", "fine"})

	require.Len(t, results, 2)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Username] = r
	}

	assert.Equal(t, VerdictError, byName["broken"].Verdict)
	assert.Equal(t, 3, byName["broken"].Attempts)
	assert.Equal(t, 3, transport.callsFor("broken"))
	assert.ErrorIs(t, byName["broken"].Err, retry.ErrMaxAttempts)
	assert.Equal(t, VerdictAvailable, byName["fine"].Verdict)
	assert.True(t, log.HasMessage("check failed after retries"))
}

func TestPoolDoesNotRetryPermanentErrors(t *testing.T) {
	transport := &stubTransport{answer: func(string, int) (instagram.Probe, error) {
		return instagram.Probe{}, errs.New(errs.ErrorTypeAuth, 401, "bad credentials")
	}}

	log := logger.NewTestLogger()
	pool := NewPool(context.Background(), 1, transport, nil, fastRetry(3), log)
	results := pool.Run(context.Background(), []string{"anyone"})

	require.Len(t, results, 1)
	assert.Equal(t, VerdictError, results[0].Verdict)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Len(t, log.GetMessagesByLevel("ERROR"), 1)
}

func TestPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &stubTransport{delay: time.Second, answer: availableIfEven}
	pool := NewPool(ctx, 2, transport, nil, fastRetry(3), logger.NewTestLogger())

	pool.Start()
	done := make(chan []Result)
	go func() {
		var results []Result
		for r := range pool.Results() {
			results = append(results, r)
		}
		done <- results
	}()

	for _, name := range names(4) {
		require.NoError(t, pool.Submit(name))
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	pool.Stop()

	select {
	case results := <-done:
		// every queued name still yields one terminal result
		assert.Len(t, results, 4)
		for _, r := range results {
			assert.Equal(t, VerdictError, r.Verdict)
			assert.True(t, errors.Is(r.Err, context.Canceled))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

func TestPoolWaitsOnRateLimiter(t *testing.T) {
	transport := &stubTransport{answer: availableIfEven}
	limiter := ratelimit.NewTokenBucket(30*time.Millisecond, 1)
	pool := NewPool(context.Background(), 4, transport, limiter, fastRetry(0), logger.NewTestLogger())

	start := time.Now()
	results := pool.Run(context.Background(), names(4))

	assert.Len(t, results, 4)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "available", VerdictAvailable.String())
	assert.Equal(t, "unavailable", VerdictUnavailable.String())
	assert.Equal(t, "error", VerdictError.String())
}

func TestPoolClampsWorkers(t *testing.T) {
	transport := &stubTransport{answer: availableIfEven}

	pool := NewPool(context.Background(), 0, transport, nil, fastRetry(0), logger.NewTestLogger())
	assert.Equal(t, 1, pool.Workers())

	results := pool.Run(context.Background(), []string{"user1", "user2"})
	assert.Len(t, results, 2)

	assert.Equal(t, 8, NewPool(context.Background(), 8, transport, nil, nil, logger.NewTestLogger()).Workers())
}
