package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	errs "igavail/pkg/errors"
	"igavail/pkg/instagram"
	"igavail/pkg/logger"
	"igavail/pkg/ratelimit"
	"igavail/pkg/retry"
)

// ErrPoolStopped is returned by Submit once the pool no longer accepts work
var ErrPoolStopped = errors.New("worker pool is shutting down")

// Pool runs username checks on a fixed number of workers.
// At most workers transport calls are in flight at any time.
type Pool struct {
	numWorkers  int
	jobQueue    chan string
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	transport   instagram.Transport
	rateLimiter ratelimit.Limiter
	retryCfg    retry.Config
	logger      logger.Logger

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
	inFlight atomic.Int32
}

// NewPool creates a pool bound to ctx. Cancelling ctx aborts in-flight checks;
// their results are still delivered as errors.
func NewPool(
	ctx context.Context,
	numWorkers int,
	transport instagram.Transport,
	rateLimiter ratelimit.Limiter,
	retryCfg *retry.Config,
	log logger.Logger,
) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited
	}
	if log == nil {
		log = logger.GetLogger()
	}

	cfg := retry.Config{MaxAttempts: 1}
	if retryCfg != nil {
		cfg = *retryCfg
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan string, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         poolCtx,
		cancel:      cancel,
		transport:   transport,
		rateLimiter: rateLimiter,
		retryCfg:    cfg,
		logger:      log,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
		"transport":   p.transport.Name(),
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results.
// Results must be drained concurrently or Stop blocks.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()

		p.wg.Wait()
		close(p.resultQueue)
		p.cancel()

		p.logger.Debug("worker pool stopped")
	})
}

// Submit queues a username. It blocks while the queue is full.
func (p *Pool) Submit(username string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobQueue <- username:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("%w: %w", ErrPoolStopped, p.ctx.Err())
	}
}

// Results returns the channel of terminal results. It is closed by Stop.
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

// Run checks every username and returns the results in completion order.
// Usernames not yet submitted when ctx is cancelled are left out.
func (p *Pool) Run(ctx context.Context, usernames []string) []Result {
	p.Start()

	go func() {
		defer p.Stop()
		for _, name := range usernames {
			if ctx.Err() != nil {
				return
			}
			if err := p.Submit(name); err != nil {
				return
			}
		}
	}()

	results := make([]Result, 0, len(usernames))
	for result := range p.Results() {
		results = append(results, result)
	}
	return results
}

// InFlight returns the number of checks currently executing
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Workers returns the pool size after clamping to at least one
func (p *Pool) Workers() int {
	return p.numWorkers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	// every dequeued name yields a result, even after cancellation
	for username := range p.jobQueue {
		p.resultQueue <- p.check(username, id)
	}
}

func (p *Pool) check(username string, workerID int) Result {
	start := time.Now()
	result := Result{Username: username}

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	cfg := p.retryCfg
	cfg.Context = p.ctx
	if cfg.Logger == nil {
		cfg.Logger = p.logger
	}
	cfg.Logger = cfg.Logger.WithField("username", username)

	probe, err := retry.DoWithResult(func() (instagram.Probe, error) {
		result.Attempts++
		if err := p.rateLimiter.Wait(p.ctx); err != nil {
			return instagram.Probe{}, fmt.Errorf("rate limiter: %w", err)
		}
		return p.transport.Check(p.ctx, username)
	}, &cfg)

	result.Duration = time.Since(start)
	result.Status = probe.StatusCode

	if err != nil {
		result.Verdict = VerdictError
		result.Err = err
		p.logFailure(result, workerID)
		return result
	}

	if probe.Availability == instagram.Available {
		result.Verdict = VerdictAvailable
	} else {
		result.Verdict = VerdictUnavailable
	}

	p.logger.DebugWithFields("check completed", map[string]interface{}{
		"worker_id": workerID,
		"username":  username,
		"verdict":   result.Verdict.String(),
		"status":    result.Status,
		"attempts":  result.Attempts,
		"duration":  result.Duration,
	})

	return result
}

func (p *Pool) logFailure(result Result, workerID int) {
	fields := map[string]interface{}{
		"worker_id": workerID,
		"username":  result.Username,
		"attempts":  result.Attempts,
		"error":     result.Err.Error(),
	}

	var apiErr *errs.Error
	switch {
	case p.ctx.Err() != nil:
		p.logger.DebugWithFields("check cancelled", fields)
	case errors.As(result.Err, &apiErr) && !errs.IsRetryable(apiErr.Type):
		fields["type"] = string(apiErr.Type)
		p.logger.ErrorWithFields("check failed permanently", fields)
	default:
		p.logger.WarnWithFields("check failed after retries", fields)
	}
}
