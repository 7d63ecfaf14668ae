package checker

import (
	"context"
	"fmt"
	"time"

	"igavail/internal/runner"
	"igavail/pkg/config"
	"igavail/pkg/instagram"
	"igavail/pkg/logger"
	"igavail/pkg/ratelimit"
	"igavail/pkg/retry"
	"igavail/pkg/storage"
	"igavail/pkg/ui"
	"igavail/pkg/username"

	"golang.org/x/sync/errgroup"
)

// Summary describes a finished run
type Summary struct {
	Total       int
	Skipped     int
	Checked     int
	Available   int
	Unavailable int
	Errors      int
	Duration    time.Duration
	Transport   string
	OutputFile  string
}

// Checker wires validation, transport, retries, the worker pool and the hit writer
type Checker struct {
	transport   instagram.Transport
	validator   *username.Validator
	rateLimiter ratelimit.Limiter
	backoff     retry.BackoffStrategy
	config      *config.Config
	logger      logger.Logger
}

// New creates a Checker with the transport selected from cfg
func New(cfg *config.Config, log logger.Logger) (*Checker, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	transport, err := instagram.NewTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(cfg, transport, log), nil
}

// NewWithTransport creates a Checker around an existing transport
func NewWithTransport(cfg *config.Config, transport instagram.Transport, log logger.Logger) *Checker {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Checker{
		transport:   transport,
		validator:   username.NewValidator(cfg.Check.MaxUsernameLength),
		rateLimiter: ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
		backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		config: cfg,
		logger: log,
	}
}

// Transport returns the strategy this checker uses
func (c *Checker) Transport() instagram.Transport {
	return c.transport
}

// Run checks usernames and appends the available ones to the output file.
// Per-username failures never fail the run; an error means the output could not
// be opened or written, or ctx was cancelled.
func (c *Checker) Run(ctx context.Context, usernames []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		Total:      len(usernames),
		Transport:  c.transport.Name(),
		OutputFile: c.config.Check.OutputFile,
	}

	valid, skipped := c.validator.Filter(usernames)
	summary.Skipped = len(skipped)

	if len(skipped) > 0 {
		c.logger.InfoWithFields("skipping invalid usernames", map[string]interface{}{
			"count": len(skipped),
		})
		ui.PrintInfo("Skipping invalid usernames", fmt.Sprintf("%d", len(skipped)))
	}

	if len(valid) == 0 {
		c.logger.Info("no valid usernames to check")
		ui.PrintWarning("No valid usernames to check")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	writer, err := storage.OpenHitWriter(c.config.Check.OutputFile)
	if err != nil {
		return summary, err
	}
	defer writer.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	retryCfg := retry.FromRetries(runCtx, c.config.Check.Retries, c.backoff, c.logger)
	pool := runner.NewPool(runCtx, c.config.Check.Concurrency, c.transport, c.rateLimiter, retryCfg, c.logger)
	tracker := ui.NewStatusTracker(len(valid))

	c.logger.InfoWithFields("starting run", map[string]interface{}{
		"usernames":   len(valid),
		"transport":   c.transport.Name(),
		"concurrency": pool.Workers(),
		"retries":     c.config.Check.Retries,
		"output":      writer.Path(),
	})

	pool.Start()

	var g errgroup.Group

	g.Go(func() error {
		defer pool.Stop()
		for _, name := range valid {
			if err := pool.Submit(name); err != nil {
				c.logger.DebugWithFields("stopped submitting", map[string]interface{}{
					"error": err.Error(),
				})
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		var writeErr error
		for result := range pool.Results() {
			if err := c.record(runCtx, result, writer, tracker); err != nil && writeErr == nil {
				writeErr = err
				cancel()
			}
		}
		return writeErr
	})

	runErr := g.Wait()

	summary.Checked = tracker.Checked()
	summary.Available = tracker.Available()
	summary.Unavailable = tracker.Unavailable()
	summary.Errors = tracker.Errors()
	summary.Duration = time.Since(start)

	if closeErr := writer.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	c.logger.InfoWithFields("run finished", map[string]interface{}{
		"checked":     summary.Checked,
		"available":   summary.Available,
		"unavailable": summary.Unavailable,
		"errors":      summary.Errors,
		"skipped":     summary.Skipped,
		"duration":    summary.Duration,
	})
	tracker.PrintSummary(summary.Skipped, writer.Path())

	if runErr != nil {
		return summary, runErr
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

// record handles one terminal result. Only a failed write is returned.
func (c *Checker) record(ctx context.Context, result runner.Result, writer *storage.HitWriter, tracker *ui.StatusTracker) error {
	url := instagram.ProfileURL(result.Username)

	switch result.Verdict {
	case runner.VerdictAvailable:
		if err := writer.Append(result.Username); err != nil {
			tracker.IncrementErrors()
			c.logger.WithError(err).WithField("username", result.Username).Error("failed to record available username")
			return err
		}
		tracker.IncrementAvailable()
		ui.PrintAvailable(url)

	case runner.VerdictUnavailable:
		tracker.IncrementUnavailable()
		ui.PrintUnavailable(url, result.Status)

	default:
		tracker.IncrementErrors()
		if ctx.Err() == nil {
			ui.PrintError(fmt.Sprintf("[ERROR] %s", result.Username), result.Err)
		}
	}

	return nil
}
