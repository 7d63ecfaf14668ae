// Package retry provides bounded retries with exponential backoff for transient
// transport failures.
//
// A retry budget of N means N+1 attempts in total:
//
//	cfg := retry.FromRetries(ctx, 3, retry.DefaultExponentialBackoff(), log)
//	probe, err := retry.DoWithResult(func() (instagram.Probe, error) {
//		return transport.Check(ctx, name)
//	}, cfg)
//
// Only errors accepted by Config.RetryIf are retried. DefaultRetryIf consults the
// type of a *errors.Error, refuses context cancellation and retries anything else.
// A successful result is returned as soon as it is produced.
//
// ExponentialBackoff.Delay is the deterministic schedule; NextDelay adds jitter.
package retry
