// Package ratelimit gates outbound checks with a token bucket.
//
// The bucket is golang.org/x/time/rate. New takes a requests-per-minute budget
// and a burst size; a budget of zero returns Unlimited, which never blocks.
//
//	limiter := ratelimit.New(120, 5)
//	if err := limiter.Wait(ctx); err != nil {
//		return err // ctx cancelled
//	}
//	// proceed with request
//
// Every transport attempt waits on the limiter, retries included, so the budget
// reflects requests actually sent.
package ratelimit
