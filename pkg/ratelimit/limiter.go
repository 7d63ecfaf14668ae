package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket is a token bucket limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	lim *rate.Limiter
}

// NewTokenBucket allows one request every interval with bursts of up to burst requests
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{lim: rate.NewLimiter(rate.Every(interval), burst)}
}

// New returns a limiter for requestsPerMinute. Zero or less means no limit.
func New(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited
	}
	return NewTokenBucket(time.Minute/time.Duration(requestsPerMinute), burst)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.lim.Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.lim.Wait(ctx)
}

// Burst returns the bucket capacity
func (tb *TokenBucket) Burst() int {
	return tb.lim.Burst()
}

// Every returns the interval between refills
func (tb *TokenBucket) Every() time.Duration {
	limit := tb.lim.Limit()
	if limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}

type unlimited struct{}

// Unlimited never blocks
var Unlimited Limiter = unlimited{}

func (unlimited) Allow() bool { return true }

func (unlimited) Wait(ctx context.Context) error { return ctx.Err() }
