// Package runner dispatches username checks onto a bounded worker pool.
//
// Each worker takes a username, waits on the rate limiter, calls the transport
// through the retry wrapper and emits exactly one Result. Completion order is
// not submission order.
package runner
