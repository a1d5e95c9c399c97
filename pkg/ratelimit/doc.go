// Package ratelimit provides request pacing for the catalog API calls.
//
// The remote platform tolerates a personal-use download tool, but only a
// polite one. This package implements the pacing algorithms the client
// waits on before every catalog and video request.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Allows short bursts followed by quiet periods
//   - Default strategy (rate_limit.strategy: token_bucket)
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//   - Better for consistent request patterns
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait(ctx) error - Block until a request is allowed or ctx is canceled
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Built from config: 60 requests per minute, bursts of 5
//	limiter := ratelimit.New("token_bucket", 60, 5)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // canceled while waiting
//	}
//	// Proceed with request
//
//	// Sliding window: 100 requests per 15 minutes
//	limiter := ratelimit.NewSlidingWindow(100, 15*time.Minute)
package ratelimit
