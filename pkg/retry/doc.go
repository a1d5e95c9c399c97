// Package retry provides bounded retry logic for handling transient
// failures in network operations, particularly catalog API calls.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the application's error types
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Ping()
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// Reusable retrier, rebound to a context per call
//	r := retry.NewRetrier(cfg).WithMaxAttempts(3).WithBackoff(&retry.ConstantBackoff{})
//	var page *douyin.CatalogPage
//	err := r.WithContext(ctx).Do(func() error {
//		p, err := client.FetchCatalogPage(ctx, secUID, cursor)
//		if err != nil {
//			return err
//		}
//		page = p
//		return nil
//	})
//
// Network, rate limit and server errors are retried by the default
// predicate; auth and not-found errors are not.
package retry
