// Package retry provides exponential backoff and retry logic for transient
// failures: page navigations that time out and Google Sheets calls that
// hit a quota.
//
// Features:
//   - Exponential, linear and constant backoff, with jitter
//   - Context cancellation during the wait
//   - Per-error backoff through BackoffFor
//   - Retry predicates driven by the error kinds of pkg/errors
//
// Basic usage:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return page.Context(ctx).Navigate(url)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		BackoffFor:  retry.NewErrorTypeBackoff().ForError,
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//		Op:          "navigate",
//	})
//
// Error kinds:
//   - Navigation and network errors: quick exponential retries
//   - Sheets quota errors: longer, gentler backoff
//   - Auth, config, parsing and export errors: never retried
package retry
