// Package retry runs an operation again with exponential backoff and jitter
// while a caller-supplied predicate classifies its error as transient.
//
//	err := retry.DoWithRetryable(ctx, retry.DefaultConfig(), op, isBusy)
//
// Time is injectable through Config.Now and Config.After for tests.
package retry
