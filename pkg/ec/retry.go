package ec

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retry runs the provided function up to attempts times with a fixed delay
// between attempts. Only errors matching the predicate are retried, any other
// error aborts immediately and is returned as is.
func retry(fn func() error, attempts uint64, delay time.Duration, retryable func(error) bool) error {
	// wrap non retryable errors as permanent
	op := func() error {
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	// run with constant spacing
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), attempts-1))
}
