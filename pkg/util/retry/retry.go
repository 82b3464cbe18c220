package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/opencost/gputco/pkg/util/defaults"
)

// ErrRetryCancelled is returned when the context is cancelled before a successful attempt.
var ErrRetryCancelled = errors.New("retry cancelled")

// IsRetryCancelledError returns true if the error was a cancellation
func IsRetryCancelledError(err error) bool {
	return errors.Is(err, ErrRetryCancelled)
}

// Retry runs f until it returns a nil error, attempts are exhausted, or ctx is cancelled. The
// delay between attempts grows by a random jitter of up to half the previous delay.
func Retry[T any](ctx context.Context, f func() (T, error), attempts uint, delay time.Duration) (T, error) {
	var result T
	var err error

	d := delay
	for r := attempts; r > 0; r-- {
		select {
		case <-ctx.Done():
			return defaults.Default[T](), ErrRetryCancelled
		default:
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		// no sleep after the final attempt
		if r == 1 {
			break
		}

		select {
		case <-ctx.Done():
			return defaults.Default[T](), ErrRetryCancelled
		case <-time.After(d):
		}

		if d > 0 {
			jitter := time.Duration(rand.Int63n(int64(d))) // #nosec not security sensitive
			d = d + jitter/2
		}
	}

	return result, err
}
