package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrRetryExhausted is matched by every error returned from Do after the final attempt.
var ErrRetryExhausted = errors.New("retry exhausted")

// Policy bounds the number of attempts and the first backoff delay.
// The delay doubles after each failed attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// ExhaustedError wraps the cause of the last failed attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetryExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// Do invokes op until it succeeds or p.MaxAttempts attempts have been made.
// Intermediate failures are dropped; only the final cause is reported.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	made := 0
	result, err := backoff.RetryWithData[T](func() (T, error) {
		made++
		return op(ctx)
	}, p.backOff(ctx, attempts))
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && made < attempts {
		return zero, ctxErr
	}
	return zero, &ExhaustedError{Attempts: made, Err: err}
}

// backOff doubles InitialDelay after every failure, without jitter or an elapsed-time cap
func (p Policy) backOff(ctx context.Context, attempts int) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}
