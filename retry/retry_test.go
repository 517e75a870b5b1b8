package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-nagbot/retry"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky upstream")

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	start := time.Now()

	result, err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errFlaky
			}
			return "ok", nil
		})

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, calls)
	require.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestDo_FirstSuccessNoDelay(t *testing.T) {
	calls := 0
	result, err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 5, InitialDelay: time.Hour},
		func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 1, calls)
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	lastErr := errors.New("final failure")

	_, err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond},
		func(context.Context) (struct{}, error) {
			calls++
			if calls == 3 {
				return struct{}{}, lastErr
			}
			return struct{}{}, errFlaky
		})

	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.ErrorIs(t, err, retry.ErrRetryExhausted)
	require.ErrorIs(t, err, lastErr)
	require.NotErrorIs(t, err, errFlaky)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), retry.Policy{}, func(context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	require.ErrorIs(t, err, retry.ErrRetryExhausted)
	require.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := retry.Do(ctx, retry.Policy{MaxAttempts: 3, InitialDelay: time.Hour},
		func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errFlaky
		})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
