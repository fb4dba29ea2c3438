package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetry_SucceedsAfterRetryableError(t *testing.T) {
	// Given: a function that reports a locked store twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeStoreLocked, "run history is locked", nil)
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetry(), fn)

	// Then: it succeeds on the third attempt
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return errors.New("disk on fire")
	}

	err := Retry(context.Background(), fastRetry(), fn)

	assert.EqualError(t, err, "disk on fire")
	assert.Equal(t, 1, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return New(ErrCodeStoreLocked, "run history is locked", nil)
	}

	err := Retry(context.Background(), fastRetry(), fn)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.Equal(t, ErrCodeStoreLocked, GetCode(err))
	assert.Equal(t, 4, attempts)
}

func TestRetry_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Retry(ctx, fastRetry(), func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
