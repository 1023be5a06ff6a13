package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	result, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, StateClosed, cb.CurrentState())
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	wantErr := errors.New("downstream unavailable")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Nil(t, result)
	assert.Equal(t, StateClosed, cb.CurrentState())
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := uint32(0); i < cb.maxFailures; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("boom")
		})
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, cb.CurrentState())

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("request must not run while the breaker is open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := uint32(0); i < cb.maxFailures-1; i++ {
		cb.Execute(ctx, func() (any, error) { return nil, errors.New("boom") })
	}
	cb.Execute(ctx, func() (any, error) { return nil, nil })
	cb.Execute(ctx, func() (any, error) { return nil, errors.New("boom") })

	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 12)
	assert.Equal(t, code, string([]rune(code)), "code must be plain ASCII hex")

	other, err := GenerateCode(6)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}
