package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker()

	for i := 0; i < 20; i++ {
		assert.NoError(t, cb.Call(func() error { return nil }))
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAboveErrorThreshold(t *testing.T) {
	cb := NewCircuitBreaker()
	failure := errors.New("telegram 5xx")

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return failure })
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_ToleratesLowErrorRate(t *testing.T) {
	cb := NewCircuitBreaker()
	failure := errors.New("telegram 5xx")

	for i := 0; i < 20; i++ {
		if i%5 == 0 {
			_ = cb.Call(func() error { return failure })
		} else {
			_ = cb.Call(func() error { return nil })
		}
	}

	assert.Equal(t, StateClosed, cb.State())
}
