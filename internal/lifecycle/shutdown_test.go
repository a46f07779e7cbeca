package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_RunsEveryHook(t *testing.T) {
	shutdown := NewShutdown(testLogger())

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		shutdown.Register("hook", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	require.NoError(t, shutdown.Execute(context.Background()))
	assert.Equal(t, int32(3), ran.Load())
}

func TestShutdown_CollectsEveryHookFailure(t *testing.T) {
	shutdown := NewShutdown(testLogger())

	botErr := errors.New("telegram stop failed")
	schedErr := errors.New("scheduler drain failed")

	shutdown.Register("telegram-bot", func(context.Context) error { return botErr })
	shutdown.Register("scheduler", func(context.Context) error { return schedErr })
	shutdown.Register("http", func(context.Context) error { return nil })

	err := shutdown.Execute(context.Background())
	require.Error(t, err)

	// a failed hook never hides another one
	assert.ErrorIs(t, err, botErr)
	assert.ErrorIs(t, err, schedErr)
	assert.Contains(t, err.Error(), "telegram-bot")
	assert.Contains(t, err.Error(), "scheduler")
}

func TestShutdown_NilHookIsIgnored(t *testing.T) {
	shutdown := NewShutdown(testLogger())
	shutdown.Register("noop", nil)

	assert.NoError(t, shutdown.Execute(context.Background()))
}
