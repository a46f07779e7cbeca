package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaponukz/cobraBot/internal/domain"
)

type scriptedSender struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]error
}

func (s *scriptedSender) Send(_ context.Context, recipientID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, recipientID)
	if err, ok := s.fail[recipientID]; ok {
		return err
	}
	return nil
}

func (s *scriptedSender) recipients() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int64(nil), s.calls...)
}

type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, _ int64, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUsers(ids ...int64) []*domain.User {
	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, &domain.User{ID: id, Language: "en"})
	}
	return users
}

func TestNotifier_BroadcastIsolatesFailures(t *testing.T) {
	sender := &scriptedSender{fail: map[int64]error{2: errors.New("blocked by user")}}
	notifier := New(sender, nil, Options{}, testLogger())

	failures := notifier.Broadcast(context.Background(), "NewGame", testUsers(1, 2, 3), func(u *domain.User) string {
		return "hello"
	})

	assert.Equal(t, 1, failures)
	assert.Equal(t, []int64{1, 2, 3}, sender.recipients())
}

func TestNotifier_BroadcastPreservesOrder(t *testing.T) {
	sender := &scriptedSender{}
	notifier := New(sender, nil, Options{}, testLogger())

	notifier.Broadcast(context.Background(), "scheduled", testUsers(5, 3, 9, 1), func(*domain.User) string {
		return "announcement"
	})

	assert.Equal(t, []int64{5, 3, 9, 1}, sender.recipients())
}

func TestNotifier_BroadcastStopsOnCancelledContext(t *testing.T) {
	sender := &scriptedSender{}
	notifier := New(sender, nil, Options{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier.Broadcast(ctx, "NewGame", testUsers(1, 2), func(*domain.User) string { return "x" })

	assert.Empty(t, sender.recipients())
}

func TestNotifier_SendTimeoutBoundsHungTransport(t *testing.T) {
	notifier := New(blockingSender{}, nil, Options{SendTimeout: 50 * time.Millisecond}, testLogger())

	start := time.Now()
	err := notifier.Send(context.Background(), "NewGame", 1, "hello")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Second)
}
