package schedule

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/notify"
)

type countingSender struct {
	mu       sync.Mutex
	messages []string
}

func (s *countingSender) Send(_ context.Context, _ int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
	return nil
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.messages)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func broadcastIn(t *testing.T, d time.Duration, message string) domain.ScheduledBroadcast {
	t.Helper()

	at := time.Now().Add(d)
	return domain.ScheduledBroadcast{
		Date: domain.FireDate{
			Year:   at.Year(),
			Month:  int(at.Month()),
			Day:    at.Day(),
			Hour:   at.Hour(),
			Minute: at.Minute(),
		},
		Message: message,
	}
}

func setupScheduler(t *testing.T, sender *countingSender) (*Scheduler, directory.Store) {
	t.Helper()

	store, err := directory.OpenFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	require.NoError(t, err)

	notifier := notify.New(sender, nil, notify.Options{}, testLogger())

	return New(store, notifier, time.Local, testLogger()), store
}

func TestScheduler_StaleEntryNeverFires(t *testing.T) {
	sender := &countingSender{}
	scheduler, store := setupScheduler(t, sender)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.User{ID: 1, Language: "en"}))

	scheduler.Start(ctx, []domain.ScheduledBroadcast{
		broadcastIn(t, -2*time.Minute, "stale"),
	})
	scheduler.Wait()

	assert.Zero(t, sender.count())
}

func TestScheduler_FutureEntryFiresOnce(t *testing.T) {
	sender := &countingSender{}
	scheduler, store := setupScheduler(t, sender)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.User{ID: 1, Language: "en"}))
	require.NoError(t, store.Insert(ctx, &domain.User{ID: 2, Language: "ru"}))

	// minute-resolution dates cannot express a near-future fire time, so arm
	// the timer directly the way Start does
	scheduler.wg.Add(1)
	go scheduler.fireAfter(ctx, testLogger(), 50*time.Millisecond, "season start")

	scheduler.Wait()

	assert.Equal(t, 2, sender.count())
}

func TestScheduler_CancelledContextStopsPendingTimers(t *testing.T) {
	sender := &countingSender{}
	scheduler, store := setupScheduler(t, sender)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, store.Insert(ctx, &domain.User{ID: 1, Language: "en"}))

	scheduler.wg.Add(1)
	go scheduler.fireAfter(ctx, testLogger(), time.Hour, "never")

	cancel()
	scheduler.Wait()

	assert.Zero(t, sender.count())
}

func TestScheduler_MembershipReadAtFireTime(t *testing.T) {
	sender := &countingSender{}
	scheduler, store := setupScheduler(t, sender)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.User{ID: 1, Language: "en"}))

	scheduler.wg.Add(1)
	go scheduler.fireAfter(ctx, testLogger(), 100*time.Millisecond, "late joiners included")

	// registered after arming, before firing
	require.NoError(t, store.Insert(ctx, &domain.User{ID: 2, Language: "en"}))

	scheduler.Wait()

	assert.Equal(t, 2, sender.count())
}

func TestLoadBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcasts.json")
	payload := `[{"date": {"year": 2026, "month": 9, "day": 15, "hour": 18, "minute": 0}, "message": "hello"}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	broadcasts, err := LoadBroadcasts(path)
	require.NoError(t, err)
	require.Len(t, broadcasts, 1)
	assert.Equal(t, "hello", broadcasts[0].Message)
	assert.Equal(t, 2026, broadcasts[0].Date.Year)
}

func TestLoadBroadcasts_MissingFileIsEmptySchedule(t *testing.T) {
	broadcasts, err := LoadBroadcasts(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, broadcasts)
}
