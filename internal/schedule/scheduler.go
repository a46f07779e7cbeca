// Package schedule fires one-shot broadcast announcements at fixed
// wall-clock times.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/notify"
	"github.com/gaponukz/cobraBot/pkg/metrics"
)

// LoadBroadcasts reads the schedule file. A missing file means an empty
// schedule, not an error.
func LoadBroadcasts(path string) ([]domain.ScheduledBroadcast, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read broadcasts file %q: %w", path, err)
	}

	var broadcasts []domain.ScheduledBroadcast
	if err := json.Unmarshal(data, &broadcasts); err != nil {
		return nil, fmt.Errorf("decode broadcasts file %q: %w", path, err)
	}

	return broadcasts, nil
}

// Scheduler owns the pending one-shot broadcasts. Each entry gets its own
// timer goroutine; an entry whose fire time already passed is dropped at
// startup so restarts never replay stale announcements.
type Scheduler struct {
	store    directory.Store
	notifier *notify.Notifier
	loc      *time.Location
	log      *slog.Logger

	wg sync.WaitGroup
}

// New constructs a Scheduler. loc defaults to the local timezone.
func New(store directory.Store, notifier *notify.Notifier, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		store:    store,
		notifier: notifier,
		loc:      loc,
		log:      log,
	}
}

// Start arms a timer for every future entry and drops the stale ones. It
// returns immediately; timers fire on their own goroutines until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context, broadcasts []domain.ScheduledBroadcast) {
	now := time.Now()

	for _, broadcast := range broadcasts {
		fireAt := broadcast.FireAt(s.loc)
		delay := fireAt.Sub(now)

		jobID := uuid.NewString()
		log := s.log.With(
			slog.String("job_id", jobID),
			slog.Time("fire_at", fireAt),
		)

		if delay <= 0 {
			metrics.RecordScheduledBroadcast("dropped")
			log.Warn("dropping stale scheduled broadcast")
			continue
		}

		log.Info("scheduled broadcast armed", slog.Duration("delay", delay))

		s.wg.Add(1)
		go s.fireAfter(ctx, log, delay, broadcast.Message)
	}
}

// Wait blocks until every armed timer has fired or been cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) fireAfter(ctx context.Context, log *slog.Logger, delay time.Duration, message string) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	// membership is read at fire time: users registered after arming are
	// included, users registered after firing are not
	users, err := s.store.All(ctx)
	if err != nil {
		metrics.RecordScheduledBroadcast("failed")
		log.Error("scheduled broadcast failed to list recipients", slog.Any("error", err))
		return
	}

	failures := s.notifier.Broadcast(ctx, "scheduled", users, func(*domain.User) string {
		return message
	})

	metrics.RecordScheduledBroadcast("fired")
	log.Info("scheduled broadcast fired",
		slog.Int("recipients", len(users)),
		slog.Int("failures", failures),
	)
}
