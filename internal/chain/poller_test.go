package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaponukz/cobraBot/internal/domain"
)

type fakeFilter struct {
	kind domain.EventKind

	mu      sync.Mutex
	batches [][]domain.Event
	errs    []error
}

func (f *fakeFilter) Kind() domain.EventKind { return f.kind }

func (f *fakeFilter) Poll(context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}

	if len(f.batches) == 0 {
		return nil, nil
	}

	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type fakeSource struct {
	mu      sync.Mutex
	filters map[domain.EventKind]*fakeFilter
}

func (s *fakeSource) Subscribe(_ context.Context, kind domain.EventKind) (Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.filters[kind]; ok {
		return f, nil
	}
	return &fakeFilter{kind: kind}, nil
}

type collectingHandler struct {
	mu     sync.Mutex
	events []domain.Event
}

func (h *collectingHandler) Handle(_ context.Context, event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
}

func (h *collectingHandler) collected() []domain.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]domain.Event(nil), h.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runPoller(t *testing.T, source Source, handler Handler, runFor time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), runFor)
	defer cancel()

	poller := NewPoller(source, handler, 10*time.Millisecond, testLogger())
	err := poller.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoller_DeliversBatchInOrder(t *testing.T) {
	first := domain.GamePaymentEvent{Account: "0xaaa", GameID: 1}
	second := domain.GamePaymentEvent{Account: "0xbbb", GameID: 2}
	third := domain.GamePaymentEvent{Account: "0xccc", GameID: 3}

	source := &fakeSource{filters: map[domain.EventKind]*fakeFilter{
		domain.KindGamePayment: {
			kind:    domain.KindGamePayment,
			batches: [][]domain.Event{{first, second}, {third}},
		},
	}}
	handler := &collectingHandler{}

	runPoller(t, source, handler, 200*time.Millisecond)

	events := handler.collected()
	require.Len(t, events, 3)
	assert.Equal(t, first, events[0])
	assert.Equal(t, second, events[1])
	assert.Equal(t, third, events[2])
}

func TestPoller_SurvivesPollFailures(t *testing.T) {
	event := domain.NewGameEvent{Amount: big.NewInt(1), GameID: 0}

	source := &fakeSource{filters: map[domain.EventKind]*fakeFilter{
		domain.KindNewGame: {
			kind: domain.KindNewGame,
			// two failed ticks, then a successful one
			errs:    []error{errors.New("rpc down"), errors.New("rpc down")},
			batches: [][]domain.Event{{event}},
		},
	}}
	handler := &collectingHandler{}

	runPoller(t, source, handler, 300*time.Millisecond)

	events := handler.collected()
	require.Len(t, events, 1)
	assert.Equal(t, event, events[0])
}

func TestPoller_FailingFilterDoesNotBlockOthers(t *testing.T) {
	event := domain.WinnerPaymentEvent{Winner: "0xddd", Amount: big.NewInt(2), GameID: 7}

	brokenErrs := make([]error, 50)
	for i := range brokenErrs {
		brokenErrs[i] = errors.New("rpc down")
	}

	source := &fakeSource{filters: map[domain.EventKind]*fakeFilter{
		domain.KindNewGame: {
			kind: domain.KindNewGame,
			errs: brokenErrs,
		},
		domain.KindWinnerPayment: {
			kind:    domain.KindWinnerPayment,
			batches: [][]domain.Event{{event}},
		},
	}}
	handler := &collectingHandler{}

	runPoller(t, source, handler, 200*time.Millisecond)

	events := handler.collected()
	require.NotEmpty(t, events)
	assert.Equal(t, event, events[0])
}

func TestPoller_SubscribeFailurePropagates(t *testing.T) {
	source := failingSource{err: errors.New("bad topic")}

	poller := NewPoller(source, &collectingHandler{}, time.Millisecond, testLogger())
	err := poller.Run(context.Background())
	assert.Error(t, err)
}

type failingSource struct {
	err error
}

func (s failingSource) Subscribe(context.Context, domain.EventKind) (Filter, error) {
	return nil, s.err
}
