package chain

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/errors"
	"github.com/gaponukz/cobraBot/pkg/metrics"
)

// Handler consumes one decoded event. Satisfied by dispatch.Dispatcher.
type Handler interface {
	Handle(ctx context.Context, event domain.Event)
}

// Poller drives the subscribed filters on a fixed interval and feeds every
// new entry to the handler. Entries of one filter are dispatched, in arrival
// order, before the next filter is drained.
type Poller struct {
	source   Source
	handler  Handler
	interval time.Duration
	log      *slog.Logger
}

// NewPoller constructs a Poller.
func NewPoller(source Source, handler Handler, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Poller{
		source:   source,
		handler:  handler,
		interval: interval,
		log:      log,
	}
}

// Run subscribes every event kind and polls until ctx is cancelled. A failed
// poll is retried with backoff and then skipped until the next tick; the loop
// itself never dies on source trouble.
func (p *Poller) Run(ctx context.Context) error {
	filters := make([]Filter, 0, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		filter, err := p.source.Subscribe(ctx, kind)
		if err != nil {
			return err
		}
		filters = append(filters, filter)
	}

	p.log.Info("event poller started",
		slog.Int("filters", len(filters)),
		slog.Duration("interval", p.interval),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("event poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx, filters)
		}
	}
}

func (p *Poller) tick(ctx context.Context, filters []Filter) {
	for _, filter := range filters {
		var events []domain.Event

		err := errors.WithRetry(ctx, func() error {
			polled, pollErr := filter.Poll(ctx)
			if pollErr != nil {
				return pollErr
			}
			events = polled
			return nil
		})
		if err != nil {
			metrics.RecordPollError()
			p.log.Error("source poll failed",
				slog.String("kind", string(filter.Kind())),
				slog.Any("error", err),
			)
			continue
		}

		if len(events) == 0 {
			continue
		}

		batchID := uuid.NewString()
		p.log.Debug("dispatching event batch",
			slog.String("batch_id", batchID),
			slog.String("kind", string(filter.Kind())),
			slog.Int("events", len(events)),
		)

		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			default:
			}
			p.handler.Handle(ctx, event)
		}
	}
}

// SourceChecker probes the event source for the health endpoint.
type SourceChecker struct {
	source Source
}

// NewSourceChecker wraps a source for health checking.
func NewSourceChecker(source Source) *SourceChecker {
	return &SourceChecker{source: source}
}

// HealthCheck installs a probe filter to confirm the endpoint responds.
func (c *SourceChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.source == nil {
		return stdErrors.New("event source is not configured")
	}

	_, err := c.source.Subscribe(ctx, domain.KindNewGame)
	return err
}
