// Package notify delivers rendered notifications through the messaging
// transport. All sends go through the Notifier so failure isolation, the
// circuit breaker, pacing and metrics live in one place.
package notify

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/errors"
	"github.com/gaponukz/cobraBot/internal/ratelimit"
	"github.com/gaponukz/cobraBot/pkg/metrics"
)

// Sender delivers one message to one recipient. A failed call affects only
// that recipient.
type Sender interface {
	Send(ctx context.Context, recipientID int64, message string) error
}

// Options tune delivery behavior.
type Options struct {
	// SendTimeout bounds a single transport call so one hung send cannot
	// stall the rest of a broadcast or the poll tick.
	SendTimeout time.Duration
	// RateLimit/RateWindow pace outbound sends; zero disables pacing.
	RateLimit  int
	RateWindow time.Duration
}

// Notifier fans messages out to recipients with per-recipient failure
// isolation.
type Notifier struct {
	sender  Sender
	breaker *errors.CircuitBreaker
	limiter ratelimit.Limiter
	opts    Options
	log     *slog.Logger
}

// New constructs a Notifier. limiter may be nil when pacing is disabled.
func New(sender Sender, limiter ratelimit.Limiter, opts Options, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}

	return &Notifier{
		sender:  sender,
		breaker: errors.NewCircuitBreaker(),
		limiter: limiter,
		opts:    opts,
		log:     log,
	}
}

// Send delivers one message, bounded by the send timeout and guarded by the
// circuit breaker. The error is returned for accounting; callers never let it
// propagate past the dispatch layer.
func (n *Notifier) Send(ctx context.Context, kind string, recipientID int64, message string) error {
	n.waitTurn(ctx)

	sendCtx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
	defer cancel()

	start := time.Now()
	err := n.breaker.Call(func() error {
		return n.sender.Send(sendCtx, recipientID, message)
	})
	metrics.RecordSend(kind, err, time.Since(start))

	if err != nil && !stdErrors.Is(err, errors.ErrCircuitOpen) {
		n.log.Error("notification send failed",
			slog.String("kind", kind),
			slog.Int64("recipient_id", recipientID),
			slog.Any("error", err),
		)
	}

	return err
}

// Broadcast sends a per-recipient rendered message to every user, in the
// given order. A failed send never stops the remaining recipients; the number
// of failures is returned for observability.
func (n *Notifier) Broadcast(ctx context.Context, kind string, users []*domain.User, render func(*domain.User) string) int {
	failures := 0

	for _, user := range users {
		if user == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return failures
		default:
		}

		if err := n.Send(ctx, kind, user.ID, render(user)); err != nil {
			failures++
		}
	}

	if failures > 0 {
		n.log.Warn("broadcast finished with failures",
			slog.String("kind", kind),
			slog.Int("recipients", len(users)),
			slog.Int("failures", failures),
		)
	}

	return failures
}

// waitTurn blocks until the outbound pacing limiter admits the next send.
func (n *Notifier) waitTurn(ctx context.Context) {
	if n.limiter == nil || n.opts.RateLimit <= 0 || n.opts.RateWindow <= 0 {
		return
	}

	for {
		result, err := n.limiter.Check(ctx, "outbound", n.opts.RateLimit, n.opts.RateWindow)
		if err == nil && result != nil && result.Allowed {
			return
		}
		if err != nil && !stdErrors.Is(err, ratelimit.ErrLimitExceeded) {
			// pacing is best-effort: a broken limiter must not block delivery
			return
		}

		wait := 50 * time.Millisecond
		if result != nil {
			if until := time.Until(result.ResetAt); until > wait {
				wait = until
			}
		}
		if wait > n.opts.RateWindow {
			wait = n.opts.RateWindow
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
