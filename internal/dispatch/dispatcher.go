// Package dispatch routes decoded contract events to notifications.
package dispatch

import (
	"context"
	stdErrors "errors"
	"log/slog"

	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/i18n"
	"github.com/gaponukz/cobraBot/internal/notify"
	"github.com/gaponukz/cobraBot/pkg/metrics"
)

// Dispatcher maps one event to zero or more notifications and attempts
// delivery of each. It never returns an error: a failed lookup or send is
// logged and counted, not propagated into the poll loop.
type Dispatcher struct {
	store    directory.Store
	notifier *notify.Notifier
	catalogs *i18n.Manager
	log      *slog.Logger
}

// New constructs a Dispatcher.
func New(store directory.Store, notifier *notify.Notifier, catalogs *i18n.Manager, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		store:    store,
		notifier: notifier,
		catalogs: catalogs,
		log:      log,
	}
}

// Handle processes one event according to the routing table:
//
//	NewGame            -> broadcast to every directory member
//	GamePaymentEvent   -> the user holding args.account
//	ReferalPayment     -> the user holding referral id args.to
//	NewUserRegistered  -> the user holding referral id args.inviterId
//	WinnerPayment      -> the user holding args.winner
//
// Unmatched lookups skip silently; unrecognized kinds are ignored.
func (d *Dispatcher) Handle(ctx context.Context, event domain.Event) {
	if event == nil {
		return
	}

	metrics.RecordEvent(string(event.Kind()))

	switch ev := event.(type) {
	case domain.NewGameEvent:
		d.handleNewGame(ctx, ev)
	case domain.GamePaymentEvent:
		d.handleGamePayment(ctx, ev)
	case domain.ReferralPaymentEvent:
		d.handleReferralPayment(ctx, ev)
	case domain.NewUserRegisteredEvent:
		d.handleNewUserRegistered(ctx, ev)
	case domain.WinnerPaymentEvent:
		d.handleWinnerPayment(ctx, ev)
	default:
		d.log.Debug("ignoring unrecognized event kind", slog.String("kind", string(event.Kind())))
	}
}

func (d *Dispatcher) handleNewGame(ctx context.Context, ev domain.NewGameEvent) {
	users, err := d.store.All(ctx)
	if err != nil {
		d.log.Error("failed to list directory members", slog.Any("error", err))
		return
	}

	price := domain.FromWei(ev.Amount)
	gameID := domain.DisplayGameID(ev.GameID)

	d.notifier.Broadcast(ctx, string(ev.Kind()), users, func(user *domain.User) string {
		return d.catalogs.Translator(user.Language).Render("notify.new_game", price, gameID)
	})
}

func (d *Dispatcher) handleGamePayment(ctx context.Context, ev domain.GamePaymentEvent) {
	user, ok := d.resolve(ctx, ev.Kind(), func() (*domain.User, error) {
		return d.store.FindByAddress(ctx, ev.Account)
	})
	if !ok {
		return
	}

	refID := ""
	if user.RefID != nil {
		refID = *user.RefID
	}

	message := d.catalogs.Translator(user.Language).
		Render("notify.new_payment", domain.DisplayGameID(ev.GameID), refID)
	_ = d.notifier.Send(ctx, string(ev.Kind()), user.ID, message)
}

func (d *Dispatcher) handleReferralPayment(ctx context.Context, ev domain.ReferralPaymentEvent) {
	user, ok := d.resolve(ctx, ev.Kind(), func() (*domain.User, error) {
		return d.store.FindByRefID(ctx, ev.To)
	})
	if !ok {
		return
	}

	message := d.catalogs.Translator(user.Language).
		Render("notify.new_referral_payment", domain.FromWei(ev.Amount), ev.To, domain.DisplayGameID(ev.GameID), ev.From)
	_ = d.notifier.Send(ctx, string(ev.Kind()), user.ID, message)
}

func (d *Dispatcher) handleNewUserRegistered(ctx context.Context, ev domain.NewUserRegisteredEvent) {
	user, ok := d.resolve(ctx, ev.Kind(), func() (*domain.User, error) {
		return d.store.FindByRefID(ctx, ev.InviterID)
	})
	if !ok {
		return
	}

	// The contract does not expose a per-inviter registration count yet, so
	// the counter always shows the newly registered user.
	message := d.catalogs.Translator(user.Language).
		Render("notify.new_referral_user", ev.UserID, 1)
	_ = d.notifier.Send(ctx, string(ev.Kind()), user.ID, message)
}

func (d *Dispatcher) handleWinnerPayment(ctx context.Context, ev domain.WinnerPaymentEvent) {
	user, ok := d.resolve(ctx, ev.Kind(), func() (*domain.User, error) {
		return d.store.FindByAddress(ctx, ev.Winner)
	})
	if !ok {
		return
	}

	message := d.catalogs.Translator(user.Language).
		Render("notify.winner_payment", domain.DisplayGameID(ev.GameID), domain.FromWei(ev.Amount))
	_ = d.notifier.Send(ctx, string(ev.Kind()), user.ID, message)
}

// resolve runs the lookup and applies the skip-silently policy for misses.
func (d *Dispatcher) resolve(_ context.Context, kind domain.EventKind, find func() (*domain.User, error)) (*domain.User, bool) {
	user, err := find()
	if err != nil {
		if stdErrors.Is(err, directory.ErrNotFound) {
			d.log.Debug("no directory member for event, skipping", slog.String("kind", string(kind)))
		} else {
			d.log.Error("directory lookup failed", slog.String("kind", string(kind)), slog.Any("error", err))
		}
		return nil, false
	}

	return user, true
}
