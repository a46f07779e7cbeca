// Package bot implements the Telegram command surface: /start, account
// linking, and language selection. Every directory mutation originates here.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/gaponukz/cobraBot/internal/bot/keyboard"
	"github.com/gaponukz/cobraBot/internal/chain"
	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/i18n"
	"github.com/gaponukz/cobraBot/internal/middleware"
	"github.com/gaponukz/cobraBot/pkg/config"
)

// Bot wraps telebot.Bot with the application dependencies handlers need.
type Bot struct {
	telebot  *telebot.Bot
	store    directory.Store
	resolver chain.AccountResolver
	catalogs *i18n.Manager
	log      *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg *config.Config,
	store directory.Store,
	resolver chain.AccountResolver,
	catalogs *i18n.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
	log *slog.Logger,
) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:  tb,
		store:    store,
		resolver: resolver,
		catalogs: catalogs,
		log:      log,
	}

	if rateLimitMw != nil {
		tb.Use(rateLimitMw.Handle)
	}

	tb.Handle("/start", b.onStart)
	tb.Handle(telebot.OnText, b.onText)
	tb.Handle(&telebot.Btn{Unique: keyboard.LanguageUnique}, b.onLanguageSelected)

	return b, nil
}

// Start runs the telegram bot event loop. Blocks until Stop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for the notification
// transport and health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}
