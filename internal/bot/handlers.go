package bot

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	telebot "gopkg.in/telebot.v3"

	"github.com/gaponukz/cobraBot/internal/bot/keyboard"
	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/domain"
)

var refIDPattern = regexp.MustCompile(`^[0-9]+$`)

func (b *Bot) onStart(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, err := directory.GetOrCreate(context.Background(), b.store, sender.ID)
	if err != nil {
		b.log.Error("failed to register user", slog.Int64("user_id", sender.ID), slog.Any("error", err))
		return err
	}

	t := b.catalogs.Translator(user.Language)
	return c.Reply(t.T("bot.greeting"), keyboard.MainMenu(t))
}

// onText routes the three textual interactions: the two menu buttons and the
// numeric referral id message.
func (b *Bot) onText(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text := c.Text()

	switch {
	case b.isButton(text, "bot.buttons.set_account"):
		return b.onSetAccountPrompt(c, sender.ID)
	case b.isButton(text, "bot.buttons.set_language"):
		return b.onSelectLanguage(c, sender.ID)
	case refIDPattern.MatchString(text):
		return b.onRefID(c, sender.ID, text)
	default:
		return nil
	}
}

func (b *Bot) onSetAccountPrompt(c telebot.Context, userID int64) error {
	user, err := directory.GetOrCreate(context.Background(), b.store, userID)
	if err != nil {
		return err
	}

	return c.Reply(b.catalogs.Translator(user.Language).T("bot.set_account"))
}

func (b *Bot) onSelectLanguage(c telebot.Context, userID int64) error {
	user, err := directory.GetOrCreate(context.Background(), b.store, userID)
	if err != nil {
		return err
	}

	t := b.catalogs.Translator(user.Language)
	return c.Send(t.T("bot.select_language"), keyboard.LanguageMenu(b.catalogs.Languages()))
}

// onRefID links the sender's on-chain account: the typed referral id is
// resolved to an address through the contract, and both fields are written as
// one patch so a concurrent language change cannot be lost.
func (b *Bot) onRefID(c telebot.Context, userID int64, text string) error {
	ctx := context.Background()

	user, err := directory.GetOrCreate(ctx, b.store, userID)
	if err != nil {
		return err
	}
	t := b.catalogs.Translator(user.Language)

	address, err := b.resolver.AddressByRefID(ctx, text)
	if err != nil || address == "" {
		if err != nil {
			b.log.Warn("referral id resolution failed",
				slog.Int64("user_id", userID),
				slog.Any("error", err),
			)
		}
		return c.Reply(t.T("bot.account_failed"))
	}

	refID := directory.NormalizeRefID(text)
	updated, err := b.store.Update(ctx, userID, directory.Patch{
		RefID:   &refID,
		Address: &address,
	})
	if err != nil {
		if errors.Is(err, directory.ErrDuplicateRefID) || errors.Is(err, directory.ErrDuplicateAddress) {
			return c.Reply(t.T("bot.account_failed"))
		}
		b.log.Error("failed to store account link", slog.Int64("user_id", userID), slog.Any("error", err))
		return err
	}

	return c.Reply(b.catalogs.Translator(updated.Language).T("bot.account_saved"))
}

func (b *Bot) onLanguageSelected(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	lang := c.Data()
	if !b.knownLanguage(lang) {
		return c.Respond()
	}

	if _, err := b.store.Update(context.Background(), sender.ID, directory.Patch{Language: &lang}); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// language picked before /start: register first, then apply
			user := domain.NewDefaultUser(sender.ID)
			user.Language = lang
			if insErr := b.store.Insert(context.Background(), user); insErr != nil {
				return insErr
			}
		} else {
			return err
		}
	}

	if err := c.Respond(); err != nil {
		return err
	}

	return c.Send(b.catalogs.Translator(lang).T("bot.language_saved"))
}

// isButton matches text against the button label in every loaded language,
// since the rendered keyboard may predate a language switch.
func (b *Bot) isButton(text, key string) bool {
	if text == "" {
		return false
	}

	for _, lang := range b.catalogs.Languages() {
		if b.catalogs.Translator(lang).T(key) == text {
			return true
		}
	}

	return false
}

func (b *Bot) knownLanguage(lang string) bool {
	for _, known := range b.catalogs.Languages() {
		if known == lang {
			return true
		}
	}

	return false
}
