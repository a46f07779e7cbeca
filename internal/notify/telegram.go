package notify

import (
	"context"
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/gaponukz/cobraBot/internal/errors"
)

// TelegramSender adapts telebot.Bot to the Sender interface.
type TelegramSender struct {
	bot *telebot.Bot
}

// NewTelegramSender wraps an initialized telebot instance.
func NewTelegramSender(bot *telebot.Bot) *TelegramSender {
	return &TelegramSender{bot: bot}
}

// Send delivers message to the chat identified by recipientID.
//
// telebot's Send has no context parameter; the deadline is checked before the
// call so an expired context still short-circuits a stuck broadcast.
func (s *TelegramSender) Send(ctx context.Context, recipientID int64, message string) error {
	if s.bot == nil {
		return errors.NewTransportError(fmt.Errorf("telegram bot is not initialized"))
	}

	if err := ctx.Err(); err != nil {
		return errors.NewTransportError(err)
	}

	if _, err := s.bot.Send(&telebot.User{ID: recipientID}, message); err != nil {
		return errors.NewTransportError(err)
	}

	return nil
}

var _ Sender = (*TelegramSender)(nil)
