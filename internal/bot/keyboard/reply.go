package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/gaponukz/cobraBot/internal/i18n"
)

// MainMenu builds the localized reply keyboard shown after /start.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	setAccountBtn := markup.Text(lookup("bot.buttons.set_account"))
	setLanguageBtn := markup.Text(lookup("bot.buttons.set_language"))

	markup.Reply(
		markup.Row(setAccountBtn),
		markup.Row(setLanguageBtn),
	)

	return markup
}
