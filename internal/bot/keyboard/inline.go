package keyboard

import (
	"sort"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// LanguageUnique identifies language selection callbacks.
const LanguageUnique = "language"

var languageLabels = map[string]string{
	"en": "🇬🇧 ENGLISH",
	"ru": "🇷🇺 РУССКИЙ",
	"fr": "🇫🇷 FRANÇAIS",
	"pt": "🇵🇹 PORTUGUÊS",
	"de": "🇩🇪 DEUTSCH",
}

// LanguageMenu builds an inline keyboard with one button per loaded language,
// two per row, stable order.
func LanguageMenu(langs []string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	sorted := append([]string(nil), langs...)
	sort.Strings(sorted)

	buttons := make([]telebot.Btn, 0, len(sorted))
	for _, lang := range sorted {
		label, ok := languageLabels[lang]
		if !ok {
			label = strings.ToUpper(lang)
		}
		buttons = append(buttons, markup.Data(label, LanguageUnique, lang))
	}

	rows := make([]telebot.Row, 0, (len(buttons)+1)/2)
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, markup.Row(buttons[i:end]...))
	}

	markup.Inline(rows...)

	return markup
}
