package keyboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaponukz/cobraBot/internal/i18n"
)

func testTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	dir := t.TempDir()
	catalog := `
en:
  bot:
    buttons:
      set_account: "Set account"
      set_language: "Set language"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(catalog), 0o644))

	manager, err := i18n.LoadFromDir(dir, "en")
	require.NoError(t, err)

	return manager.Translator("en")
}

func TestMainMenu_LocalizedButtonsOnePerRow(t *testing.T) {
	markup := MainMenu(testTranslator(t))

	require.Len(t, markup.ReplyKeyboard, 2)
	require.Len(t, markup.ReplyKeyboard[0], 1)
	require.Len(t, markup.ReplyKeyboard[1], 1)

	assert.Equal(t, "Set account", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Set language", markup.ReplyKeyboard[1][0].Text)
	assert.True(t, markup.ResizeKeyboard)
}

func TestMainMenu_NilTranslatorEchoesKeys(t *testing.T) {
	markup := MainMenu(nil)

	require.Len(t, markup.ReplyKeyboard, 2)
	assert.Equal(t, "bot.buttons.set_account", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "bot.buttons.set_language", markup.ReplyKeyboard[1][0].Text)
}
