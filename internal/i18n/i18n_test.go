package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func loadTestManager(t *testing.T) *Manager {
	t.Helper()

	dir := t.TempDir()
	writeCatalog(t, dir, "en.yaml", `
en:
  bot:
    greeting: "Welcome!"
  notify:
    new_game: "New game! Price: %s ID: %d"
`)
	writeCatalog(t, dir, "ru.yaml", `
ru:
  bot:
    greeting: "Привет!"
`)

	manager, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	return manager
}

func TestManager_TranslatorResolvesNestedKeys(t *testing.T) {
	manager := loadTestManager(t)

	assert.Equal(t, "Welcome!", manager.Translator("en").T("bot.greeting"))
	assert.Equal(t, "Привет!", manager.Translator("ru").T("bot.greeting"))
}

func TestManager_UnknownLanguageDegradesToDefault(t *testing.T) {
	manager := loadTestManager(t)

	translator := manager.Translator("fr")
	assert.Equal(t, "en", translator.Lang())
	assert.Equal(t, "Welcome!", translator.T("bot.greeting"))
}

func TestManager_MissingKeyFallsBackThenEchoes(t *testing.T) {
	manager := loadTestManager(t)

	// ru catalog has no notify section; the default language fills the gap
	assert.Equal(t, "New game! Price: %s ID: %d", manager.Translator("ru").T("notify.new_game"))

	// a key absent everywhere comes back verbatim so the message is still traceable
	assert.Equal(t, "bot.unknown", manager.Translator("en").T("bot.unknown"))
}

func TestTranslator_RenderFillsPositionalVerbs(t *testing.T) {
	manager := loadTestManager(t)

	rendered := manager.Translator("en").Render("notify.new_game", "2.5", 3)
	assert.Equal(t, "New game! Price: 2.5 ID: 3", rendered)
}

func TestManager_Languages(t *testing.T) {
	manager := loadTestManager(t)

	assert.ElementsMatch(t, []string{"en", "ru"}, manager.Languages())
}

func TestManager_MissingDefaultLanguageFails(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "ru.yaml", "ru:\n  bot:\n    greeting: \"Привет!\"\n")

	_, err := LoadFromDir(dir, "en")
	assert.Error(t, err)
}

func TestManager_Reload(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en.yaml", "en:\n  bot:\n    greeting: \"old\"\n")

	manager, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	require.Equal(t, "old", manager.Translator("en").T("bot.greeting"))

	writeCatalog(t, dir, "en.yaml", "en:\n  bot:\n    greeting: \"new\"\n")
	require.NoError(t, manager.Reload())

	assert.Equal(t, "new", manager.Translator("en").T("bot.greeting"))
}
