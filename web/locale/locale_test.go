package locale

import (
	"testing"
	"testing/fstest"

	"github.com/mhsanaei/blogpanel/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	fsys := fstest.MapFS{
		"translation/translate.en.toml": {Data: []byte("\"hello\" = \"Hello {{ .Name }}\"\n\"bye\" = \"Bye\"\n")},
		"translation/translate.fr.toml": {Data: []byte("\"hello\" = \"Bonjour {{ .Name }}\"\n")},
	}
	require.NoError(t, InitLocalizer(fsys, "translation", []config.Locale{
		{Code: "en", Label: "English"},
		{Code: "fr", Label: "Français"},
	}))
}

func TestI18n(t *testing.T) {
	setup(t)
	assert.Equal(t, "Hello Ann", I18n("en", "hello", "Name==Ann"))
	assert.Equal(t, "Bonjour Ann", I18n("fr", "hello", "Name==Ann"))
	assert.Equal(t, "Bye", I18n("fr", "bye"), "falls back to the default language")
	assert.Equal(t, "missing.key", I18n("en", "missing.key"))
}

func TestResolve(t *testing.T) {
	setup(t)
	assert.Equal(t, "fr", Resolve("fr", "en", "en-US"))
	assert.Equal(t, "en", Resolve("", "en", "fr-FR"))
	assert.Equal(t, "fr", Resolve("de", "xx", "fr-CA,fr;q=0.9"))
	assert.Equal(t, "en", Resolve("", "", ""))
	assert.Equal(t, "en", Resolve("", "", "ja-JP"))
}
