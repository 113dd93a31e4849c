package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	assert.Equal(t, "[Error loading image]", T("en", "notice.image_error"))
	assert.Equal(t, "[Hiba a kép betöltésekor]", T("hu-HU", "notice.image_error"))
	assert.Equal(t, "[Error loading image]", T("de", "notice.image_error"))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
}

func TestEveryLanguageHasEveryKey(t *testing.T) {
	Init()
	for lang, table := range translations {
		for key := range translations[defaultLang] {
			assert.Contains(t, table, key, "%s missing %s", lang, key)
		}
	}
}

func TestGetLang(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "en", GetLang(r, ""))
	assert.Equal(t, "hu", GetLang(r, "hu"))

	r.Header.Set("Accept-Language", "hu-HU,hu;q=0.9,en;q=0.8")
	assert.Equal(t, "hu", GetLang(r, "en"))

	r.AddCookie(&http.Cookie{Name: "lang", Value: "en"})
	assert.Equal(t, "en", GetLang(r, "hu"))
}

func TestGetAvailableLangs(t *testing.T) {
	assert.Equal(t, []string{"en", "hu"}, GetAvailableLangs())
}
