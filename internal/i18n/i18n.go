package i18n

import (
	"embed"
	"encoding/json"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

const defaultLang = "en"

var (
	once         sync.Once
	translations = make(map[string]map[string]string)
)

// Init loads the embedded translation tables. It runs once; T calls it too.
func Init() {
	once.Do(func() {
		files, _ := localeFS.ReadDir("locales")
		for _, f := range files {
			if path.Ext(f.Name()) != ".json" {
				continue
			}
			lang := strings.TrimSuffix(f.Name(), ".json")
			data, err := localeFS.ReadFile("locales/" + f.Name())
			if err != nil {
				continue
			}
			var t map[string]string
			if json.Unmarshal(data, &t) == nil {
				translations[lang] = t
			}
		}
	})
}

func T(lang, key string) string {
	Init()
	if t, ok := translations[normalize(lang)]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	// Fallback to en
	if t, ok := translations[defaultLang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	return key
}

// normalize turns "hu-HU" or "HU" into "hu".
func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// GetLang picks the request language: the lang cookie, then the first
// Accept-Language entry, then fallback.
func GetLang(r *http.Request, fallback string) string {
	Init()
	if cookie, err := r.Cookie("lang"); err == nil {
		if l := normalize(cookie.Value); translations[l] != nil {
			return l
		}
	}
	if al := r.Header.Get("Accept-Language"); al != "" {
		first := strings.SplitN(strings.SplitN(al, ",", 2)[0], ";", 2)[0]
		if l := normalize(first); translations[l] != nil {
			return l
		}
	}
	if fallback == "" {
		return defaultLang
	}
	return normalize(fallback)
}

func GetAvailableLangs() []string {
	Init()
	langs := []string{}
	for l := range translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
