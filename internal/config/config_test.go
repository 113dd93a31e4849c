package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Application.Port)
	assert.Equal(t, "templates_source", cfg.Application.Storage.Template)
	assert.Equal(t, "media", cfg.Application.Storage.Output)
	assert.True(t, cfg.Template.GenericCapable)
	assert.Equal(t, "generated_lesson.pptx", cfg.Template.DefaultOutput)
	assert.Equal(t, 10*time.Second, cfg.Images.FetchTimeout)
	assert.Contains(t, cfg.Images.UserAgent, "Mozilla/5.0")
	assert.Equal(t, "gemini", cfg.AI.ActiveProvider)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SEARCH_API_KEY", "search-key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx-123")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("STORAGE_OUTPUT", "/srv/out")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.ImageSearch.Configured())
	assert.Equal(t, "cx-123", cfg.ImageSearch.EngineID)
	assert.Equal(t, "/srv/out", cfg.Application.Storage.Output)

	name, settings := cfg.AI.Active()
	assert.Equal(t, "gemini", name)
	assert.Equal(t, "gemini", settings.Driver)
	assert.Equal(t, "gem-key", settings.Key)
	assert.Equal(t, "gemini-2.5-flash", settings.Model)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `application:
  port: 9090
  storage:
    template: /data/templates
template:
  generic_capable: false
images:
  fetch_timeout: 3s
ai:
  active_provider: local
  providers:
    local:
      driver: mock
      model: canned
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Application.Port)
	assert.Equal(t, "/data/templates", cfg.Application.Storage.Template)
	assert.False(t, cfg.Template.GenericCapable)
	assert.Equal(t, 3*time.Second, cfg.Images.FetchTimeout)

	name, settings := cfg.AI.Active()
	assert.Equal(t, "local", name)
	assert.Equal(t, "mock", settings.Driver)
	assert.Equal(t, "canned", settings.Model)
}

func TestDatabaseConnectStr(t *testing.T) {
	db := DatabaseConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", DBName: "lessons", Options: "-c search_path=lf"}
	assert.True(t, db.Enabled())
	assert.Equal(t, "postgres://u:p@localhost:5432/lessons?sslmode=disable&options=-c%20search_path=lf", db.GetConnectStr())

	assert.False(t, (&DatabaseConfig{}).Enabled())
	assert.Equal(t, "postgres://x", (&DatabaseConfig{URL: "postgres://x"}).GetConnectStr())
}

func TestLoadConfigReportsEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.EnvFile)

	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "")
	require.NoError(t, os.WriteFile(".env", []byte("GOOGLE_SEARCH_ENGINE_ID=from-dotenv\n"), 0644))
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ".env", cfg.EnvFile)
}
