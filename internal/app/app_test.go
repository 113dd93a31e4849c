package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Application.Language = "en"
	cfg.Application.Storage.Template = filepath.Join(dir, "templates")
	cfg.Application.Storage.Output = filepath.Join(dir, "media")
	cfg.Template.GenericCapable = true
	cfg.AI.ActiveProvider = "gemini"
	return cfg
}

func TestNewWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, logger.NewNop(), Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.False(t, a.Service.HistoryEnabled())
	assert.DirExists(t, cfg.Application.Storage.Template)
	assert.Empty(t, a.Service.Templates())
}

func TestNewWithMockProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.ActiveProvider = "offline"
	cfg.AI.Providers = map[string]config.ProviderSettings{"offline": {Driver: "mock"}}

	require.NoError(t, os.MkdirAll(cfg.Application.Storage.Template, 0755))
	data, err := pptx.NewBlankTemplate(pptx.DefaultLayouts())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Application.Storage.Template, "modern_template.pptx"), data, 0644))

	a, err := New(context.Background(), cfg, logger.NewNop(), Options{})
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.provider)
	assert.Len(t, a.Service.Templates(), 1)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Providers = map[string]config.ProviderSettings{"gemini": {Driver: "nope", Key: "k"}}
	_, err := New(context.Background(), cfg, logger.NewNop(), Options{})
	assert.Error(t, err)

	a, err := New(context.Background(), cfg, logger.NewNop(), Options{SkipAI: true})
	require.NoError(t, err)
	a.Close()
}
