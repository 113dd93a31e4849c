package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/pptx"
)

func writeTemplate(t *testing.T, path string, layouts []pptx.LayoutDef) {
	t.Helper()
	data, err := pptx.NewBlankTemplate(layouts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func names(list []Template) []string {
	out := make([]string, len(list))
	for i, tpl := range list {
		out[i] = tpl.Filename
	}
	return out
}

func TestRefreshListsUsableTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, filepath.Join(dir, "modern_template.pptx"), pptx.DefaultLayouts())
	writeTemplate(t, filepath.Join(dir, "basic.pptx"), pptx.DefaultLayouts()[:2])
	writeTemplate(t, filepath.Join(dir, "~$modern_template.pptx"), pptx.DefaultLayouts())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pptx"), []byte("not a zip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	c := New(dir, nil)
	require.NoError(t, c.Refresh())

	list := c.List()
	assert.Equal(t, []string{"basic.pptx", "modern_template.pptx"}, names(list))
	assert.Len(t, list[0].Layouts, 2)
	assert.Len(t, list[1].Layouts, len(pptx.DefaultLayouts()))
}

func TestRefreshCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates_source")
	c := New(dir, nil)
	require.NoError(t, c.Refresh())
	assert.DirExists(t, dir)
	assert.Empty(t, c.List())
}

func TestPathValidation(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, filepath.Join(dir, "a.pptx"), pptx.DefaultLayouts())
	c := New(dir, nil)

	p, err := c.Path("a.pptx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.pptx"), p)

	for _, bad := range []string{"", "../a.pptx", "sub/a.pptx", "..", `x\a.pptx`} {
		_, err := c.Path(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}

	_, err = c.Path("missing.pptx")
	assert.ErrorIs(t, err, pptx.ErrTemplateNotFound)
}

func TestLayoutsInspectsOnDemand(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil)
	require.NoError(t, c.Refresh())

	writeTemplate(t, filepath.Join(dir, "late.pptx"), pptx.DefaultLayouts()[:3])
	layouts, err := c.Layouts("late.pptx")
	require.NoError(t, err)
	assert.Len(t, layouts, 3)
	assert.Equal(t, []string{"late.pptx"}, names(c.List()))
}

func TestWatcherPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil)
	c.Debounce = 20 * time.Millisecond
	require.NoError(t, c.Refresh())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	path := filepath.Join(dir, "new.pptx")
	writeTemplate(t, path, pptx.DefaultLayouts())
	assert.Eventually(t, func() bool {
		return len(c.List()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	writeTemplate(t, filepath.Join(dir, "~$new.pptx"), pptx.DefaultLayouts())

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		return len(c.List()) == 0
	}, 3*time.Second, 20*time.Millisecond)
}
