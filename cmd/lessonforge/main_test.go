package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/engine"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	base := []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--quiet", "--json=false"}
	rootCmd.SetArgs(append(args[:1:1], append(base, args[1:]...)...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseSlideSpecs(t *testing.T) {
	specs, err := parseSlideSpecs([]byte(` [{"layout_id": 1, "content": {"0": "Title"}}]`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, 1, specs[0].LayoutID)

	specs, err = parseSlideSpecs([]byte(`{"slides": [{"layout_id": 0}, {"layout_id": 6}]}`))
	require.NoError(t, err)
	assert.Len(t, specs, 2)

	_, err = parseSlideSpecs([]byte(`{"slides": []}`))
	assert.Error(t, err)
	_, err = parseSlideSpecs([]byte(`not json`))
	assert.Error(t, err)
}

func TestReportBuildAborted(t *testing.T) {
	var out bytes.Buffer
	report := &engine.Report{
		Status: engine.DeckAborted,
		Slides: []engine.SlideReport{{Spec: 0, LayoutID: 42, Skipped: true, Reason: "unknown layout"}},
	}
	err := reportBuild(&out, "deck.pptx", report)
	assert.ErrorIs(t, err, errAborted)
	assert.Contains(t, out.String(), "aborted")
	assert.Contains(t, out.String(), "slide spec 1 skipped: unknown layout")
}

func TestTemplateBuildDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "lesson.pptx")
	deck := filepath.Join(dir, "out", "volcanoes.pptx")
	slides := filepath.Join(dir, "slides.json")

	_, err := run(t, "new-template", "-o", tpl)
	require.NoError(t, err)
	require.FileExists(t, tpl)

	out, err := run(t, "inspect", tpl)
	require.NoError(t, err)
	assert.Contains(t, out, "Title and Content")
	assert.Contains(t, out, "Picture with Caption")

	spec := `{"slides": [
		{"layout_id": 0, "content": {"0": "Volcanoes", "1": "Grade 5 Science"}},
		{"layout_id": 1, "content": {"0": "What is magma?", "1": "Molten rock\nBelow the surface"}}
	]}`
	require.NoError(t, os.WriteFile(slides, []byte(spec), 0644))

	out, err = run(t, "build", tpl, slides, "-o", deck, "--no-images")
	require.NoError(t, err)
	assert.Contains(t, out, "complete, 2/2 slides")
	require.FileExists(t, deck)

	out, err = run(t, "dump", deck)
	require.NoError(t, err)
	assert.Contains(t, out, "Volcanoes")
	assert.Contains(t, out, "Molten rock")

	out, err = run(t, "dump", deck, "--json")
	require.NoError(t, err)
	var dumped []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &dumped))
	assert.Len(t, dumped, 2)
}

func TestBuildUnknownLayoutFails(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "lesson.pptx")
	slides := filepath.Join(dir, "slides.json")

	_, err := run(t, "new-template", "-o", tpl)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(slides, []byte(`[{"layout_id": 42, "content": {"0": "x"}}]`), 0644))

	_, err = run(t, "build", tpl, slides, "-o", filepath.Join(dir, "bad.pptx"), "--no-images")
	assert.ErrorIs(t, err, errAborted)
}
