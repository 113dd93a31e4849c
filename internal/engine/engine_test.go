package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// lessonTemplate writes a template with layouts
// 0: Title (idx0 title, idx1 text) and 1: TwoContent (idx0 title, idx1 text, idx2 text).
func lessonTemplate(t *testing.T) string {
	t.Helper()
	data, err := pptx.NewBlankTemplate([]pptx.LayoutDef{
		{Name: "Title", Placeholders: []pptx.PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1"},
			{Type: "body", Index: 1, Name: "Text Placeholder 2"},
		}},
		{Name: "Two Content", Placeholders: []pptx.PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1"},
			{Type: "obj", Index: 1, Name: "Content Placeholder 2"},
			{Type: "obj", Index: 2, Name: "Content Placeholder 3"},
		}},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lesson.pptx")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func specs(t *testing.T, raw ...string) []content.SlideSpec {
	t.Helper()
	out := make([]content.SlideSpec, len(raw))
	for i, r := range raw {
		var s content.SlideSpec
		require.NoError(t, json.Unmarshal([]byte(r), &s))
		out[i] = s
	}
	return out
}

func shapeTexts(t *testing.T, path string, slide int) map[int]string {
	t.Helper()
	slides, err := pptx.ExtractSlideContent(path)
	require.NoError(t, err)
	sd, ok := slides[slide]
	require.True(t, ok, "slide %d missing", slide)
	out := make(map[int]string)
	for _, sh := range sd.Content.Shapes {
		text := ""
		for _, r := range sh.Runs {
			text += r.Text
		}
		out[sh.Index] = text
	}
	return out
}

func TestBuildExactIndexExample(t *testing.T) {
	e := New(Options{GenericCapable: true})
	out := filepath.Join(t.TempDir(), "out", "deck.pptx")

	report, err := e.Build(context.Background(), lessonTemplate(t),
		specs(t, `{"layout_id":1,"content":{"0":"Intro","1":"Left col","2":"Right col"}}`), out)
	require.NoError(t, err)

	assert.Equal(t, DeckComplete, report.Status)
	require.Len(t, report.Slides, 1)
	assert.Equal(t, 1, report.Slides[0].SlideNumber)
	assert.Len(t, report.Slides[0].Results, 3)

	assert.Equal(t, map[int]string{0: "Intro", 1: "Left col", 2: "Right col"}, shapeTexts(t, out, 1))
}

func TestBuildFallbackExample(t *testing.T) {
	e := New(Options{GenericCapable: true})
	out := filepath.Join(t.TempDir(), "deck.pptx")

	report, err := e.Build(context.Background(), lessonTemplate(t),
		specs(t, `{"layout_id":1,"content":{"title":"Intro","body1":"Left col"}}`), out)
	require.NoError(t, err)
	assert.Equal(t, DeckComplete, report.Status)

	assert.Equal(t, map[int]string{0: "", 1: "Intro", 2: "Left col"}, shapeTexts(t, out, 1))
}

func TestBuildSkipsUnknownLayouts(t *testing.T) {
	e := New(Options{GenericCapable: true})
	out := filepath.Join(t.TempDir(), "deck.pptx")

	report, err := e.Build(context.Background(), lessonTemplate(t), specs(t,
		`{"layout_id":7,"content":{"0":"lost"}}`,
		`{"layout_id":0,"content":{"0":"Kept"}}`,
	), out)
	require.NoError(t, err)

	assert.Equal(t, DeckPartial, report.Status)
	assert.True(t, report.Slides[0].Skipped)
	assert.Contains(t, report.Slides[0].Reason, "out of range")
	assert.Equal(t, 1, report.Slides[1].SlideNumber)
	assert.Equal(t, 1, report.Built())

	assert.Equal(t, "Kept", shapeTexts(t, out, 1)[0])
}

func TestBuildAbortedWhenNothingBuilt(t *testing.T) {
	e := New(Options{})
	report, err := e.Build(context.Background(), lessonTemplate(t),
		specs(t, `{"layout_id":-1,"content":{}}`), filepath.Join(t.TempDir(), "deck.pptx"))
	require.NoError(t, err)
	assert.Equal(t, DeckAborted, report.Status)
}

func TestBuildLeftoversMakeDeckPartial(t *testing.T) {
	e := New(Options{GenericCapable: true})
	report, err := e.Build(context.Background(), lessonTemplate(t),
		specs(t, `{"layout_id":0,"content":{"a":"one","b":"two"}}`), filepath.Join(t.TempDir(), "deck.pptx"))
	require.NoError(t, err)
	assert.Equal(t, DeckPartial, report.Status)
	assert.Equal(t, []string{"b"}, report.Slides[0].Leftovers)
	assert.Equal(t, 1, report.Degraded())
}

func TestBuildMissingTemplate(t *testing.T) {
	e := New(Options{})
	_, err := e.Build(context.Background(), filepath.Join(t.TempDir(), "none.pptx"), nil, filepath.Join(t.TempDir(), "x.pptx"))
	assert.ErrorIs(t, err, pptx.ErrTemplateNotFound)
}

func TestInspect(t *testing.T) {
	layouts, err := New(Options{GenericCapable: false}).Inspect(lessonTemplate(t))
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Equal(t, "Two Content", layouts[1].Name)
	assert.False(t, layouts[1].Placeholders[1].IsImage)
}
