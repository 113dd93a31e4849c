package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/pptx"
)

func testLayouts() []pptx.Layout {
	return []pptx.Layout{
		{ID: 0, Name: "Title Slide", Placeholders: []pptx.Placeholder{
			{Index: 0, Name: "Title 1", Kind: pptx.KindTitle, IsTitle: true},
			{Index: 1, Name: "Subtitle 2", Kind: pptx.KindText},
		}},
		{ID: 3, Name: "Picture with Caption", Placeholders: []pptx.Placeholder{
			{Index: 0, Name: "Title 1", Kind: pptx.KindTitle, IsTitle: true},
			{Index: 1, Name: "Picture Placeholder 2", Kind: pptx.KindImage, IsImage: true},
		}},
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), "gemini", config.ProviderSettings{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(context.Background(), "local", config.ProviderSettings{Driver: "llama", Key: "k"})
	assert.Error(t, err)

	p, err := NewProvider(context.Background(), "offline", config.ProviderSettings{Driver: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewProviderDrivers(t *testing.T) {
	p, err := NewProvider(context.Background(), "openai", config.ProviderSettings{Key: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, defaultOpenAIModel, p.Model())

	p, err = NewProvider(context.Background(), "claude", config.ProviderSettings{Key: "k", Model: "claude-x"})
	require.NoError(t, err)
	assert.Equal(t, "claude-x", p.Model())

	p, err = NewFromConfig(context.Background(), config.AIConfig{
		ActiveProvider: "work",
		Providers:      map[string]config.ProviderSettings{"work": {Driver: "anthropic", Key: "k"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "work", p.Name())
	assert.Equal(t, defaultClaudeModel, p.Model())
}

func TestGenerateLessonOutline(t *testing.T) {
	mock := NewMockProvider("```json\n" + `[
		{"slide_number": 1, "layout_id": 0, "title": "**Volcanoes**", "purpose": "Introduce", "content_plan": "Hook"},
		{"slide_number": "2", "layout_id": "3", "title": "Inside a volcano", "purpose": "Explain", "content_plan": "Diagram"}
	]` + "\n```")
	g := NewGenerator(mock, nil)

	var used []string
	g.OnUsage = func(ctx context.Context, provider, model, op string, u Usage) {
		used = append(used, op)
	}

	outline, err := g.GenerateLessonOutline(context.Background(), "Volcanoes", "5", "45 minutes", testLayouts())
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Equal(t, OutlineSlide{SlideNumber: 1, LayoutID: 0, Title: "Volcanoes", Purpose: "Introduce", ContentPlan: "Hook"}, outline[0])
	assert.Equal(t, 3, outline[1].LayoutID)
	assert.Equal(t, 2, outline[1].SlideNumber)
	assert.Equal(t, []string{"outline"}, used)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, `lesson plan on "Volcanoes" for Grade 5`)
	assert.Contains(t, prompt, "ID 3: Picture with Caption (Slots: Title 1, Picture Placeholder 2)")
	assert.Contains(t, prompt, "exactly 5 slides")
}

func TestGenerateLessonOutlineWrappedObject(t *testing.T) {
	g := NewGenerator(NewMockProvider(`{"outline":[{"layout_id":1,"title":"Only"}]}`), nil)
	outline, err := g.GenerateLessonOutline(context.Background(), "t", "1", "45", nil)
	require.NoError(t, err)
	require.Len(t, outline, 1)
	assert.Equal(t, 1, outline[0].SlideNumber)
}

func TestGenerateLessonOutlineObjectShapes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"named key", `{"outline": [{"layout_id": 0, "title": "A"}]}`, []string{"A"}},
		{"other key", `{"lesson_plan": [{"layout_id": 0, "title": "A"}, {"layout_id": 3, "title": "B"}]}`, []string{"A", "B"}},
		{"other key beside scalars", `{"topic": "Volcanoes", "count": 1, "items": [{"layout_id": 0, "title": "A"}]}`, []string{"A"}},
		{"fenced", "```json\n{\"plan\": [{\"layout_id\": 0, \"title\": \"A\"}]}\n```", []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.reply)
			outline, err := NewGenerator(mock, nil).GenerateLessonOutline(context.Background(), "t", "1", "45", testLayouts())
			require.NoError(t, err)
			var titles []string
			for _, o := range outline {
				titles = append(titles, o.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Contains(t, mock.Prompts()[0], `{"outline": [...]}`)
		})
	}
}

func TestGenerateLessonOutlineAmbiguousObject(t *testing.T) {
	g := NewGenerator(NewMockProvider(`{"a": [{"title": "x"}], "b": [{"title": "y"}]}`), nil)
	_, err := g.GenerateLessonOutline(context.Background(), "t", "1", "45", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorBadResponse))
}

func TestGenerateFullPresentationObjectShapes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"bare array", `[{"title": "Fractions", "layout_id": 0, "content": {"0": "Fractions"}}]`},
		{"named key", `{"presentation": [{"title": "Fractions", "layout_id": 0, "content": {"0": "Fractions"}}]}`},
		{"other key", `{"lesson_slides": [{"title": "Fractions", "layout_id": 0, "content": {"0": "Fractions"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slides, err := NewGenerator(NewMockProvider(tt.reply), nil).
				GenerateFullPresentation(context.Background(), "Fractions", "3", "45 minutes", testLayouts())
			require.NoError(t, err)
			require.Len(t, slides, 1)
			assert.Equal(t, 1, slides[0].SlideNumber)
			v, ok := slides[0].Content.Get("0")
			require.True(t, ok)
			assert.Equal(t, content.Text("Fractions"), v)
		})
	}
}

func TestGenerateLessonOutlineBadResponse(t *testing.T) {
	g := NewGenerator(NewMockProvider(`I cannot help with that.`), nil)
	_, err := g.GenerateLessonOutline(context.Background(), "t", "1", "45", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorBadResponse))
}

func TestGenerateSlideContent(t *testing.T) {
	mock := NewMockProvider(`{"0": "The **Water** Cycle", "1": "- Evaporation\n- Condensation\n- Precipitation", "2": {"type": "image", "query": "water cycle diagram"}, "3": {"type": "image"}}`)
	g := NewGenerator(mock, nil)

	m, err := g.GenerateSlideContent(context.Background(), "Water cycle", "Explain", "4", testLayouts()[1].Placeholders)
	require.NoError(t, err)

	require.Len(t, m, 3)
	assert.Equal(t, "0", m[0].Key)
	assert.Equal(t, content.Text("The Water Cycle"), m[0].Value)
	assert.Equal(t, content.Text("Evaporation\nCondensation\nPrecipitation"), m[1].Value)
	assert.Equal(t, content.Image{Query: "water cycle diagram"}, m[2].Value)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "Topic: Water cycle")
	assert.Contains(t, prompt, `"name": "Picture Placeholder 2"`)
	assert.Contains(t, prompt, `"is_image": true`)
}

func TestGenerateSlideContentUnwrapsContentKey(t *testing.T) {
	g := NewGenerator(NewMockProvider(`{"content": {"0": "Hi", "1": "There"}}`), nil)
	m, err := g.GenerateSlideContent(context.Background(), "t", "p", "1", nil)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "1", m[1].Key)
}

func TestGenerateFullPresentation(t *testing.T) {
	mock := NewMockProvider(`{"slides": [
		{"slide_number": 1, "title": "Fractions", "layout_id": 0, "content": {"0": "Fractions", "1": "Parts of a whole"}},
		{"slide_number": 2, "title": "Pizza", "layout_id": 3, "content": {"0": "Pizza slices", "1": {"type": "image", "query": "pizza slices"}}}
	]}`)
	g := NewGenerator(mock, nil)

	slides, err := g.GenerateFullPresentation(context.Background(), "Fractions", "3", "45 minutes", testLayouts())
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, 3, slides[1].LayoutID)

	spec := slides[1].Spec()
	assert.Equal(t, 3, spec.LayoutID)
	v, ok := spec.Content.Get("1")
	require.True(t, ok)
	assert.Equal(t, content.Image{Query: "pizza slices"}, v)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "Layout ID 3 (Picture with Caption): Placeholders [0 (Title 1), 1 (Picture Placeholder 2)]")
	assert.Contains(t, prompt, "Select 5-8 slides")
}

func TestGeneratorWithoutProvider(t *testing.T) {
	g := NewGenerator(nil, nil)
	assert.False(t, g.Configured())
	_, err := g.GenerateLessonOutline(context.Background(), "t", "1", "45", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = g.GenerateSlideContent(context.Background(), "t", "p", "1", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeneratorPropagatesProviderErrors(t *testing.T) {
	mock := NewMockProvider()
	mock.Fail(classify("gemini", errors.New("googleapi: Error 429: Resource has been exhausted")))
	_, err := NewGenerator(mock, nil).GenerateFullPresentation(context.Background(), "t", "1", "45", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorRateLimit))
}

func TestClassify(t *testing.T) {
	cases := map[string]ErrorKind{
		"error, status code: 401, message: Incorrect API key provided": ErrorInvalidAPIKey,
		"You exceeded your current quota":                              ErrorQuotaExceeded,
		"rate_limit_error: slow down":                                  ErrorRateLimit,
		"model gpt-9 not found":                                        ErrorModelNotFound,
		"prompt is too long: token count exceeds limit":                ErrorTokenLimit,
		"connection reset by peer":                                     ErrorGeneral,
	}
	for msg, want := range cases {
		err := classify("p", errors.New(msg))
		assert.True(t, IsKind(err, want), msg)
	}
	assert.Nil(t, classify("p", nil))
	assert.ErrorIs(t, classify("p", fmt.Errorf("wrap: %w", ErrNotConfigured)), ErrNotConfigured)
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"":                                  "",
		"Plain sentence.":                   "Plain sentence.",
		"**Bold** and _soft_ words":         "Bold and soft words",
		"- one\n- two\n* three":             "one\ntwo\nthree",
		"• dot bullet":                      "dot bullet",
		"Line one\nLine two":                "Line one\nLine two",
		"## Heading\nBody with `code`":      "Heading\nBody with code",
		"First\n\n\nSecond":                 "First\nSecond",
		"Read [the docs](http://x.example)": "Read the docs",
		"Area = l*w*h and `x`":              "Area = l*w*h and x",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanText(in), "%q", in)
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(extractJSON("Sure! {\"a\":1} Hope this helps")))
	assert.Equal(t, `[1,2]`, string(extractJSON("```\n[1,2]\n```")))
	assert.Nil(t, extractJSON("nothing here"))
}
