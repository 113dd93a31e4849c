// Package ai drafts lesson outlines and slide content with a language model.
// Gemini, OpenAI and Claude are supported, plus a mock driver for tests.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// OutlineSlide is one planned slide without content.
type OutlineSlide struct {
	SlideNumber int    `json:"slide_number"`
	LayoutID    int    `json:"layout_id"`
	Title       string `json:"title"`
	Purpose     string `json:"purpose"`
	ContentPlan string `json:"content_plan"`
}

// PlannedSlide is a slide with its generated content, ready to be built.
type PlannedSlide struct {
	SlideNumber int         `json:"slide_number"`
	Title       string      `json:"title"`
	LayoutID    int         `json:"layout_id"`
	Content     content.Map `json:"content"`
}

// Spec turns the planned slide into build input.
func (p PlannedSlide) Spec() content.SlideSpec {
	return content.SlideSpec{LayoutID: p.LayoutID, Content: p.Content}
}

// UsageFunc receives token accounting after every successful call.
type UsageFunc func(ctx context.Context, provider, model, operation string, u Usage)

type Generator struct {
	provider Provider
	log      *logger.Logger

	// OnUsage is optional.
	OnUsage UsageFunc
	// OutlineSlides is the exact outline length asked for.
	OutlineSlides int
	// MinSlides and MaxSlides bound one-shot presentations.
	MinSlides int
	MaxSlides int
}

// NewGenerator wraps p. A nil provider is allowed: every call then fails with
// ErrNotConfigured.
func NewGenerator(p Provider, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{provider: p, log: log, OutlineSlides: 5, MinSlides: 5, MaxSlides: 8}
}

// Configured reports whether a provider is attached.
func (g *Generator) Configured() bool {
	return g.provider != nil
}

// GenerateLessonOutline plans the slides of a lesson on the given layouts.
func (g *Generator) GenerateLessonOutline(ctx context.Context, topic, grade, duration string, layouts []pptx.Layout) ([]OutlineSlide, error) {
	prompt, err := renderPrompt("outline.tmpl", map[string]any{
		"Topic":    topic,
		"Grade":    grade,
		"Duration": duration,
		"Layouts":  describeLayouts(layouts),
		"Slides":   g.OutlineSlides,
	})
	if err != nil {
		return nil, err
	}
	text, err := g.call(ctx, "outline", prompt)
	if err != nil {
		return nil, err
	}
	outline, err := parseOutline(text)
	if err != nil {
		return nil, newBadResponse(g.provider.Name(), "unreadable outline", err)
	}
	return outline, nil
}

// GenerateSlideContent writes the content of one slide, keyed by placeholder index.
func (g *Generator) GenerateSlideContent(ctx context.Context, title, purpose, grade string, placeholders []pptx.Placeholder) (content.Map, error) {
	schema, err := slideSchema(placeholders)
	if err != nil {
		return nil, err
	}
	prompt, err := renderPrompt("slide.tmpl", map[string]any{
		"Title":   title,
		"Purpose": purpose,
		"Grade":   grade,
		"Schema":  schema,
	})
	if err != nil {
		return nil, err
	}
	text, err := g.call(ctx, "slide", prompt)
	if err != nil {
		return nil, err
	}
	m, err := parseSlideContent(text)
	if err != nil {
		return nil, newBadResponse(g.provider.Name(), "unreadable slide content", err)
	}
	return m, nil
}

// GenerateFullPresentation plans and writes a whole lesson in one call.
func (g *Generator) GenerateFullPresentation(ctx context.Context, topic, grade, duration string, layouts []pptx.Layout) ([]PlannedSlide, error) {
	prompt, err := renderPrompt("presentation.tmpl", map[string]any{
		"Topic":     topic,
		"Grade":     grade,
		"Duration":  duration,
		"Layouts":   describeLayouts(layouts),
		"MinSlides": g.MinSlides,
		"MaxSlides": g.MaxSlides,
	})
	if err != nil {
		return nil, err
	}
	text, err := g.call(ctx, "presentation", prompt)
	if err != nil {
		return nil, err
	}
	slides, err := parsePlanned(text)
	if err != nil {
		return nil, newBadResponse(g.provider.Name(), "unreadable presentation", err)
	}
	return slides, nil
}

func (g *Generator) call(ctx context.Context, operation, prompt string) (string, error) {
	if g.provider == nil {
		return "", ErrNotConfigured
	}
	start := time.Now()
	resp, err := g.provider.GenerateJSON(ctx, prompt)
	if err != nil {
		g.log.Error("AI request failed", "provider", g.provider.Name(), "operation", operation, "error", err)
		return "", fmt.Errorf("%s generation failed: %w", operation, err)
	}
	g.log.Info("AI request",
		"provider", g.provider.Name(),
		"model", g.provider.Model(),
		"operation", operation,
		"tokens", resp.Usage.TotalTokens,
		"elapsed", time.Since(start))
	if g.OnUsage != nil {
		g.OnUsage(ctx, g.provider.Name(), g.provider.Model(), operation, resp.Usage)
	}
	return resp.Text, nil
}
