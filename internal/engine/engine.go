// Package engine fills presentation templates with slide content: it matches
// content to layout placeholders, writes text, pictures, tables and charts, and
// reports per placeholder what could not be filled.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// Options configures an Engine. Images may be nil to use a default fetcher.
type Options struct {
	// GenericCapable lets obj/body placeholders hold images, tables and charts.
	GenericCapable   bool
	Images           *ImageFetcher
	ImageErrorNotice string
	Log              *logger.Logger
}

// Engine builds decks from templates and slide specs. It is safe for
// concurrent use; every build works on its own copy of the template.
type Engine struct {
	opts      Options
	assembler *Assembler
}

// New returns an Engine. A nil Log discards output.
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	return &Engine{
		opts: opts,
		assembler: &Assembler{
			Filler: &Filler{Images: opts.Images, ImageErrorNotice: opts.ImageErrorNotice, Log: opts.Log},
			Log:    opts.Log,
		},
	}
}

// Open loads a template with the engine's classification options.
func (e *Engine) Open(templatePath string) (*pptx.Presentation, error) {
	return pptx.Open(templatePath, pptx.WithGenericPlaceholders(e.opts.GenericCapable))
}

// Inspect lists the layouts of a template.
func (e *Engine) Inspect(templatePath string) ([]pptx.Layout, error) {
	p, err := e.Open(templatePath)
	if err != nil {
		return nil, err
	}
	return p.Layouts(), nil
}

// Build assembles specs against a fresh copy of the template and writes the
// deck to outputPath. A missing template is the only fatal input error.
func (e *Engine) Build(ctx context.Context, templatePath string, specs []content.SlideSpec, outputPath string) (*Report, error) {
	pres, err := e.Open(templatePath)
	if err != nil {
		return nil, err
	}

	report := e.assembler.Assemble(ctx, pres, specs)

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return report, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := pres.Save(outputPath); err != nil {
		return report, fmt.Errorf("failed to save %s: %w", outputPath, err)
	}

	e.opts.Log.Info("Deck saved", "path", outputPath, "status", report.Status,
		"slides", report.Built(), "degraded", report.Degraded())
	return report, nil
}
