// Package lesson is the application layer behind the HTTP API and the CLI:
// it drafts lessons with the AI generator, resolves image queries and builds
// decks from the template catalog.
package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gnemet/LessonForge/internal/ai"
	"github.com/gnemet/LessonForge/internal/catalog"
	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/database"
	"github.com/gnemet/LessonForge/internal/engine"
	"github.com/gnemet/LessonForge/internal/imagesearch"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

const (
	DefaultTemplate = "modern_template.pptx"
	DefaultDuration = "45 minutes"
	DefaultOutput   = "generated_lesson.pptx"
	defaultImages   = 3
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidLayout      = errors.New("invalid layout_id")
	ErrHistoryUnavailable = errors.New("build history requires a database")
)

type Deps struct {
	Catalog   *catalog.Catalog
	Generator *ai.Generator
	Images    *imagesearch.Service
	Engine    *engine.Engine
	// OutputDir receives built decks; they are served under /media/.
	OutputDir string
	// DefaultOutput replaces a missing output_filename.
	DefaultOutput string
	// DB is optional; without it no history is kept.
	DB  *sql.DB
	Log *logger.Logger
}

type Service struct {
	deps Deps
	log  *logger.Logger
}

func NewService(deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.DefaultOutput == "" {
		deps.DefaultOutput = DefaultOutput
	}
	s := &Service{deps: deps, log: deps.Log}
	if deps.Generator != nil && deps.DB != nil && deps.Generator.OnUsage == nil {
		deps.Generator.OnUsage = s.recordUsage
	}
	return s
}

// HistoryEnabled reports whether builds are recorded.
func (s *Service) HistoryEnabled() bool {
	return s.deps.DB != nil
}

func (s *Service) Templates() []catalog.Template {
	return s.deps.Catalog.List()
}

func (s *Service) layouts(name string) ([]pptx.Layout, error) {
	if name == "" {
		name = DefaultTemplate
	}
	return s.deps.Catalog.Layouts(name)
}

type OutlineRequest struct {
	Topic            string `json:"topic"`
	Grade            string `json:"grade"`
	Duration         string `json:"duration"`
	TemplateFilename string `json:"template_filename"`
}

func (r *OutlineRequest) validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if r.Duration == "" {
		r.Duration = DefaultDuration
	}
	return nil
}

// Outline plans the slides of a lesson on the template's layouts.
func (s *Service) Outline(ctx context.Context, req OutlineRequest) ([]ai.OutlineSlide, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	layouts, err := s.layouts(req.TemplateFilename)
	if err != nil {
		return nil, err
	}
	return s.deps.Generator.GenerateLessonOutline(ctx, req.Topic, req.Grade, req.Duration, layouts)
}

// Presentation drafts outline and content in one call.
func (s *Service) Presentation(ctx context.Context, req OutlineRequest) ([]ai.PlannedSlide, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	layouts, err := s.layouts(req.TemplateFilename)
	if err != nil {
		return nil, err
	}
	return s.deps.Generator.GenerateFullPresentation(ctx, req.Topic, req.Grade, req.Duration, layouts)
}

type SlideRequest struct {
	Title            string `json:"title"`
	Purpose          string `json:"purpose"`
	Grade            string `json:"grade"`
	LayoutID         int    `json:"layout_id"`
	TemplateFilename string `json:"template_filename"`
}

// SlideContent writes the content of one outlined slide.
func (s *Service) SlideContent(ctx context.Context, req SlideRequest) (content.Map, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	layouts, err := s.layouts(req.TemplateFilename)
	if err != nil {
		return nil, err
	}
	for _, l := range layouts {
		if l.ID == req.LayoutID {
			return s.deps.Generator.GenerateSlideContent(ctx, req.Title, req.Purpose, req.Grade, l.Placeholders)
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidLayout, req.LayoutID)
}

// SearchImages returns candidate pictures for a query.
func (s *Service) SearchImages(ctx context.Context, query string, num int) ([]imagesearch.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if num <= 0 {
		num = defaultImages
	}
	return s.deps.Images.Search(ctx, query, num), nil
}

type BuildRequest struct {
	TemplateFilename string              `json:"template_filename"`
	Slides           []content.SlideSpec `json:"slides"`
	OutputFilename   string              `json:"output_filename,omitempty"`
	// Topic is only recorded in the build history.
	Topic string `json:"topic,omitempty"`
}

type BuildResult struct {
	Filename    string         `json:"filename"`
	Path        string         `json:"-"`
	DownloadURL string         `json:"download_url"`
	Report      *engine.Report `json:"report"`
}

// Build resolves image queries to URLs, assembles the deck and records it.
// An existing file with the same name is overwritten.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if req.TemplateFilename == "" {
		return nil, fmt.Errorf("%w: template_filename is required", ErrInvalidRequest)
	}
	templatePath, err := s.deps.Catalog.Path(req.TemplateFilename)
	if err != nil {
		return nil, err
	}

	specs := s.ResolveImages(ctx, req.Slides)

	name := SanitizeFilename(req.OutputFilename, s.deps.DefaultOutput)
	out := filepath.Join(s.deps.OutputDir, name)
	report, err := s.deps.Engine.Build(ctx, templatePath, specs, out)
	if err != nil {
		return nil, err
	}

	res := &BuildResult{Filename: name, Path: out, DownloadURL: "/media/" + name, Report: report}
	s.record(ctx, req, res)
	return res, nil
}

// ResolveImages returns a copy of specs where image values that only carry a
// search query get the URL of the best match. Each distinct query is searched
// once; queries without a match are left as they are.
func (s *Service) ResolveImages(ctx context.Context, specs []content.SlideSpec) []content.SlideSpec {
	var queries []string
	for _, spec := range specs {
		for _, e := range spec.Content {
			if img, ok := e.Value.(content.Image); ok && img.URL == "" && strings.TrimSpace(img.Query) != "" {
				queries = append(queries, img.Query)
			}
		}
	}

	out := make([]content.SlideSpec, len(specs))
	copy(out, specs)
	if len(queries) == 0 || s.deps.Images == nil {
		return out
	}

	urls := s.deps.Images.BatchSearch(ctx, queries)
	for i, spec := range out {
		m := make(content.Map, len(spec.Content))
		copy(m, spec.Content)
		for j, e := range m {
			img, ok := e.Value.(content.Image)
			if !ok || img.URL != "" {
				continue
			}
			if url, found := urls[img.Query]; found {
				m[j].Value = content.Image{Query: img.Query, URL: url}
			} else {
				s.log.Warn("No image found", "query", img.Query, "slide", i+1)
			}
		}
		out[i].Content = m
	}
	return out
}

func (s *Service) record(ctx context.Context, req BuildRequest, res *BuildResult) {
	if s.deps.DB == nil {
		return
	}
	report, _ := json.Marshal(res.Report)
	_, err := database.SaveDeck(ctx, s.deps.DB, &database.GeneratedDeck{
		Filename:         res.Filename,
		TemplateFilename: req.TemplateFilename,
		Topic:            req.Topic,
		Status:           string(res.Report.Status),
		SlideCount:       res.Report.Built(),
		DegradedCount:    res.Report.Degraded(),
		Report:           report,
	})
	if err != nil {
		s.log.Error("Failed to record build", "file", res.Filename, "error", err)
	}
}

// Decks lists recent builds.
func (s *Service) Decks(ctx context.Context, limit int) ([]database.GeneratedDeck, error) {
	if s.deps.DB == nil {
		return nil, ErrHistoryUnavailable
	}
	return database.ListDecks(ctx, s.deps.DB, limit)
}

func (s *Service) recordUsage(ctx context.Context, provider, model, operation string, u ai.Usage) {
	err := database.LogAIUsage(ctx, s.deps.DB, &database.AIUsage{
		Provider:         provider,
		Model:            model,
		Operation:        operation,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	})
	if err != nil {
		s.log.Warn("Failed to log AI usage", "error", err)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces name to a safe base name ending in .pptx, or
// returns fallback when nothing usable is left.
func SanitizeFilename(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if strings.EqualFold(filepath.Ext(name), ".pptx") {
		name = name[:len(name)-len(".pptx")]
	}
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._-")
	if name == "" {
		return fallback
	}
	return name + ".pptx"
}
