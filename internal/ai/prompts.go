package ai

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/gnemet/LessonForge/internal/pptx"
)

// PromptFS holds the prompt templates compiled into the binary.
//
//go:embed prompts/*.tmpl
var PromptFS embed.FS

var prompts = template.Must(template.ParseFS(PromptFS, "prompts/*.tmpl"))

type layoutLine struct {
	ID           int
	Name         string
	Slots        string
	Placeholders string
}

func describeLayouts(layouts []pptx.Layout) []layoutLine {
	out := make([]layoutLine, 0, len(layouts))
	for _, l := range layouts {
		names := make([]string, 0, len(l.Placeholders))
		indexed := make([]string, 0, len(l.Placeholders))
		for _, ph := range l.Placeholders {
			names = append(names, ph.Name)
			indexed = append(indexed, strconv.Itoa(ph.Index)+" ("+ph.Name+")")
		}
		out = append(out, layoutLine{
			ID:           l.ID,
			Name:         l.Name,
			Slots:        strings.Join(names, ", "),
			Placeholders: strings.Join(indexed, ", "),
		})
	}
	return out
}

// placeholderSchema is what the model sees of a placeholder when writing
// slide content.
type placeholderSchema struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	IsTitle bool   `json:"is_title"`
	IsImage bool   `json:"is_image"`
	IsTable bool   `json:"is_table,omitempty"`
	IsChart bool   `json:"is_chart,omitempty"`
}

func slideSchema(phs []pptx.Placeholder) (string, error) {
	schema := make([]placeholderSchema, 0, len(phs))
	for _, ph := range phs {
		schema = append(schema, placeholderSchema{
			Index:   ph.Index,
			Name:    ph.Name,
			Type:    string(ph.Kind),
			IsTitle: ph.IsTitle,
			IsImage: ph.IsImage,
			IsTable: ph.IsTable,
			IsChart: ph.IsChart,
		})
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
