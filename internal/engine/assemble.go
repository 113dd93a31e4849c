package engine

import (
	"context"

	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// DeckStatus summarizes a whole build.
type DeckStatus string

const (
	DeckComplete DeckStatus = "complete"
	DeckPartial  DeckStatus = "partial"
	DeckAborted  DeckStatus = "aborted"
)

// SlideReport describes how one slide spec was materialized.
type SlideReport struct {
	Spec        int          `json:"spec"`
	LayoutID    int          `json:"layout_id"`
	SlideNumber int          `json:"slide_number,omitempty"`
	Skipped     bool         `json:"skipped,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Results     []FillResult `json:"results"`
	Leftovers   []string     `json:"leftovers,omitempty"`
}

// Report is the outcome of assembling a deck.
type Report struct {
	Status DeckStatus    `json:"status"`
	Slides []SlideReport `json:"slides"`
}

// Built returns the number of slides that were added.
func (r *Report) Built() int {
	n := 0
	for _, s := range r.Slides {
		if !s.Skipped {
			n++
		}
	}
	return n
}

// Degraded counts placeholders that were not filled as requested.
func (r *Report) Degraded() int {
	n := 0
	for _, s := range r.Slides {
		for _, res := range s.Results {
			if res.Status != StatusFilled {
				n++
			}
		}
		n += len(s.Leftovers)
	}
	return n
}

func (r *Report) finish() {
	switch {
	case len(r.Slides) > 0 && r.Built() == 0:
		r.Status = DeckAborted
	case r.Built() < len(r.Slides) || r.Degraded() > 0:
		r.Status = DeckPartial
	default:
		r.Status = DeckComplete
	}
}

// Assembler turns slide specs into slides of an open presentation.
type Assembler struct {
	Filler *Filler
	Log    *logger.Logger
}

// Assemble appends one slide per spec, in order. Specs naming an unknown
// layout are skipped; the deck is still built from the rest.
func (a *Assembler) Assemble(ctx context.Context, pres *pptx.Presentation, specs []content.SlideSpec) *Report {
	log := a.Log
	if log == nil {
		log = logger.NewNop()
	}
	report := &Report{Slides: make([]SlideReport, 0, len(specs))}

	for i, spec := range specs {
		sr := SlideReport{Spec: i, LayoutID: spec.LayoutID, Results: []FillResult{}}

		slide, err := pres.AddSlide(spec.LayoutID)
		if err != nil {
			log.Warn("Skipping slide", "spec", i, "layout_id", spec.LayoutID, "error", err)
			sr.Skipped = true
			sr.Reason = err.Error()
			report.Slides = append(report.Slides, sr)
			continue
		}
		sr.SlideNumber = slide.Number

		shapes := slide.Placeholders()
		phs := make([]pptx.Placeholder, len(shapes))
		for j, sh := range shapes {
			phs[j] = sh.Placeholder
		}

		res := Resolve(phs, spec.Content)
		for _, b := range res.Bindings {
			sr.Results = append(sr.Results, a.Filler.Fill(ctx, shapes[b.Position], b.Key, b.Value))
		}
		for _, e := range res.Leftovers {
			log.Info("Content not placed", "slide", slide.Number, "key", e.Key, "kind", e.Value.Kind())
			sr.Leftovers = append(sr.Leftovers, e.Key)
		}
		report.Slides = append(report.Slides, sr)
	}

	report.finish()
	return report
}
