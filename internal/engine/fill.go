package engine

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// Status is the outcome of filling one placeholder.
type Status string

const (
	StatusFilled   Status = "filled"
	StatusDegraded Status = "degraded"
	StatusSkipped  Status = "skipped"
)

// FillResult reports what happened to one content entry.
type FillResult struct {
	Key         string       `json:"key"`
	Index       int          `json:"index"`
	Placeholder string       `json:"placeholder"`
	Kind        content.Kind `json:"kind"`
	Status      Status       `json:"status"`
	Reason      string       `json:"reason,omitempty"`
}

// FontSizeFor is the point size used for text of the given length.
func FontSizeFor(text string) float64 {
	n := utf8.RuneCountInString(text)
	switch {
	case n > 300:
		return 12
	case n > 200:
		return 14
	case n > 100:
		return 18
	default:
		return 24
	}
}

// Filler writes content values into slide placeholders. Failures never
// propagate: they degrade the one placeholder and are reported in the result.
type Filler struct {
	Images *ImageFetcher
	// ImageErrorNotice is written into text-capable placeholders whose image
	// could not be loaded.
	ImageErrorNotice string
	Log              *logger.Logger
}

// Fill writes v into sh.
func (f *Filler) Fill(ctx context.Context, sh *pptx.Shape, key string, v content.Value) FillResult {
	ph := sh.Placeholder
	res := FillResult{Key: key, Index: ph.Index, Placeholder: ph.Name, Kind: v.Kind(), Status: StatusFilled}

	degrade := func(format string, args ...interface{}) FillResult {
		res.Status = StatusDegraded
		res.Reason = fmt.Sprintf(format, args...)
		f.log().Warn("Placeholder degraded", "placeholder", ph.Name, "index", ph.Index, "kind", res.Kind, "reason", res.Reason)
		return res
	}

	switch val := v.(type) {
	case content.Text:
		text := string(val)
		if err := sh.SetText(text, FontSizeFor(text)); err != nil {
			return degrade("%v", err)
		}

	case content.Image:
		if ph.IsTitle || !ph.IsImage {
			return degrade("unsupported: %s placeholder cannot hold an image", ph.Kind)
		}
		if val.URL == "" {
			f.imageNotice(sh)
			return degrade("image has no url (query %q unresolved)", val.Query)
		}
		pic, err := f.fetcher().Fetch(ctx, val.URL)
		if err != nil {
			f.imageNotice(sh)
			return degrade("%v", err)
		}
		if err := sh.InsertPicture(pic.PNG, pic.Width, pic.Height); err != nil {
			f.imageNotice(sh)
			return degrade("%v", err)
		}

	case content.Table:
		if val.Err != nil {
			return degrade("%v", val.Err)
		}
		if ph.IsTitle || !ph.IsTable {
			return degrade("unsupported: %s placeholder cannot hold a table", ph.Kind)
		}
		grid := tableGrid(val)
		if grid == nil {
			res.Status = StatusSkipped
			res.Reason = "empty table"
			return res
		}
		if err := sh.InsertTable(grid); err != nil {
			return degrade("%v", err)
		}

	case content.Chart:
		if val.Err != nil {
			return degrade("%v", val.Err)
		}
		if ph.IsTitle || !ph.IsChart {
			return degrade("unsupported: %s placeholder cannot hold a chart", ph.Kind)
		}
		chartType, known := pptx.LookupChartType(val.ChartType)
		data := pptx.ChartData{
			Type:       chartType,
			Categories: val.Categories,
		}
		for _, s := range val.Series {
			data.Series = append(data.Series, pptx.ChartSeries{Name: s.Name, Values: s.Values})
		}
		if err := sh.InsertChart(data); err != nil {
			return degrade("%v", err)
		}
		if !known {
			return degrade("unsupported chart type %q, using %s", val.ChartType, chartType)
		}

	case content.Unknown:
		res.Status = StatusSkipped
		res.Reason = fmt.Sprintf("unsupported content type %q", val.Tag)
		f.log().Info("Content dropped", "key", key, "tag", val.Tag)

	default:
		res.Status = StatusSkipped
		res.Reason = fmt.Sprintf("unsupported value %T", v)
	}
	return res
}

func (f *Filler) imageNotice(sh *pptx.Shape) {
	if sh.Placeholder.SupportsText && f.ImageErrorNotice != "" {
		_ = sh.SetText(f.ImageErrorNotice, FontSizeFor(f.ImageErrorNotice))
	}
}

func (f *Filler) fetcher() *ImageFetcher {
	if f.Images == nil {
		return &ImageFetcher{}
	}
	return f.Images
}

func (f *Filler) log() *logger.Logger {
	if f.Log == nil {
		return logger.NewNop()
	}
	return f.Log
}

// tableGrid lays out the header row and data rows. The row count is the data
// rows plus one for a header row; the column count is the header width, or
// the first row's width without headers. It returns nil when either is zero.
func tableGrid(t content.Table) [][]string {
	rows := len(t.Rows)
	if len(t.Headers) > 0 {
		rows++
	}
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	grid := make([][]string, 0, rows)
	fit := func(src []string) []string {
		row := make([]string, cols)
		copy(row, src)
		return row
	}
	if len(t.Headers) > 0 {
		grid = append(grid, fit(t.Headers))
	}
	for _, r := range t.Rows {
		grid = append(grid, fit(r))
	}
	return grid
}
