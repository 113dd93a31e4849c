package engine

import (
	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/pptx"
)

// Binding pairs a placeholder with the content chosen for it. Position is the
// placeholder's offset in the slice given to Resolve.
type Binding struct {
	Placeholder pptx.Placeholder
	Position    int
	Key         string
	Value       content.Value
	Exact       bool
}

// Resolution is the outcome of matching one content map to a slide.
type Resolution struct {
	Bindings  []Binding
	Leftovers []content.Entry
}

// Resolve assigns content entries to placeholders.
//
// Entries whose key parses to the index of a placeholder are bound first,
// independent of entry order. The rest are matched first-fit, in placeholder
// order, to the remaining placeholders of the same kind. Image, table and chart
// entries that find no placeholder of their own kind may take a generic
// placeholder capable of holding them; text entries are never widened and are
// returned as leftovers when no text placeholder remains.
func Resolve(placeholders []pptx.Placeholder, c content.Map) Resolution {
	var res Resolution
	used := make([]bool, len(placeholders))
	byIndex := make(map[int]int, len(placeholders))
	for i, ph := range placeholders {
		if _, dup := byIndex[ph.Index]; !dup {
			byIndex[ph.Index] = i
		}
	}

	var pending []content.Entry
	for _, e := range c {
		idx, ok := e.Index()
		if !ok {
			pending = append(pending, e)
			continue
		}
		pos, ok := byIndex[idx]
		if !ok || used[pos] {
			pending = append(pending, e)
			continue
		}
		used[pos] = true
		res.Bindings = append(res.Bindings, Binding{Placeholder: placeholders[pos], Position: pos, Key: e.Key, Value: e.Value, Exact: true})
	}

	for _, e := range pending {
		kind := pptx.Kind(content.TargetKind(e.Value))
		pos := firstFree(placeholders, used, func(ph pptx.Placeholder) bool {
			return ph.Kind == kind
		})
		if pos < 0 && kind != pptx.KindText {
			pos = firstFree(placeholders, used, func(ph pptx.Placeholder) bool {
				return ph.Generic && ph.Kind == pptx.KindText && capable(ph, kind)
			})
		}
		if pos < 0 {
			res.Leftovers = append(res.Leftovers, e)
			continue
		}
		used[pos] = true
		res.Bindings = append(res.Bindings, Binding{Placeholder: placeholders[pos], Position: pos, Key: e.Key, Value: e.Value})
	}
	return res
}

func firstFree(placeholders []pptx.Placeholder, used []bool, match func(pptx.Placeholder) bool) int {
	for i, ph := range placeholders {
		if !used[i] && match(ph) {
			return i
		}
	}
	return -1
}

// capable reports whether a placeholder can hold content of the given kind.
func capable(ph pptx.Placeholder, kind pptx.Kind) bool {
	switch kind {
	case pptx.KindImage:
		return ph.IsImage
	case pptx.KindTable:
		return ph.IsTable
	case pptx.KindChart:
		return ph.IsChart
	case pptx.KindText, pptx.KindTitle:
		return ph.SupportsText
	}
	return false
}
