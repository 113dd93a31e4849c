package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gnemet/LessonForge/internal/content"
)

// extractJSON trims code fences and chatter around the first JSON document in s.
func extractJSON(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return nil
	}
	return []byte(s[start : end+1])
}

// unwrapArray returns the array under the first of keys when data is an
// object, or data itself when it already is an array. An object without any
// of keys is accepted when exactly one of its members is an array; providers
// in JSON object mode pick their own wrapper names.
func unwrapArray(data []byte, keys ...string) (json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no JSON found")
	}
	if data[0] == '[' {
		return data, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			return raw, nil
		}
	}
	var found json.RawMessage
	for _, raw := range obj {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("expected one of %v, found several arrays", keys)
		}
		found = trimmed
	}
	if found == nil {
		return nil, fmt.Errorf("expected one of %v", keys)
	}
	return found, nil
}

// flexInt accepts 3, 3.0 and "3".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexInt(n)
	return nil
}

type rawOutlineSlide struct {
	SlideNumber flexInt `json:"slide_number"`
	LayoutID    flexInt `json:"layout_id"`
	Title       string  `json:"title"`
	Purpose     string  `json:"purpose"`
	ContentPlan string  `json:"content_plan"`
}

type rawPlannedSlide struct {
	SlideNumber flexInt     `json:"slide_number"`
	Title       string      `json:"title"`
	LayoutID    flexInt     `json:"layout_id"`
	Content     content.Map `json:"content"`
}

func parseOutline(text string) ([]OutlineSlide, error) {
	raw, err := unwrapArray(extractJSON(text), "outline", "slides", "lesson")
	if err != nil {
		return nil, err
	}
	var items []rawOutlineSlide
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty outline")
	}
	out := make([]OutlineSlide, len(items))
	for i, it := range items {
		n := int(it.SlideNumber)
		if n <= 0 {
			n = i + 1
		}
		out[i] = OutlineSlide{
			SlideNumber: n,
			LayoutID:    int(it.LayoutID),
			Title:       CleanText(it.Title),
			Purpose:     strings.TrimSpace(it.Purpose),
			ContentPlan: strings.TrimSpace(it.ContentPlan),
		}
	}
	return out, nil
}

func parsePlanned(text string) ([]PlannedSlide, error) {
	raw, err := unwrapArray(extractJSON(text), "slides", "presentation")
	if err != nil {
		return nil, err
	}
	var items []rawPlannedSlide
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no slides")
	}
	out := make([]PlannedSlide, len(items))
	for i, it := range items {
		n := int(it.SlideNumber)
		if n <= 0 {
			n = i + 1
		}
		out[i] = PlannedSlide{
			SlideNumber: n,
			Title:       CleanText(it.Title),
			LayoutID:    int(it.LayoutID),
			Content:     cleanContent(it.Content),
		}
	}
	return out, nil
}

func parseSlideContent(text string) (content.Map, error) {
	data := extractJSON(text)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var m content.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	// {"content": {...}} wrapper
	if len(m) == 1 && m[0].Key == "content" {
		if v, ok := m[0].Value.(content.Unknown); ok && bytes.HasPrefix(bytes.TrimSpace(v.Raw), []byte("{")) {
			var inner content.Map
			if err := json.Unmarshal(v.Raw, &inner); err == nil {
				m = inner
			}
		}
	}
	return cleanContent(m), nil
}

// cleanContent strips markdown from text values and drops image objects
// that carry neither a query nor a URL.
func cleanContent(m content.Map) content.Map {
	out := make(content.Map, 0, len(m))
	for _, e := range m {
		switch v := e.Value.(type) {
		case content.Text:
			e.Value = content.Text(CleanText(string(v)))
		case content.Image:
			if strings.TrimSpace(v.Query) == "" && strings.TrimSpace(v.URL) == "" {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
