// Package content models the loosely typed slide content produced by clients
// and language models: an ordered map from placeholder key to a tagged value.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic category of a value. It matches the placeholder kinds
// reported by template inspection.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindTable   Kind = "table"
	KindChart   Kind = "chart"
	KindUnknown Kind = "unknown"
)

// Value is one of Text, Image, Table, Chart or Unknown.
type Value interface {
	Kind() Kind
	isValue()
}

// Text is a plain string value.
type Text string

// Image refers to a picture either by search query or by URL. The URL wins
// when both are present.
type Image struct {
	Query string
	URL   string
}

// Table is a header row plus data rows. Err is set when the payload was tagged
// as a table but could not be read.
type Table struct {
	Headers []string
	Rows    [][]string
	Err     error
}

// Chart holds category/series data. Err is set for malformed payloads.
type Chart struct {
	ChartType  string
	Categories []string
	Series     []Series
	Err        error
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Unknown is a tagged object with a missing or unsupported type, or a JSON null.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

func (Text) Kind() Kind    { return KindText }
func (Image) Kind() Kind   { return KindImage }
func (Table) Kind() Kind   { return KindTable }
func (Chart) Kind() Kind   { return KindChart }
func (Unknown) Kind() Kind { return KindUnknown }

func (Text) isValue()    {}
func (Image) isValue()   {}
func (Table) isValue()   {}
func (Chart) isValue()   {}
func (Unknown) isValue() {}

// TargetKind is the placeholder kind a value is matched against when its key
// does not name a placeholder. Unknown values are routed like text.
func TargetKind(v Value) Kind {
	switch v.Kind() {
	case KindImage, KindTable, KindChart:
		return v.Kind()
	}
	return KindText
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Index parses the key as a placeholder index.
func (e Entry) Index() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(e.Key))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Map is an ordered content mapping. JSON object key order is preserved, which
// keeps fallback assignment stable.
type Map []Entry

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key in place, or appends a new entry.
func (m *Map) Set(key string, v Value) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = v
			return
		}
	}
	*m = append(*m, Entry{Key: key, Value: v})
}

// UnmarshalJSON reads a JSON object keeping the order of its keys.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("content must be a JSON object")
	}

	out := Map{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected content key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("content %q: %w", key, err)
		}
		out.Set(key, Parse(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON writes the map as a JSON object in entry order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := MarshalValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("content %q: %w", e.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SlideSpec describes one slide to build: a layout and the content for it.
type SlideSpec struct {
	LayoutID int `json:"layout_id"`
	Content  Map `json:"content"`
}
