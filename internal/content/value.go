package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedTable = errors.New("malformed table payload")
	ErrMalformedChart = errors.New("malformed chart payload")
)

// Parse converts one raw JSON value into a Value.
func Parse(raw json.RawMessage) Value {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return Unknown{Raw: raw}
	}
	return fromInterface(v, raw)
}

// FromInterface converts a decoded JSON value (string, number, bool, nil,
// map[string]interface{}) into a Value.
func FromInterface(v interface{}) Value {
	return fromInterface(v, nil)
}

func fromInterface(v interface{}, raw json.RawMessage) Value {
	switch t := v.(type) {
	case string:
		return Text(t)
	case json.Number, float64, int, bool:
		return Text(Stringify(t))
	case map[string]interface{}:
		return fromObject(t, raw)
	}
	if raw == nil {
		raw, _ = json.Marshal(v)
	}
	return Unknown{Raw: raw}
}

func fromObject(obj map[string]interface{}, raw json.RawMessage) Value {
	tag, _ := obj["type"].(string)
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "image":
		img := Image{}
		img.Query, _ = obj["query"].(string)
		img.URL, _ = obj["url"].(string)
		return img
	case "table":
		return parseTable(obj)
	case "chart":
		return parseChart(obj)
	}
	if raw == nil {
		raw, _ = json.Marshal(obj)
	}
	return Unknown{Tag: tag, Raw: raw}
}

func parseTable(obj map[string]interface{}) Table {
	var t Table
	if h, ok := obj["headers"]; ok && h != nil {
		cells, ok := h.([]interface{})
		if !ok {
			t.Err = fmt.Errorf("%w: headers must be a list", ErrMalformedTable)
			return t
		}
		t.Headers = stringifyAll(cells)
	}
	if r, ok := obj["rows"]; ok && r != nil {
		rows, ok := r.([]interface{})
		if !ok {
			t.Err = fmt.Errorf("%w: rows must be a list", ErrMalformedTable)
			return t
		}
		for i, row := range rows {
			cells, ok := row.([]interface{})
			if !ok {
				t.Err = fmt.Errorf("%w: row %d must be a list", ErrMalformedTable, i)
				return t
			}
			t.Rows = append(t.Rows, stringifyAll(cells))
		}
	}
	return t
}

func parseChart(obj map[string]interface{}) Chart {
	var c Chart
	c.ChartType, _ = obj["chart_type"].(string)

	if cats, ok := obj["categories"]; ok && cats != nil {
		list, ok := cats.([]interface{})
		if !ok {
			c.Err = fmt.Errorf("%w: categories must be a list", ErrMalformedChart)
			return c
		}
		c.Categories = stringifyAll(list)
	}

	series, ok := obj["series"].([]interface{})
	if !ok && obj["series"] != nil {
		c.Err = fmt.Errorf("%w: series must be a list", ErrMalformedChart)
		return c
	}
	for i, s := range series {
		m, ok := s.(map[string]interface{})
		if !ok {
			c.Err = fmt.Errorf("%w: series %d must be an object", ErrMalformedChart, i)
			return c
		}
		name := Stringify(m["name"])
		var values []float64
		if raw, ok := m["values"]; ok && raw != nil {
			list, ok := raw.([]interface{})
			if !ok {
				c.Err = fmt.Errorf("%w: values of series %q must be a list", ErrMalformedChart, name)
				return c
			}
			for _, v := range list {
				f, err := toFloat(v)
				if err != nil {
					c.Err = fmt.Errorf("%w: series %q: %v", ErrMalformedChart, name, err)
					return c
				}
				values = append(values, f)
			}
		}
		c.Series = append(c.Series, Series{Name: name, Values: values})
	}
	return c
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

// Stringify renders a decoded JSON scalar as cell text. null becomes an empty
// cell and booleans use Go's lower-case spelling.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func stringifyAll(list []interface{}) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = Stringify(v)
	}
	return out
}

// MarshalValue writes a Value in its wire form.
func MarshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case Text:
		return json.Marshal(string(t))
	case Image:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Query string `json:"query,omitempty"`
			URL   string `json:"url,omitempty"`
		}{"image", t.Query, t.URL})
	case Table:
		return json.Marshal(struct {
			Type    string     `json:"type"`
			Headers []string   `json:"headers"`
			Rows    [][]string `json:"rows"`
		}{"table", t.Headers, t.Rows})
	case Chart:
		return json.Marshal(struct {
			Type       string   `json:"type"`
			ChartType  string   `json:"chart_type,omitempty"`
			Categories []string `json:"categories"`
			Series     []Series `json:"series"`
		}{"chart", t.ChartType, t.Categories, t.Series})
	case Unknown:
		if len(t.Raw) == 0 {
			return []byte("null"), nil
		}
		return t.Raw, nil
	case nil:
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}
