package pptx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Kind is the content category a placeholder is best suited for.
type Kind string

const (
	KindTitle Kind = "title"
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindTable Kind = "table"
	KindChart Kind = "chart"
)

// Rect is a position and extent in EMU.
type Rect struct {
	X  int64 `json:"x"`
	Y  int64 `json:"y"`
	CX int64 `json:"cx"`
	CY int64 `json:"cy"`
}

// Placeholder describes one layout placeholder.
type Placeholder struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Kind         Kind   `json:"kind"`
	IsTitle      bool   `json:"is_title"`
	IsImage      bool   `json:"is_image"`
	IsTable      bool   `json:"is_table"`
	IsChart      bool   `json:"is_chart"`
	SupportsText bool   `json:"supports_text"`
	Generic      bool   `json:"generic"`
	Bounds       Rect   `json:"bounds"`

	boundsKnown bool
	orient      string
	size        string
}

// Layout is a slide layout of the template's first master. ID is its position
// in the master's layout list.
type Layout struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Placeholders []Placeholder `json:"placeholders"`

	part string
}

// Placeholder looks up a placeholder by index.
func (l *Layout) Placeholder(idx int) (Placeholder, bool) {
	for _, ph := range l.Placeholders {
		if ph.Index == idx {
			return ph, true
		}
	}
	return Placeholder{}, false
}

// cloneable reports whether a placeholder is copied onto new slides. Date,
// footer and slide number placeholders are not.
func (ph *Placeholder) cloneable() bool {
	switch ph.Type {
	case "dt", "ftr", "sldNum":
		return false
	}
	return true
}

func newLayout(id int, part string, tree *shapeTree, masterBounds map[string]Rect, fallback Rect, opts options) *Layout {
	l := &Layout{ID: id, Name: tree.name, part: part}
	for _, s := range tree.shapes {
		if !s.isPlaceholder {
			continue
		}
		ph := Placeholder{
			Index:  s.phIdx,
			Name:   s.name,
			Type:   s.phType,
			orient: s.phOrient,
			size:   s.phSize,
		}
		switch {
		case s.hasXfrm:
			ph.Bounds, ph.boundsKnown = s.xfrm, true
		default:
			if r, ok := masterBounds[placeholderFamily(ph.Type)]; ok {
				ph.Bounds, ph.boundsKnown = r, true
			} else {
				ph.Bounds = fallback
			}
		}
		classify(&ph, opts.genericCapable)
		l.Placeholders = append(l.Placeholders, ph)
	}
	return l
}

func classify(ph *Placeholder, genericCapable bool) {
	name := strings.ToLower(ph.Name)
	ph.Generic = ph.Type == "obj" || ph.Type == "body"
	widen := ph.Generic && genericCapable

	ph.IsTitle = ph.Type == "title" || ph.Type == "ctrTitle" || strings.Contains(name, "title")
	ph.IsImage = ph.Type == "pic" || ph.Type == "clipArt" || strings.Contains(name, "picture") || widen
	ph.IsTable = ph.Type == "tbl" || strings.Contains(name, "table") || widen
	ph.IsChart = ph.Type == "chart" || strings.Contains(name, "chart") || widen

	switch ph.Type {
	case "title", "ctrTitle", "subTitle", "body", "obj":
		ph.SupportsText = true
	}

	switch {
	case ph.IsTitle:
		ph.Kind = KindTitle
	case ph.Type == "pic" || ph.Type == "clipArt" || strings.Contains(name, "picture"):
		ph.Kind = KindImage
	case ph.Type == "tbl" || strings.Contains(name, "table"):
		ph.Kind = KindTable
	case ph.Type == "chart" || strings.Contains(name, "chart"):
		ph.Kind = KindChart
	default:
		ph.Kind = KindText
	}
}

// placeholderFamily groups placeholder types that inherit from the same master shape.
func placeholderFamily(phType string) string {
	switch phType {
	case "title", "ctrTitle":
		return "title"
	case "dt", "ftr", "sldNum", "hdr":
		return phType
	}
	return "body"
}

type treeShape struct {
	name          string
	isPlaceholder bool
	phType        string
	phIdx         int
	phOrient      string
	phSize        string
	hasXfrm       bool
	xfrm          Rect
}

type shapeTree struct {
	name       string
	shapes     []treeShape
	layoutRIDs []string
}

// parseShapeTree reads the direct children of spTree from a master or layout
// part, plus the master's layout id list.
func parseShapeTree(data []byte) (*shapeTree, error) {
	tree := &shapeTree{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	depth := 0
	treeDepth := -1
	var current *treeShape
	shapeDepth := 0
	inXfrm := false
	seenName := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case t.Name.Local == "cSld" && treeDepth < 0:
				tree.name = attrValue(t, "", "name")
			case t.Name.Local == "spTree" && treeDepth < 0:
				treeDepth = depth
			case t.Name.Local == "sldLayoutId":
				tree.layoutRIDs = append(tree.layoutRIDs, attrValue(t, nsR, "id"))
			case treeDepth > 0 && depth == treeDepth+1:
				switch t.Name.Local {
				case "sp", "pic", "graphicFrame":
					current = &treeShape{phType: "obj"}
					shapeDepth = depth
					seenName = false
				}
			case current != nil:
				switch t.Name.Local {
				case "cNvPr":
					if !seenName {
						current.name = attrValue(t, "", "name")
						seenName = true
					}
				case "ph":
					current.isPlaceholder = true
					if v := attrValue(t, "", "type"); v != "" {
						current.phType = v
					}
					if v := attrValue(t, "", "idx"); v != "" {
						current.phIdx, _ = strconv.Atoi(v)
					}
					current.phOrient = attrValue(t, "", "orient")
					current.phSize = attrValue(t, "", "sz")
				case "xfrm":
					if !current.hasXfrm {
						inXfrm = true
					}
				case "off":
					if inXfrm {
						current.xfrm.X = attrInt(t, "x")
						current.xfrm.Y = attrInt(t, "y")
					}
				case "ext":
					if inXfrm {
						current.xfrm.CX = attrInt(t, "cx")
						current.xfrm.CY = attrInt(t, "cy")
					}
				}
			}

		case xml.EndElement:
			if current != nil {
				if t.Name.Local == "xfrm" && inXfrm {
					inXfrm = false
					current.hasXfrm = true
				}
				if depth == shapeDepth {
					tree.shapes = append(tree.shapes, *current)
					current = nil
				}
			}
			if depth == treeDepth {
				treeDepth = 0
			}
			depth--
		}
	}
	return tree, nil
}
