package pptx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTextFrame is returned when text is written to a placeholder without one.
var ErrNoTextFrame = errors.New("placeholder has no text frame")

// Slide is a slide added to the presentation in this session.
type Slide struct {
	Number int
	Layout Layout

	part   string
	pres   *Presentation
	shapes []*Shape
	rels   []Relationship
}

// Shape is a placeholder on a new slide. Until content is inserted it renders
// as an empty placeholder that inherits everything from the layout.
type Shape struct {
	Placeholder Placeholder

	id    int
	slide *Slide
	body  shapeBody
}

type shapeBody interface {
	write(b *strings.Builder, s *Shape)
}

// AddSlide appends a slide built from the layout with the given id. Cloneable
// layout placeholders are copied onto the slide in layout order.
func (p *Presentation) AddSlide(layoutID int) (*Slide, error) {
	if layoutID < 0 || layoutID >= len(p.layouts) {
		return nil, fmt.Errorf("%w: %d (template has %d)", ErrLayoutOutOfRange, layoutID, len(p.layouts))
	}
	layout := p.layouts[layoutID]

	part := nextPartName("ppt/slides/slide", ".xml", p.parts, p.newParts, p.slideParts())
	s := &Slide{
		Number: p.SlideCount() + 1,
		Layout: *layout,
		part:   part,
		pres:   p,
		rels: []Relationship{{
			ID:     "rId1",
			Type:   relTypeSlideLayout,
			Target: relativeTarget(part, layout.part),
		}},
	}

	// id 1 is the spTree group itself
	nextID := 2
	for _, ph := range layout.Placeholders {
		if !ph.cloneable() {
			continue
		}
		s.shapes = append(s.shapes, &Shape{Placeholder: ph, id: nextID, slide: s})
		nextID++
	}

	p.slides = append(p.slides, s)
	return s, nil
}

func (p *Presentation) slideParts() map[string][]byte {
	m := make(map[string][]byte, len(p.slides))
	for _, s := range p.slides {
		m[s.part] = nil
	}
	return m
}

// Placeholders returns the slide's placeholder shapes in layout order.
func (s *Slide) Placeholders() []*Shape {
	return s.shapes
}

// Placeholder returns the shape bound to a layout placeholder index.
func (s *Slide) Placeholder(idx int) (*Shape, bool) {
	for _, sh := range s.shapes {
		if sh.Placeholder.Index == idx {
			return sh, true
		}
	}
	return nil, false
}

// PartName is the package part the slide is written to.
func (s *Slide) PartName() string {
	return s.part
}

func (s *Slide) addRel(relType, targetPart string) string {
	used := make(map[string]bool, len(s.rels))
	for _, r := range s.rels {
		used[r.ID] = true
	}
	id := nextRelID(used)
	s.rels = append(s.rels, Relationship{ID: id, Type: relType, Target: relativeTarget(s.part, targetPart)})
	return id
}

// HasContent reports whether anything was inserted into the shape.
func (sh *Shape) HasContent() bool {
	return sh.body != nil
}

func (s *Slide) xml() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsA, nsR, nsP)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	for _, sh := range s.shapes {
		if sh.body != nil {
			sh.body.write(&b, sh)
			continue
		}
		sh.writeEmpty(&b)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(b.String())
}

func (s *Slide) relsXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsPkg)
	for _, r := range s.rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.ID, r.Type, escape(r.Target))
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

func (sh *Shape) writeEmpty(b *strings.Builder) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	sh.writeCNvPr(b)
	b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>`)
	sh.writeNvPr(b)
	b.WriteString(`</p:nvSpPr><p:spPr/>`)
	if sh.Placeholder.SupportsText {
		b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/><a:p/></p:txBody>`)
	}
	b.WriteString(`</p:sp>`)
}

func (sh *Shape) writeCNvPr(b *strings.Builder) {
	fmt.Fprintf(b, `<p:cNvPr id="%d" name="%s"/>`, sh.id, escape(sh.Placeholder.Name))
}

func (sh *Shape) writeNvPr(b *strings.Builder) {
	ph := sh.Placeholder
	b.WriteString(`<p:nvPr><p:ph`)
	if ph.Type != "" && ph.Type != "obj" {
		fmt.Fprintf(b, ` type="%s"`, ph.Type)
	}
	if ph.orient != "" {
		fmt.Fprintf(b, ` orient="%s"`, ph.orient)
	}
	if ph.size != "" {
		fmt.Fprintf(b, ` sz="%s"`, ph.size)
	}
	if ph.Index != 0 {
		fmt.Fprintf(b, ` idx="%d"`, ph.Index)
	}
	b.WriteString(`/></p:nvPr>`)
}

func writeXfrm(b *strings.Builder, tag string, r Rect) {
	fmt.Fprintf(b, `<%s><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></%s>`, tag, r.X, r.Y, r.CX, r.CY, tag)
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			// XML 1.0 forbids most control characters.
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
