package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// SlideData holds extracted text and structure for a slide of a saved deck.
type SlideData struct {
	SlideNumber int       `json:"slide_number"`
	Text        string    `json:"text"`
	Content     JSONSlide `json:"content"`
}

// JSONSlide is the per-shape structure of a slide.
type JSONSlide struct {
	Index  int         `json:"index"`
	Shapes []ShapeDump `json:"shapes"`
	Media  []string    `json:"media,omitempty"`
}

// ShapeDump is one shape with text, as seen in the slide XML.
type ShapeDump struct {
	Kind        string    `json:"kind"` // sp | pic | graphicFrame
	Type        string    `json:"type"` // title | body | other
	Index       int       `json:"index"`
	Placeholder bool      `json:"placeholder"`
	Name        string    `json:"name"`
	Runs        []TextRun `json:"runs,omitempty"`
	WordWrap    bool      `json:"word_wrap,omitempty"`
}

type TextRun struct {
	Text  string `json:"text"`
	Bold  bool   `json:"bold,omitempty"`
	Size  int    `json:"size,omitempty"` // pt
	Font  string `json:"font,omitempty"`
	Color string `json:"color,omitempty"`
}

// ExtractSlideContent reads text and shape structure from all slides of a PPTX.
func ExtractSlideContent(pptxPath string) (map[int]SlideData, error) {
	r, err := zip.OpenReader(pptxPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return extractSlides(&r.Reader)
}

// ExtractSlideContent reads the slides of the rendered presentation.
func (p *Presentation) ExtractSlideContent() (map[int]SlideData, error) {
	data, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return extractSlides(r)
}

func extractSlides(r *zip.Reader) (map[int]SlideData, error) {
	result := make(map[int]SlideData)
	rels := make(map[int][]string)

	for _, f := range r.File {
		dir, base := path.Split(f.Name)
		if dir == "ppt/slides/_rels/" && strings.HasSuffix(base, ".xml.rels") {
			slideNum, ok := partNumber(strings.TrimSuffix(f.Name, ".rels"), "ppt/slides/_rels/slide")
			if !ok {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				continue
			}
			var doc relationshipsXML
			err = xml.NewDecoder(rc).Decode(&doc)
			rc.Close()
			if err != nil {
				continue
			}
			for _, rel := range doc.Rels {
				if rel.Type == relTypeImage {
					rels[slideNum] = append(rels[slideNum], resolveTarget("ppt/slides", rel.Target))
				}
			}
			continue
		}

		// Proper check for slide files: starts with ppt/slides/slide and ends with .xml
		if dir != "ppt/slides/" || !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
			continue
		}
		slideNum, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml"))
		if err != nil {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		jsonSlide, plainText, err := parseSlideXML(rc, slideNum)
		rc.Close()
		if err != nil {
			continue // skip on error
		}

		result[slideNum] = SlideData{
			SlideNumber: slideNum,
			Text:        strings.TrimSpace(plainText),
			Content:     *jsonSlide,
		}
	}

	for num, media := range rels {
		if sd, ok := result[num]; ok {
			sort.Strings(media)
			sd.Content.Media = media
			result[num] = sd
		}
	}
	return result, nil
}

func parseSlideXML(r io.Reader, index int) (*JSONSlide, string, error) {
	dec := xml.NewDecoder(r)

	slide := &JSONSlide{Index: index}
	var textBuilder strings.Builder

	var currentShape *ShapeDump
	var currentRun *TextRun
	shapeDepth := 0
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}

		switch el := tok.(type) {

		case xml.StartElement:
			depth++
			switch el.Name.Local {

			case "sp", "pic", "graphicFrame":
				if currentShape == nil {
					currentShape = &ShapeDump{Kind: el.Name.Local, Type: "other"}
					shapeDepth = depth
				}

			case "cNvPr":
				if currentShape != nil && currentShape.Name == "" {
					currentShape.Name = attrValue(el, "", "name")
				}

			case "ph": // placeholder (title/body)
				if currentShape != nil {
					currentShape.Placeholder = true
					currentShape.Type = normalizePlaceholder(attrValue(el, "", "type"))
					currentShape.Index, _ = strconv.Atoi(attrValue(el, "", "idx"))
				}

			case "bodyPr":
				if currentShape != nil && attrValue(el, "", "wrap") == "square" {
					currentShape.WordWrap = true
				}

			case "r": // text run
				currentRun = &TextRun{}

			case "rPr": // run formatting
				if currentRun != nil {
					for _, a := range el.Attr {
						switch a.Name.Local {
						case "b":
							currentRun.Bold = a.Value == "1"
						case "sz":
							if sz, err := strconv.Atoi(a.Value); err == nil {
								currentRun.Size = sz / 100 // 1/100 pt
							}
						}
					}
				}

			case "latin": // font family
				if currentRun != nil {
					currentRun.Font = attrValue(el, "", "typeface")
				}

			case "srgbClr": // color
				if currentRun != nil {
					currentRun.Color = "#" + attrValue(el, "", "val")
				}

			case "t": // actual text
				if currentRun != nil {
					var text string
					if err := dec.DecodeElement(&text, &el); err == nil {
						currentRun.Text = text
					}
					depth--
				}
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "r":
				if currentShape != nil && currentRun != nil && currentRun.Text != "" {
					currentShape.Runs = append(currentShape.Runs, *currentRun)
					textBuilder.WriteString(currentRun.Text)
					textBuilder.WriteString(" ")
				}
				currentRun = nil
			}
			if currentShape != nil && depth == shapeDepth {
				slide.Shapes = append(slide.Shapes, *currentShape)
				currentShape = nil
			}
			depth--
		}
	}

	return slide, textBuilder.String(), nil
}

func normalizePlaceholder(ph string) string {
	switch ph {
	case "title", "ctrTitle":
		return "title"
	case "body", "subTitle", "":
		return "body"
	default:
		return "other"
	}
}
