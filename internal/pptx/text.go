package pptx

import (
	"fmt"
	"strings"
)

type textBody struct {
	paragraphs []string
	size       int // hundredths of a point, 0 inherits
	wrap       bool
}

// SetText replaces the placeholder text. "\n" starts a new paragraph and "\v"
// becomes a line break inside one. sizePt <= 0 keeps the inherited size.
func (sh *Shape) SetText(text string, sizePt float64) error {
	if !sh.Placeholder.SupportsText {
		return fmt.Errorf("%w: %s", ErrNoTextFrame, sh.Placeholder.Name)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sh.body = &textBody{
		paragraphs: strings.Split(text, "\n"),
		size:       int(sizePt * 100),
		wrap:       true,
	}
	return nil
}

// Text returns the text last written with SetText.
func (sh *Shape) Text() string {
	if t, ok := sh.body.(*textBody); ok {
		return strings.Join(t.paragraphs, "\n")
	}
	return ""
}

// FontSize returns the size set with SetText in points, or 0.
func (sh *Shape) FontSize() float64 {
	if t, ok := sh.body.(*textBody); ok {
		return float64(t.size) / 100
	}
	return 0
}

func (t *textBody) write(b *strings.Builder, sh *Shape) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	sh.writeCNvPr(b)
	b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>`)
	sh.writeNvPr(b)
	b.WriteString(`</p:nvSpPr><p:spPr/><p:txBody>`)
	if t.wrap {
		b.WriteString(`<a:bodyPr wrap="square"/>`)
	} else {
		b.WriteString(`<a:bodyPr/>`)
	}
	b.WriteString(`<a:lstStyle/>`)

	rPr := `<a:rPr lang="en-US" dirty="0"/>`
	endPr := `<a:endParaRPr lang="en-US" dirty="0"/>`
	if t.size > 0 {
		rPr = fmt.Sprintf(`<a:rPr lang="en-US" sz="%d" dirty="0"/>`, t.size)
		endPr = fmt.Sprintf(`<a:endParaRPr lang="en-US" sz="%d" dirty="0"/>`, t.size)
	}

	for _, para := range t.paragraphs {
		b.WriteString(`<a:p>`)
		if para == "" {
			b.WriteString(endPr)
			b.WriteString(`</a:p>`)
			continue
		}
		for i, line := range strings.Split(para, "\v") {
			if i > 0 {
				fmt.Fprintf(b, `<a:br>%s</a:br>`, rPr)
			}
			if line == "" {
				continue
			}
			fmt.Fprintf(b, `<a:r>%s<a:t>%s</a:t></a:r>`, rPr, escape(line))
		}
		b.WriteString(`</a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
}
