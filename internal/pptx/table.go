package pptx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable is returned when a table would have no rows or columns.
var ErrEmptyTable = errors.New("table has no rows or columns")

// mediumStyle2Accent1 is the built-in "Medium Style 2 - Accent 1" table style.
const mediumStyle2Accent1 = "{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"

type tableBody struct {
	grid [][]string
	cols int
}

// InsertTable replaces the placeholder with a table frame of the given grid.
// Every row is padded to the widest row; the first row is styled as a header.
func (sh *Shape) InsertTable(grid [][]string) error {
	cols := 0
	for _, row := range grid {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if len(grid) == 0 || cols == 0 {
		return ErrEmptyTable
	}
	sh.body = &tableBody{grid: grid, cols: cols}
	return nil
}

// TableGrid returns the cells of an inserted table.
func (sh *Shape) TableGrid() ([][]string, bool) {
	if t, ok := sh.body.(*tableBody); ok {
		return t.grid, true
	}
	return nil, false
}

// ColumnWidths splits a width across n columns, giving the remainder to the last one.
func ColumnWidths(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	widths := make([]int64, n)
	each := total / int64(n)
	for i := range widths {
		widths[i] = each
	}
	widths[n-1] += total - each*int64(n)
	return widths
}

func (t *tableBody) write(b *strings.Builder, sh *Shape) {
	bounds := sh.Placeholder.Bounds
	rowHeight := bounds.CY / int64(len(t.grid))

	writeGraphicFrameStart(b, sh)
	b.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl>`)
	fmt.Fprintf(b, `<a:tblPr firstRow="1" bandRow="1"><a:tableStyleId>%s</a:tableStyleId></a:tblPr>`, mediumStyle2Accent1)
	b.WriteString(`<a:tblGrid>`)
	for _, w := range ColumnWidths(bounds.CX, t.cols) {
		fmt.Fprintf(b, `<a:gridCol w="%d"/>`, w)
	}
	b.WriteString(`</a:tblGrid>`)

	for _, row := range t.grid {
		fmt.Fprintf(b, `<a:tr h="%d">`, rowHeight)
		for c := 0; c < t.cols; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/><a:p>`)
			if cell != "" {
				fmt.Fprintf(b, `<a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r>`, escape(cell))
			}
			b.WriteString(`</a:p></a:txBody><a:tcPr/></a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
}

func writeGraphicFrameStart(b *strings.Builder, sh *Shape) {
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr>`)
	sh.writeCNvPr(b)
	b.WriteString(`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr>`)
	sh.writeNvPr(b)
	b.WriteString(`</p:nvGraphicFramePr>`)
	writeXfrm(b, "p:xfrm", sh.Placeholder.Bounds)
}
