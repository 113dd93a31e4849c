package pptx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ChartType names a supported chart kind.
type ChartType string

const (
	BarClustered     ChartType = "BAR_CLUSTERED"
	BarStacked       ChartType = "BAR_STACKED"
	BarStacked100    ChartType = "BAR_STACKED_100"
	ColumnClustered  ChartType = "COLUMN_CLUSTERED"
	ColumnStacked    ChartType = "COLUMN_STACKED"
	ColumnStacked100 ChartType = "COLUMN_STACKED_100"
	Line             ChartType = "LINE"
	LineMarkers      ChartType = "LINE_MARKERS"
	Pie              ChartType = "PIE"
	Doughnut         ChartType = "DOUGHNUT"
	Area             ChartType = "AREA"
	AreaStacked      ChartType = "AREA_STACKED"
)

var chartTypes = map[ChartType]bool{
	BarClustered: true, BarStacked: true, BarStacked100: true,
	ColumnClustered: true, ColumnStacked: true, ColumnStacked100: true,
	Line: true, LineMarkers: true, Pie: true, Doughnut: true,
	Area: true, AreaStacked: true,
}

// ParseChartType normalizes a loosely written chart type ("column clustered",
// "line-markers"). Unknown or empty names become BarClustered.
func ParseChartType(s string) ChartType {
	t, _ := LookupChartType(s)
	return t
}

// LookupChartType is ParseChartType that also reports whether s named a
// supported type. An empty name counts as supported.
func LookupChartType(s string) (ChartType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "" {
		return BarClustered, true
	}
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if chartTypes[ChartType(norm)] {
		return ChartType(norm), true
	}
	return BarClustered, false
}

// ErrEmptyChart is returned when chart data has no series.
var ErrEmptyChart = errors.New("chart has no series")

// ChartSeries is one named series of values aligned with the categories.
type ChartSeries struct {
	Name   string
	Values []float64
}

// ChartData is the input of InsertChart.
type ChartData struct {
	Type       ChartType
	Categories []string
	Series     []ChartSeries
}

type chartBody struct {
	relID string
}

// InsertChart writes a chart part with literal data caches and replaces the
// placeholder with a frame referencing it.
func (sh *Shape) InsertChart(data ChartData) error {
	if len(data.Series) == 0 {
		return ErrEmptyChart
	}
	if !chartTypes[data.Type] {
		data.Type = BarClustered
	}
	s := sh.slide
	part := s.pres.addPart("ppt/charts/chart", ".xml", chartXML(data), ctChart)
	sh.body = &chartBody{relID: s.addRel(relTypeChart, part)}
	return nil
}

// IsChart reports whether a chart was inserted into the shape.
func (sh *Shape) IsChart() bool {
	_, ok := sh.body.(*chartBody)
	return ok
}

func (c *chartBody) write(b *strings.Builder, sh *Shape) {
	writeGraphicFrameStart(b, sh)
	fmt.Fprintf(b, `<a:graphic><a:graphicData uri="%s"><c:chart xmlns:c="%s" r:id="%s"/></a:graphicData></a:graphic>`, nsC, nsC, c.relID)
	b.WriteString(`</p:graphicFrame>`)
}

const (
	catAxisID = "111111111"
	valAxisID = "222222222"
)

func chartXML(d ChartData) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<c:chartSpace xmlns:c="%s" xmlns:a="%s" xmlns:r="%s">`, nsC, nsA, nsR)
	b.WriteString(`<c:date1904 val="0"/><c:roundedCorners val="0"/><c:chart><c:autoTitleDeleted val="0"/><c:plotArea><c:layout/>`)

	axes := true
	switch d.Type {
	case BarClustered, BarStacked, BarStacked100:
		writeBarChart(&b, d, "bar")
	case ColumnClustered, ColumnStacked, ColumnStacked100:
		writeBarChart(&b, d, "col")
	case Line, LineMarkers:
		writeLineChart(&b, d)
	case Area, AreaStacked:
		writeAreaChart(&b, d)
	case Pie:
		writePieChart(&b, d, "pieChart")
		axes = false
	case Doughnut:
		writePieChart(&b, d, "doughnutChart")
		axes = false
	}

	if axes {
		catPos, valPos := "b", "l"
		if d.Type == BarClustered || d.Type == BarStacked || d.Type == BarStacked100 {
			catPos, valPos = "l", "b"
		}
		crossBetween := "between"
		if d.Type == Area || d.Type == AreaStacked {
			crossBetween = "midCat"
		}
		fmt.Fprintf(&b, `<c:catAx><c:axId val="%s"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="%s"/><c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/><c:crossAx val="%s"/><c:crosses val="autoZero"/><c:auto val="1"/><c:lblAlgn val="ctr"/><c:lblOffset val="100"/><c:noMultiLvlLbl val="0"/></c:catAx>`,
			catAxisID, catPos, valAxisID)
		fmt.Fprintf(&b, `<c:valAx><c:axId val="%s"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="%s"/><c:majorGridlines/><c:numFmt formatCode="General" sourceLinked="0"/><c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/><c:crossAx val="%s"/><c:crosses val="autoZero"/><c:crossBetween val="%s"/></c:valAx>`,
			valAxisID, valPos, catAxisID, crossBetween)
	}
	b.WriteString(`</c:plotArea>`)

	if !axes || len(d.Series) > 1 {
		b.WriteString(`<c:legend><c:legendPos val="r"/><c:overlay val="0"/></c:legend>`)
	}
	b.WriteString(`<c:plotVisOnly val="1"/><c:dispBlanksAs val="gap"/></c:chart></c:chartSpace>`)
	return []byte(b.String())
}

func grouping(t ChartType) string {
	switch t {
	case BarStacked, ColumnStacked, AreaStacked:
		return "stacked"
	case BarStacked100, ColumnStacked100:
		return "percentStacked"
	case Line, LineMarkers, Area:
		return "standard"
	}
	return "clustered"
}

func writeBarChart(b *strings.Builder, d ChartData, dir string) {
	g := grouping(d.Type)
	fmt.Fprintf(b, `<c:barChart><c:barDir val="%s"/><c:grouping val="%s"/><c:varyColors val="0"/>`, dir, g)
	for i, s := range d.Series {
		writeSeriesHead(b, i, s)
		b.WriteString(`<c:invertIfNegative val="0"/>`)
		writeSeriesData(b, d.Categories, s)
		b.WriteString(`</c:ser>`)
	}
	b.WriteString(`<c:gapWidth val="150"/>`)
	if g != "clustered" {
		b.WriteString(`<c:overlap val="100"/>`)
	}
	fmt.Fprintf(b, `<c:axId val="%s"/><c:axId val="%s"/></c:barChart>`, catAxisID, valAxisID)
}

func writeLineChart(b *strings.Builder, d ChartData) {
	b.WriteString(`<c:lineChart><c:grouping val="standard"/><c:varyColors val="0"/>`)
	for i, s := range d.Series {
		writeSeriesHead(b, i, s)
		if d.Type == Line {
			b.WriteString(`<c:marker><c:symbol val="none"/></c:marker>`)
		}
		writeSeriesData(b, d.Categories, s)
		b.WriteString(`<c:smooth val="0"/></c:ser>`)
	}
	fmt.Fprintf(b, `<c:marker val="1"/><c:axId val="%s"/><c:axId val="%s"/></c:lineChart>`, catAxisID, valAxisID)
}

func writeAreaChart(b *strings.Builder, d ChartData) {
	fmt.Fprintf(b, `<c:areaChart><c:grouping val="%s"/><c:varyColors val="0"/>`, grouping(d.Type))
	for i, s := range d.Series {
		writeSeriesHead(b, i, s)
		writeSeriesData(b, d.Categories, s)
		b.WriteString(`</c:ser>`)
	}
	fmt.Fprintf(b, `<c:axId val="%s"/><c:axId val="%s"/></c:areaChart>`, catAxisID, valAxisID)
}

func writePieChart(b *strings.Builder, d ChartData, tag string) {
	fmt.Fprintf(b, `<c:%s><c:varyColors val="1"/>`, tag)
	for i, s := range d.Series {
		writeSeriesHead(b, i, s)
		writeSeriesData(b, d.Categories, s)
		b.WriteString(`</c:ser>`)
	}
	b.WriteString(`<c:firstSliceAng val="0"/>`)
	if tag == "doughnutChart" {
		b.WriteString(`<c:holeSize val="50"/>`)
	}
	fmt.Fprintf(b, `</c:%s>`, tag)
}

func writeSeriesHead(b *strings.Builder, i int, s ChartSeries) {
	fmt.Fprintf(b, `<c:ser><c:idx val="%d"/><c:order val="%d"/><c:tx><c:v>%s</c:v></c:tx>`, i, i, escape(s.Name))
}

func writeSeriesData(b *strings.Builder, categories []string, s ChartSeries) {
	fmt.Fprintf(b, `<c:cat><c:strLit><c:ptCount val="%d"/>`, len(categories))
	for i, c := range categories {
		fmt.Fprintf(b, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, escape(c))
	}
	b.WriteString(`</c:strLit></c:cat>`)

	count := len(categories)
	if len(s.Values) > count {
		count = len(s.Values)
	}
	fmt.Fprintf(b, `<c:val><c:numLit><c:formatCode>General</c:formatCode><c:ptCount val="%d"/>`, count)
	for i, v := range s.Values {
		fmt.Fprintf(b, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteString(`</c:numLit></c:val>`)
}
