package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// Default slide size, 16:9.
const (
	SlideWidth  int64 = 12192000
	SlideHeight int64 = 6858000
)

// PlaceholderDef declares a placeholder of a generated layout.
type PlaceholderDef struct {
	Type   string // title, ctrTitle, subTitle, body, obj, pic, tbl, chart
	Index  int
	Name   string
	Bounds Rect
}

// LayoutDef declares a layout of a generated template.
type LayoutDef struct {
	Name         string
	Placeholders []PlaceholderDef
}

var (
	titleRect    = Rect{X: 838200, Y: 365125, CX: 10515600, CY: 1325563}
	bodyRect     = Rect{X: 838200, Y: 1825625, CX: 10515600, CY: 4351338}
	leftRect     = Rect{X: 838200, Y: 1825625, CX: 5181600, CY: 4351338}
	rightRect    = Rect{X: 6172200, Y: 1825625, CX: 5181600, CY: 4351338}
	ctrTitleRect = Rect{X: 1524000, Y: 1122363, CX: 9144000, CY: 2387600}
	subTitleRect = Rect{X: 1524000, Y: 3602038, CX: 9144000, CY: 1655762}
)

// DefaultLayouts is the layout set of a freshly generated lesson template.
func DefaultLayouts() []LayoutDef {
	return []LayoutDef{
		{Name: "Title Slide", Placeholders: []PlaceholderDef{
			{Type: "ctrTitle", Index: 0, Name: "Title 1", Bounds: ctrTitleRect},
			{Type: "subTitle", Index: 1, Name: "Subtitle 2", Bounds: subTitleRect},
		}},
		{Name: "Title and Content", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
			{Type: "obj", Index: 1, Name: "Content Placeholder 2", Bounds: bodyRect},
		}},
		{Name: "Two Content", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
			{Type: "obj", Index: 1, Name: "Content Placeholder 2", Bounds: leftRect},
			{Type: "obj", Index: 2, Name: "Content Placeholder 3", Bounds: rightRect},
		}},
		{Name: "Picture with Caption", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
			{Type: "pic", Index: 1, Name: "Picture Placeholder 2", Bounds: leftRect},
			{Type: "body", Index: 2, Name: "Text Placeholder 3", Bounds: rightRect},
		}},
		{Name: "Title and Table", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
			{Type: "tbl", Index: 1, Name: "Table Placeholder 2", Bounds: bodyRect},
		}},
		{Name: "Title and Chart", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
			{Type: "chart", Index: 1, Name: "Chart Placeholder 2", Bounds: bodyRect},
		}},
		{Name: "Title Only", Placeholders: []PlaceholderDef{
			{Type: "title", Index: 0, Name: "Title 1", Bounds: titleRect},
		}},
	}
}

// NewBlankTemplate builds a minimal template with one master and the given
// layouts. Placeholders with a zero rectangle inherit their position from the
// master.
func NewBlankTemplate(layouts []LayoutDef) ([]byte, error) {
	if len(layouts) == 0 {
		return nil, fmt.Errorf("at least one layout is required")
	}

	type part struct {
		name    string
		content string
	}
	var parts []part
	add := func(name, content string) {
		parts = append(parts, part{name, content})
	}

	var types strings.Builder
	types.WriteString(xmlHeader)
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	types.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	for i := range layouts {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slideLayouts/slideLayout%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`, i+1)
	}
	types.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	types.WriteString(`<Override PartName="/ppt/presProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"/>`)
	types.WriteString(`<Override PartName="/ppt/viewProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"/>`)
	types.WriteString(`<Override PartName="/ppt/tableStyles.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"/>`)
	types.WriteString(`</Types>`)
	add(contentTypesPart, types.String())

	add("_rels/.rels", relsDoc(Relationship{ID: "rId1", Type: relTypeOfficeDocument, Target: "ppt/presentation.xml"}))

	add("ppt/presentation.xml", fmt.Sprintf(`%s<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" saveSubsetFonts="1">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
		`<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="%d" cy="%d"/></p:presentation>`,
		xmlHeader, nsA, nsR, nsP, SlideWidth, SlideHeight, SlideHeight, SlideWidth))
	add("ppt/_rels/presentation.xml.rels", relsDoc(
		Relationship{ID: "rId1", Type: relTypeSlideMaster, Target: "slideMasters/slideMaster1.xml"},
		Relationship{ID: "rId2", Type: nsR + "/theme", Target: "theme/theme1.xml"},
		Relationship{ID: "rId3", Type: nsR + "/presProps", Target: "presProps.xml"},
		Relationship{ID: "rId4", Type: nsR + "/viewProps", Target: "viewProps.xml"},
		Relationship{ID: "rId5", Type: nsR + "/tableStyles", Target: "tableStyles.xml"},
	))
	add("ppt/presProps.xml", fmt.Sprintf(`%s<p:presentationPr xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"/>`, xmlHeader, nsA, nsR, nsP))
	add("ppt/viewProps.xml", fmt.Sprintf(`%s<p:viewPr xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"/>`, xmlHeader, nsA, nsR, nsP))
	add("ppt/tableStyles.xml", fmt.Sprintf(`%s<a:tblStyleLst xmlns:a="%s" def="%s"/>`, xmlHeader, nsA, mediumStyle2Accent1))
	add("ppt/theme/theme1.xml", themeXML)

	// master
	var master strings.Builder
	master.WriteString(xmlHeader)
	fmt.Fprintf(&master, `<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>`, nsA, nsR, nsP)
	master.WriteString(`<p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>`)
	writeTreeStart(&master)
	writeDefShape(&master, 2, PlaceholderDef{Type: "title", Name: "Title Placeholder 1", Bounds: titleRect}, true)
	writeDefShape(&master, 3, PlaceholderDef{Type: "body", Index: 1, Name: "Text Placeholder 2", Bounds: bodyRect}, true)
	master.WriteString(`</p:spTree></p:cSld>`)
	master.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	master.WriteString(`<p:sldLayoutIdLst>`)
	masterRels := make([]Relationship, 0, len(layouts)+1)
	for i := range layouts {
		rid := fmt.Sprintf("rId%d", i+1)
		fmt.Fprintf(&master, `<p:sldLayoutId id="%d" r:id="%s"/>`, 2147483649+i, rid)
		masterRels = append(masterRels, Relationship{ID: rid, Type: relTypeSlideLayout, Target: fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i+1)})
	}
	master.WriteString(`</p:sldLayoutIdLst>`)
	master.WriteString(`<p:txStyles><p:titleStyle><a:lvl1pPr algn="l"><a:defRPr sz="4400" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>`)
	master.WriteString(`<p:bodyStyle><a:lvl1pPr marL="228600" indent="-228600"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/><a:defRPr sz="2800" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>`)
	master.WriteString(`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill></a:defRPr></a:lvl1pPr></p:otherStyle></p:txStyles></p:sldMaster>`)
	add("ppt/slideMasters/slideMaster1.xml", master.String())
	masterRels = append(masterRels, Relationship{ID: fmt.Sprintf("rId%d", len(layouts)+1), Type: nsR + "/theme", Target: "../theme/theme1.xml"})
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", relsDoc(masterRels...))

	for i, l := range layouts {
		var b strings.Builder
		b.WriteString(xmlHeader)
		fmt.Fprintf(&b, `<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" preserve="1"><p:cSld name="%s">`, nsA, nsR, nsP, escape(l.Name))
		writeTreeStart(&b)
		for j, ph := range l.Placeholders {
			writeDefShape(&b, j+2, ph, false)
		}
		b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
		name := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		add(name, b.String())
		add(relsPartFor(name), relsDoc(Relationship{ID: "rId1", Type: relTypeSlideMaster, Target: "../slideMasters/slideMaster1.xml"}))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func relsDoc(rels ...Relationship) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsPkg)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.ID, r.Type, r.Target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func writeTreeStart(b *strings.Builder) {
	b.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
}

func writeDefShape(b *strings.Builder, id int, ph PlaceholderDef, onMaster bool) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	fmt.Fprintf(b, `<p:cNvPr id="%d" name="%s"/>`, id, escape(ph.Name))
	b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph`)
	if ph.Type != "" && ph.Type != "obj" {
		fmt.Fprintf(b, ` type="%s"`, ph.Type)
	}
	if ph.Index != 0 {
		fmt.Fprintf(b, ` idx="%d"`, ph.Index)
	}
	b.WriteString(`/></p:nvPr></p:nvSpPr><p:spPr>`)
	if ph.Bounds != (Rect{}) {
		writeXfrm(b, "a:xfrm", ph.Bounds)
	}
	if onMaster {
		b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`)
	}
	b.WriteString(`</p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p>`)
	if ph.Type == "ctrTitle" {
		b.WriteString(`<a:pPr algn="ctr"/>`)
	}
	b.WriteString(`<a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>`)
}

const themeXML = xmlHeader + `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Lesson">` +
	`<a:themeElements><a:clrScheme name="Lesson">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F3A5F"/></a:dk2><a:lt2><a:srgbClr val="EEF2F7"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="2E75B6"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="70AD47"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="A5A5A5"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme><a:fontScheme name="Lesson">` +
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme><a:fmtScheme name="Lesson"><a:fillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:fillStyleLst><a:lnStyleLst>` +
	`<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
	`</a:lnStyleLst><a:effectStyleLst>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle>` +
	`</a:effectStyleLst><a:bgFillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:bgFillStyleLst></a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
