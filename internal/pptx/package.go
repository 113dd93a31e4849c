package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsC   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	nsPkg = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeOfficeDocument = nsR + "/officeDocument"
	relTypeSlide          = nsR + "/slide"
	relTypeSlideLayout    = nsR + "/slideLayout"
	relTypeSlideMaster    = nsR + "/slideMaster"
	relTypeImage          = nsR + "/image"
	relTypeChart          = nsR + "/chart"

	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctChart = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"

	contentTypesPart = "[Content_Types].xml"
)

var (
	// ErrTemplateNotFound is returned when the template file does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrLayoutOutOfRange is returned by AddSlide for an unknown layout id.
	ErrLayoutOutOfRange = errors.New("layout id out of range")
)

// Presentation is an in-memory PPTX package. Parts of the source file are kept
// verbatim; slides added through AddSlide are rendered when the package is written.
type Presentation struct {
	parts    map[string][]byte
	order    []string
	mainPart string

	layouts   []*Layout
	slideSize Rect

	existingSlides int
	maxSlideID     int
	slides         []*Slide
	newParts       map[string][]byte
	newOrder       []string
	overrides      map[string]string

	opts options
}

type options struct {
	genericCapable bool
}

// Option tunes how placeholders are classified.
type Option func(*options)

// WithGenericPlaceholders controls whether obj/body placeholders count as able
// to hold images, tables and charts.
func WithGenericPlaceholders(capable bool) Option {
	return func(o *options) { o.genericCapable = capable }
}

// Open reads a template or deck from disk.
func Open(pptxPath string, opts ...Option) (*Presentation, error) {
	data, err := os.ReadFile(pptxPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, pptxPath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", pptxPath, err)
	}
	return OpenBytes(data, opts...)
}

// OpenBytes reads a PPTX package held in memory.
func OpenBytes(data []byte, opts ...Option) (*Presentation, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a pptx package: %w", err)
	}

	p := &Presentation{
		parts:     make(map[string][]byte, len(r.File)),
		newParts:  make(map[string][]byte),
		overrides: make(map[string]string),
		opts:      options{genericCapable: true},
	}
	for _, o := range opts {
		o(&p.opts)
	}

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
		}
		p.parts[f.Name] = content
		p.order = append(p.order, f.Name)
	}

	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Inspect opens a template and returns its layouts.
func Inspect(pptxPath string, opts ...Option) ([]Layout, error) {
	p, err := Open(pptxPath, opts...)
	if err != nil {
		return nil, err
	}
	return p.Layouts(), nil
}

func (p *Presentation) load() error {
	p.mainPart = "ppt/presentation.xml"
	if rels, err := p.readRels("_rels/.rels"); err == nil {
		for _, rel := range rels {
			if rel.Type == relTypeOfficeDocument {
				p.mainPart = resolveTarget("", rel.Target)
				break
			}
		}
	}

	mainXML, ok := p.parts[p.mainPart]
	if !ok {
		return fmt.Errorf("presentation part %s missing", p.mainPart)
	}

	info, err := parsePresentationXML(mainXML)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", p.mainPart, err)
	}
	p.slideSize = info.size
	p.existingSlides = len(info.slideIDs)
	p.maxSlideID = 255
	for _, id := range info.slideIDs {
		if id > p.maxSlideID {
			p.maxSlideID = id
		}
	}

	if len(info.masterRIDs) == 0 {
		return fmt.Errorf("presentation has no slide master")
	}

	mainRels, err := p.readRels(relsPartFor(p.mainPart))
	if err != nil {
		return err
	}
	masterPart := ""
	for _, rel := range mainRels {
		if rel.ID == info.masterRIDs[0] {
			masterPart = resolveTarget(path.Dir(p.mainPart), rel.Target)
		}
	}
	if masterPart == "" {
		return fmt.Errorf("slide master relationship %s not found", info.masterRIDs[0])
	}

	return p.loadLayouts(masterPart)
}

func (p *Presentation) loadLayouts(masterPart string) error {
	masterXML, ok := p.parts[masterPart]
	if !ok {
		return fmt.Errorf("slide master part %s missing", masterPart)
	}
	master, err := parseShapeTree(masterXML)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", masterPart, err)
	}
	masterBounds := make(map[string]Rect)
	for _, s := range master.shapes {
		if s.isPlaceholder && s.hasXfrm {
			fam := placeholderFamily(s.phType)
			if _, seen := masterBounds[fam]; !seen {
				masterBounds[fam] = s.xfrm
			}
		}
	}

	masterRels, err := p.readRels(relsPartFor(masterPart))
	if err != nil {
		return err
	}
	relTargets := make(map[string]string, len(masterRels))
	for _, rel := range masterRels {
		relTargets[rel.ID] = resolveTarget(path.Dir(masterPart), rel.Target)
	}

	for i, rid := range master.layoutRIDs {
		layoutPart, ok := relTargets[rid]
		if !ok {
			return fmt.Errorf("layout relationship %s not found in %s", rid, masterPart)
		}
		layoutXML, ok := p.parts[layoutPart]
		if !ok {
			return fmt.Errorf("layout part %s missing", layoutPart)
		}
		tree, err := parseShapeTree(layoutXML)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", layoutPart, err)
		}
		p.layouts = append(p.layouts, newLayout(i, layoutPart, tree, masterBounds, p.defaultBody(), p.opts))
	}
	return nil
}

// defaultBody is the rectangle used when neither layout nor master place a shape.
func (p *Presentation) defaultBody() Rect {
	cx, cy := p.slideSize.CX, p.slideSize.CY
	if cx <= 0 || cy <= 0 {
		cx, cy = 9144000, 6858000
	}
	return Rect{X: cx / 20, Y: cy * 7 / 30, CX: cx * 9 / 10, CY: cy * 2 / 3}
}

// Layouts returns copies of the template layouts in master order.
func (p *Presentation) Layouts() []Layout {
	out := make([]Layout, len(p.layouts))
	for i, l := range p.layouts {
		out[i] = *l
		out[i].Placeholders = append([]Placeholder(nil), l.Placeholders...)
	}
	return out
}

// SlideCount is the number of slides after any pending additions.
func (p *Presentation) SlideCount() int {
	return p.existingSlides + len(p.slides)
}

// Slides returns the slides added in this session.
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

// Save writes the package, including all added slides, to pptxPath.
func (p *Presentation) Save(pptxPath string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(pptxPath, data, 0644)
}

// Bytes renders the package. It can be called repeatedly.
func (p *Presentation) Bytes() ([]byte, error) {
	out := make(map[string][]byte, len(p.parts)+len(p.newParts)+2*len(p.slides))
	for name, content := range p.parts {
		out[name] = content
	}
	order := append([]string(nil), p.order...)
	add := func(name string, content []byte) {
		if _, exists := out[name]; !exists {
			order = append(order, name)
		}
		out[name] = content
	}

	for _, name := range p.newOrder {
		add(name, p.newParts[name])
	}

	if len(p.slides) > 0 {
		mainRelsPart := relsPartFor(p.mainPart)
		mainRels, err := p.readRels(mainRelsPart)
		if err != nil {
			return nil, err
		}
		used := make(map[string]bool, len(mainRels))
		for _, rel := range mainRels {
			used[rel.ID] = true
		}

		var relEntries, idEntries strings.Builder
		rPrefix := namespacePrefix(p.parts[p.mainPart], nsR, "r")
		pPrefix := elementPrefix(p.parts[p.mainPart], "presentation")
		nextID := p.maxSlideID
		for _, s := range p.slides {
			rid := nextRelID(used)
			nextID++
			fmt.Fprintf(&relEntries, `<Relationship Id="%s" Type="%s" Target="%s"/>`,
				rid, relTypeSlide, relativeTarget(p.mainPart, s.part))
			fmt.Fprintf(&idEntries, `<%ssldId id="%d" %s:id="%s"/>`, pPrefix, nextID, rPrefix, rid)

			add(s.part, s.xml())
			add(relsPartFor(s.part), s.relsXML())
		}

		patchedRels, err := insertBefore(p.parts[mainRelsPart], "</Relationships>", relEntries.String())
		if err != nil {
			return nil, fmt.Errorf("failed to patch %s: %w", mainRelsPart, err)
		}
		add(mainRelsPart, patchedRels)

		patchedMain, err := insertSlideIDs(p.parts[p.mainPart], pPrefix, idEntries.String())
		if err != nil {
			return nil, fmt.Errorf("failed to patch %s: %w", p.mainPart, err)
		}
		add(p.mainPart, patchedMain)
	}

	types, err := p.patchContentTypes(out)
	if err != nil {
		return nil, err
	}
	out[contentTypesPart] = types

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", name, err)
		}
		if _, err := w.Write(out[name]); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Presentation) patchContentTypes(out map[string][]byte) ([]byte, error) {
	types, ok := p.parts[contentTypesPart]
	if !ok {
		return nil, fmt.Errorf("%s missing", contentTypesPart)
	}

	var entries strings.Builder
	hasDefault := func(ext string) bool {
		re := regexp.MustCompile(`(?i)<Default[^>]+Extension="` + regexp.QuoteMeta(ext) + `"`)
		return re.Match(types)
	}
	needPNG := false
	for name := range out {
		if strings.HasSuffix(name, ".png") && strings.HasPrefix(name, "ppt/media/") {
			needPNG = true
		}
	}
	if needPNG && !hasDefault("png") {
		entries.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	}

	for _, s := range p.slides {
		fmt.Fprintf(&entries, `<Override PartName="/%s" ContentType="%s"/>`, s.part, ctSlide)
	}
	names := make([]string, 0, len(p.overrides))
	for name := range p.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&entries, `<Override PartName="/%s" ContentType="%s"/>`, name, p.overrides[name])
	}

	if entries.Len() == 0 {
		return types, nil
	}
	return insertBefore(types, "</Types>", entries.String())
}

// addPart registers a new part, returning the first free name for the pattern
// prefix+N+ext.
func (p *Presentation) addPart(prefix, ext string, content []byte, contentType string) string {
	name := nextPartName(prefix, ext, p.parts, p.newParts)
	p.newParts[name] = content
	p.newOrder = append(p.newOrder, name)
	if contentType != "" {
		p.overrides[name] = contentType
	}
	return name
}

func nextPartName(prefix, ext string, sets ...map[string][]byte) string {
	max := 0
	for _, set := range sets {
		for name := range set {
			if n, ok := partNumber(name, prefix); ok && n > max {
				max = n
			}
		}
	}
	return fmt.Sprintf("%s%d%s", prefix, max+1, ext)
}

// partNumber extracts N from names like ppt/slides/slide12.xml.
func partNumber(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(name, prefix)
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 || strings.Contains(rest[end:], "/") {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	return n, err == nil
}

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

type relationshipsXML struct {
	Rels []Relationship `xml:"Relationship"`
}

func (p *Presentation) readRels(relsPart string) ([]Relationship, error) {
	data, ok := p.parts[relsPart]
	if !ok {
		return nil, fmt.Errorf("relationships part %s missing", relsPart)
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relsPart, err)
	}
	return rels.Rels, nil
}

func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget turns a relationship target into a package part name.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join("/", baseDir, target)), "/")
}

// relativeTarget is the inverse of resolveTarget for a source part.
func relativeTarget(fromPart, toPart string) string {
	from := strings.Split(path.Dir(fromPart), "/")
	if path.Dir(fromPart) == "." {
		from = nil
	}
	to := strings.Split(toPart, "/")
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var parts []string
	for j := i; j < len(from); j++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

func nextRelID(used map[string]bool) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("rId%d", n)
		if !used[id] {
			used[id] = true
			return id
		}
	}
}

func insertBefore(data []byte, marker, insert string) ([]byte, error) {
	idx := bytes.LastIndex(data, []byte(marker))
	if idx < 0 {
		return nil, fmt.Errorf("marker %s not found", marker)
	}
	out := make([]byte, 0, len(data)+len(insert))
	out = append(out, data[:idx]...)
	out = append(out, insert...)
	out = append(out, data[idx:]...)
	return out, nil
}

// insertSlideIDs adds sldId entries, creating sldIdLst in schema position when
// the template has none.
func insertSlideIDs(data []byte, prefix, entries string) ([]byte, error) {
	list := prefix + "sldIdLst"
	if empty := []byte("<" + list + "/>"); bytes.Contains(data, empty) {
		return bytes.Replace(data, empty, []byte("<"+list+">"+entries+"</"+list+">"), 1), nil
	}
	if bytes.Contains(data, []byte("</"+list+">")) {
		return insertBefore(data, "</"+list+">", entries)
	}
	for _, after := range []string{"handoutMasterIdLst", "notesMasterIdLst", "sldMasterIdLst"} {
		end := []byte("</" + prefix + after + ">")
		if idx := bytes.Index(data, end); idx >= 0 {
			pos := idx + len(end)
			block := "<" + list + ">" + entries + "</" + list + ">"
			out := make([]byte, 0, len(data)+len(block))
			out = append(out, data[:pos]...)
			out = append(out, block...)
			out = append(out, data[pos:]...)
			return out, nil
		}
	}
	return nil, fmt.Errorf("no position for %s", list)
}

// elementPrefix returns "p:" when the root element is written as <p:presentation>.
func elementPrefix(data []byte, local string) string {
	re := regexp.MustCompile(`<([A-Za-z_][\w.-]*):` + local + `[\s>]`)
	if m := re.FindSubmatch(data); m != nil {
		return string(m[1]) + ":"
	}
	return ""
}

// namespacePrefix finds the prefix bound to ns, or fallback.
func namespacePrefix(data []byte, ns, fallback string) string {
	re := regexp.MustCompile(`xmlns:([A-Za-z_][\w.-]*)="` + regexp.QuoteMeta(ns) + `"`)
	if m := re.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return fallback
}

type presentationInfo struct {
	masterRIDs []string
	slideIDs   []int
	size       Rect
}

func parsePresentationXML(data []byte) (*presentationInfo, error) {
	info := &presentationInfo{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch el.Name.Local {
		case "sldMasterId":
			info.masterRIDs = append(info.masterRIDs, attrValue(el, nsR, "id"))
		case "sldId":
			id, _ := strconv.Atoi(attrValue(el, "", "id"))
			info.slideIDs = append(info.slideIDs, id)
		case "sldSz":
			info.size.CX = attrInt(el, "cx")
			info.size.CY = attrInt(el, "cy")
		}
	}
	return info, nil
}

func attrValue(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value
		}
	}
	return ""
}

func attrInt(el xml.StartElement, local string) int64 {
	n, _ := strconv.ParseInt(attrValue(el, "", local), 10, 64)
	return n
}
