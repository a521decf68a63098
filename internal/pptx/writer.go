package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	relNS                = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	relTypeOfficeDoc     = relNS + "/officeDocument"
	relTypeExtendedProps = relNS + "/extended-properties"
	relTypeCoreProps     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeSlide         = relNS + "/slide"
	relTypeSlideLayout   = relNS + "/slideLayout"
	relTypeSlideMaster   = relNS + "/slideMaster"
	relTypeTheme         = relNS + "/theme"
	relTypeImage         = relNS + "/image"
	relTypePresProps     = relNS + "/presProps"
	relTypeViewProps     = relNS + "/viewProps"
	relTypeTableStyles   = relNS + "/tableStyles"

	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ctXML           = "application/xml"
	ctPresentation  = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide         = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideLayout   = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctSlideMaster   = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctPresProps     = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
	ctViewProps     = "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"
	ctTableStyles   = "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"
	ctCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtendedProps = "application/vnd.openxmlformats-officedocument.extended-properties+xml"

	// 幻灯片 id 从 256 开始
	firstSlideID = 256
	bulletIndent = Length(285750)
)

var templatePartContentTypes = map[string]string{
	"ppt/slideMasters/": ctSlideMaster,
	"ppt/slideLayouts/": ctSlideLayout,
	"ppt/theme/":        ctTheme,
}

type relationship struct {
	ID     string
	Type   string
	Target string
}

type packagePart struct {
	name string
	data []byte
}

// ooxmlPackage 待写出的 OPC 包
type ooxmlPackage struct {
	parts     []packagePart
	defaults  map[string]string
	overrides map[string]string
}

func newPackage() *ooxmlPackage {
	return &ooxmlPackage{
		defaults: map[string]string{
			"rels": ctRelationships,
			"xml":  ctXML,
		},
		overrides: make(map[string]string),
	}
}

func (pkg *ooxmlPackage) add(name string, data []byte, contentType string) {
	pkg.parts = append(pkg.parts, packagePart{name: name, data: data})
	if contentType != "" {
		pkg.overrides[name] = contentType
	}
}

func (pkg *ooxmlPackage) addMedia(name string, data []byte, contentType string) {
	pkg.parts = append(pkg.parts, packagePart{name: name, data: data})
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if _, ok := pkg.defaults[ext]; !ok && ext != "" {
		pkg.defaults[ext] = contentType
	}
}

func (pkg *ooxmlPackage) render(name, tmpl string, data interface{}, contentType string) error {
	var buf bytes.Buffer
	if err := xmlTemplates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	pkg.add(name, buf.Bytes(), contentType)
	return nil
}

type contentTypeEntry struct {
	Key         string
	ContentType string
}

func (pkg *ooxmlPackage) contentTypes() ([]byte, error) {
	view := struct {
		Defaults  []contentTypeEntry
		Overrides []contentTypeEntry
	}{
		Defaults:  sortedEntries(pkg.defaults),
		Overrides: sortedEntries(pkg.overrides),
	}
	var buf bytes.Buffer
	if err := xmlTemplates.ExecuteTemplate(&buf, "contentTypes", view); err != nil {
		return nil, fmt.Errorf("failed to render content types: %w", err)
	}
	return buf.Bytes(), nil
}

func (pkg *ooxmlPackage) writeZip(w io.Writer) error {
	ct, err := pkg.contentTypes()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	parts := append([]packagePart{{name: "[Content_Types].xml", data: ct}}, pkg.parts...)
	for _, part := range parts {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish presentation package: %w", err)
	}
	return nil
}

type masterView struct {
	ID    uint32
	RelID string
}

type slideRefView struct {
	ID    int
	RelID string
}

type slideView struct {
	Shapes []shapeView
}

type shapeView struct {
	Kind string
	ID   int
	Name string

	X, Y, W, H int64

	PhType string
	PhIdx  int

	WordWrap   bool
	Paragraphs []paragraphView

	RelID string
	Descr string
}

type paragraphView struct {
	HasPPr bool
	Level  int
	Align  string
	Bullet bool
	MarL   int64
	Indent int64

	Text string
	Size int64
	Bold string
}

func (p *Presentation) buildPackage() (*ooxmlPackage, error) {
	if p.tpl == nil {
		return nil, errors.New("presentation has no template")
	}
	pkg := newPackage()

	var presRels []relationship
	nextRel := func() string { return fmt.Sprintf("rId%d", len(presRels)+1) }

	masters := make([]masterView, 0, len(p.tpl.masters))
	for i, name := range p.tpl.masters {
		id := nextRel()
		presRels = append(presRels, relationship{ID: id, Type: relTypeSlideMaster, Target: strings.TrimPrefix(name, "ppt/")})
		masters = append(masters, masterView{ID: p.tpl.masterIDs[i], RelID: id})
	}
	if len(p.tpl.themes) > 0 {
		presRels = append(presRels, relationship{ID: nextRel(), Type: relTypeTheme, Target: strings.TrimPrefix(p.tpl.themes[0], "ppt/")})
	}
	presRels = append(presRels, relationship{ID: nextRel(), Type: relTypePresProps, Target: "presProps.xml"})
	presRels = append(presRels, relationship{ID: nextRel(), Type: relTypeViewProps, Target: "viewProps.xml"})
	presRels = append(presRels, relationship{ID: nextRel(), Type: relTypeTableStyles, Target: "tableStyles.xml"})

	mediaNames := newMediaNamer(p.tpl.files)
	slideRefs := make([]slideRefView, 0, len(p.slides))

	for i, s := range p.slides {
		if s.layout == nil || s.layout.tpl != p.tpl {
			return nil, fmt.Errorf("slide %d uses a layout from another template", i+1)
		}
		num := i + 1
		rels := []relationship{{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/" + path.Base(s.layout.partName)}}

		view := slideView{Shapes: make([]shapeView, 0, len(s.shapes))}
		for _, shape := range s.shapes {
			switch sh := shape.(type) {
			case *PlaceholderShape:
				view.Shapes = append(view.Shapes, shapeView{
					Kind:       "ph",
					ID:         sh.id,
					Name:       sh.name,
					PhType:     string(sh.Type),
					PhIdx:      sh.Idx,
					Paragraphs: paragraphViews(sh.frame),
				})
			case *TextBox:
				view.Shapes = append(view.Shapes, shapeView{
					Kind:       "txBox",
					ID:         sh.id,
					Name:       sh.name,
					X:          int64(sh.Left),
					Y:          int64(sh.Top),
					W:          int64(sh.Width),
					H:          int64(sh.Height),
					WordWrap:   sh.frame.WordWrap,
					Paragraphs: paragraphViews(sh.frame),
				})
			case *Picture:
				mediaName := mediaNames.next(sh.ext)
				relID := fmt.Sprintf("rId%d", len(rels)+1)
				rels = append(rels, relationship{ID: relID, Type: relTypeImage, Target: "../media/" + path.Base(mediaName)})
				pkg.addMedia(mediaName, sh.data, sh.contentType)
				view.Shapes = append(view.Shapes, shapeView{
					Kind:  "pic",
					ID:    sh.id,
					Name:  sh.name,
					X:     int64(sh.Left),
					Y:     int64(sh.Top),
					W:     int64(sh.Width),
					H:     int64(sh.Height),
					RelID: relID,
					Descr: sh.Description,
				})
			default:
				return nil, fmt.Errorf("slide %d: unsupported shape %T", num, shape)
			}
		}

		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", num)
		if err := pkg.render(slideName, "slide", view, ctSlide); err != nil {
			return nil, err
		}
		if err := pkg.render(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num), "rels", rels, ""); err != nil {
			return nil, err
		}

		relID := nextRel()
		presRels = append(presRels, relationship{ID: relID, Type: relTypeSlide, Target: fmt.Sprintf("slides/slide%d.xml", num)})
		slideRefs = append(slideRefs, slideRefView{ID: firstSlideID + i, RelID: relID})
	}

	for _, name := range sortedKeys(p.tpl.files) {
		data := p.tpl.files[name]
		if strings.HasPrefix(name, "ppt/media/") {
			pkg.addMedia(name, data, baseMime(mimetype.Detect(data).String()))
			continue
		}
		pkg.add(name, data, templateContentType(name))
	}

	presentation := struct {
		Masters []masterView
		Slides  []slideRefView
		Width   int64
		Height  int64
	}{masters, slideRefs, int64(p.width), int64(p.height)}

	created := p.Core.Created
	if created.IsZero() {
		created = time.Now()
	}
	core := struct {
		Title   string
		Author  string
		Created string
	}{p.Core.Title, p.Core.Author, created.UTC().Format("2006-01-02T15:04:05Z")}

	rootRels := []relationship{
		{ID: "rId1", Type: relTypeOfficeDoc, Target: "ppt/presentation.xml"},
		{ID: "rId2", Type: relTypeCoreProps, Target: "docProps/core.xml"},
		{ID: "rId3", Type: relTypeExtendedProps, Target: "docProps/app.xml"},
	}

	steps := []struct {
		name, tmpl  string
		data        interface{}
		contentType string
	}{
		{"_rels/.rels", "rels", rootRels, ""},
		{"docProps/core.xml", "core", core, ctCoreProps},
		{"docProps/app.xml", "app", len(p.slides), ctExtendedProps},
		{"ppt/presentation.xml", "presentation", presentation, ctPresentation},
		{"ppt/_rels/presentation.xml.rels", "rels", presRels, ""},
		{"ppt/presProps.xml", "presProps", nil, ctPresProps},
		{"ppt/viewProps.xml", "viewProps", nil, ctViewProps},
		{"ppt/tableStyles.xml", "tableStyles", nil, ctTableStyles},
	}
	for _, st := range steps {
		if err := pkg.render(st.name, st.tmpl, st.data, st.contentType); err != nil {
			return nil, err
		}
	}

	return pkg, nil
}

func paragraphViews(tf *TextFrame) []paragraphView {
	views := make([]paragraphView, 0, len(tf.paragraphs))
	for _, p := range tf.paragraphs {
		v := paragraphView{
			HasPPr: p.Bullet || p.Level > 0 || p.Alignment != "",
			Level:  p.Level,
			Align:  string(p.Alignment),
			Bullet: p.Bullet,
			Text:   p.Text,
		}
		if p.Bullet {
			v.MarL = int64(bulletIndent) * int64(p.Level+1)
			v.Indent = -int64(bulletIndent)
		}
		if p.Font.Size > 0 {
			v.Size = p.Font.Size.centipoints()
		}
		if bold, ok := p.Font.Bold(); ok {
			v.Bold = "0"
			if bold {
				v.Bold = "1"
			}
		}
		views = append(views, v)
	}
	return views
}

func templateContentType(name string) string {
	if !strings.HasSuffix(name, ".xml") {
		return ""
	}
	return templatePartContentTypes[path.Dir(name)+"/"]
}

// mediaNamer 为新图片分配不与模板冲突的 ppt/media 文件名
type mediaNamer struct {
	taken map[string]bool
	n     int
}

func newMediaNamer(files map[string][]byte) *mediaNamer {
	taken := make(map[string]bool, len(files))
	for name := range files {
		taken[name] = true
	}
	return &mediaNamer{taken: taken}
}

func (m *mediaNamer) next(ext string) string {
	for {
		m.n++
		name := fmt.Sprintf("ppt/media/image%d.%s", m.n, ext)
		if !m.taken[name] {
			m.taken[name] = true
			return name
		}
	}
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedEntries(m map[string]string) []contentTypeEntry {
	entries := make([]contentTypeEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, contentTypeEntry{Key: k, ContentType: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func baseMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
