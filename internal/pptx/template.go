package pptx

import (
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed all:template
var defaultTemplateFS embed.FS

var (
	// ErrLayoutNotFound 模板中不存在指定名称的版式
	ErrLayoutNotFound = errors.New("slide layout not found")
	// ErrPlaceholderNotFound 幻灯片上不存在指定类型的占位符
	ErrPlaceholderNotFound = errors.New("placeholder not found")
)

// PlaceholderType 占位符类型，对应 <p:ph type="...">
type PlaceholderType string

const (
	PlaceholderTitle       PlaceholderType = "title"
	PlaceholderCenterTitle PlaceholderType = "ctrTitle"
	PlaceholderSubtitle    PlaceholderType = "subTitle"
	PlaceholderBody        PlaceholderType = "body"
	PlaceholderObject      PlaceholderType = "obj"
	PlaceholderDate        PlaceholderType = "dt"
	PlaceholderFooter      PlaceholderType = "ftr"
	PlaceholderSlideNumber PlaceholderType = "sldNum"
)

// matches title 与 ctrTitle 视为同一类
func (t PlaceholderType) matches(other PlaceholderType) bool {
	if t.isTitle() && other.isTitle() {
		return true
	}
	return t == other
}

func (t PlaceholderType) isTitle() bool {
	return t == PlaceholderTitle || t == PlaceholderCenterTitle
}

// LayoutPlaceholder 版式中定义的占位符
type LayoutPlaceholder struct {
	Type PlaceholderType
	Idx  int
	Name string
}

// Layout 幻灯片版式
type Layout struct {
	Name         string
	Placeholders []LayoutPlaceholder

	partName string
	tpl      *Template
}

// Placeholder 按类型查找版式占位符
func (l *Layout) Placeholder(t PlaceholderType) (LayoutPlaceholder, bool) {
	for _, ph := range l.Placeholders {
		if ph.Type.matches(t) {
			return ph, true
		}
	}
	return LayoutPlaceholder{}, false
}

// Template 演示文稿模板：母版、主题、版式及其引用的媒体
type Template struct {
	files     map[string][]byte
	layouts   []*Layout
	masters   []string
	masterIDs []uint32
	themes    []string
}

// 只保留母版、版式、主题与媒体，其余部件在保存时重新生成
var templatePartPrefixes = []string{
	"ppt/slideMasters/",
	"ppt/slideLayouts/",
	"ppt/theme/",
	"ppt/media/",
}

// DefaultTemplate 内置 16:9 模板，包含 Title Slide / Title and Content / Title Only / Blank 四个版式
func DefaultTemplate() (*Template, error) {
	sub, err := fs.Sub(defaultTemplateFS, "template")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded template: %w", err)
	}
	return LoadTemplate(sub)
}

// LoadTemplate 从文件系统加载模板，fsys 的根目录对应解压后的 pptx 包根目录
func LoadTemplate(fsys fs.FS) (*Template, error) {
	t := &Template{files: make(map[string][]byte)}

	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTemplatePart(name) {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		t.files[name] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	t.masters = t.partsMatching("ppt/slideMasters/")
	if len(t.masters) == 0 {
		return nil, errors.New("template has no slide master")
	}
	t.themes = t.partsMatching("ppt/theme/")

	if err := t.assignMasterIDs(); err != nil {
		return nil, err
	}

	for _, name := range t.partsMatching("ppt/slideLayouts/") {
		layout, err := parseLayout(name, t.files[name])
		if err != nil {
			return nil, err
		}
		layout.tpl = t
		t.layouts = append(t.layouts, layout)
	}
	if len(t.layouts) == 0 {
		return nil, errors.New("template has no slide layouts")
	}

	return t, nil
}

// Layouts 按文件顺序返回所有版式
func (t *Template) Layouts() []*Layout {
	return t.layouts
}

// LayoutNames 返回所有版式名称
func (t *Template) LayoutNames() []string {
	names := make([]string, 0, len(t.layouts))
	for _, l := range t.layouts {
		names = append(names, l.Name)
	}
	return names
}

// Layout 按名称查找版式
func (t *Template) Layout(name string) (*Layout, error) {
	for _, l := range t.layouts {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrLayoutNotFound, name, strings.Join(t.LayoutNames(), ", "))
}

func isTemplatePart(name string) bool {
	for _, prefix := range templatePartPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// partsMatching 返回目录下（不含 _rels）的 xml 部件，按文件名中的序号排序
func (t *Template) partsMatching(dir string) []string {
	var names []string
	for name := range t.files {
		if path.Dir(name)+"/" == dir && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ni, nj := partNumber(names[i]), partNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})
	return names
}

var partNumberRe = regexp.MustCompile(`(\d+)\.xml$`)

func partNumber(name string) int {
	m := partNumberRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

type layoutXML struct {
	CSld struct {
		Name   string `xml:"name,attr"`
		SpTree struct {
			Shapes []struct {
				NvSpPr struct {
					CNvPr struct {
						Name string `xml:"name,attr"`
					} `xml:"cNvPr"`
					NvPr struct {
						Ph *struct {
							Type string `xml:"type,attr"`
							Idx  int    `xml:"idx,attr"`
						} `xml:"ph"`
					} `xml:"nvPr"`
				} `xml:"nvSpPr"`
			} `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

func parseLayout(name string, data []byte) (*Layout, error) {
	var doc layoutXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", name, err)
	}

	layout := &Layout{Name: doc.CSld.Name, partName: name}
	if layout.Name == "" {
		layout.Name = strings.TrimSuffix(path.Base(name), ".xml")
	}
	for _, sp := range doc.CSld.SpTree.Shapes {
		ph := sp.NvSpPr.NvPr.Ph
		if ph == nil {
			continue
		}
		phType := PlaceholderType(ph.Type)
		if phType == "" {
			phType = PlaceholderObject
		}
		layout.Placeholders = append(layout.Placeholders, LayoutPlaceholder{
			Type: phType,
			Idx:  ph.Idx,
			Name: sp.NvSpPr.CNvPr.Name,
		})
	}
	return layout, nil
}

// idAttr 元素上同时有 id 与 r:id，按本地名匹配会互相覆盖，只取无命名空间的 id
type idAttr struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (a idAttr) id() (uint32, error) {
	for _, attr := range a.Attrs {
		if attr.Name.Space == "" && attr.Name.Local == "id" {
			v, err := strconv.ParseUint(attr.Value, 10, 32)
			if err != nil {
				return 0, fmt.Errorf("invalid id %q: %w", attr.Value, err)
			}
			return uint32(v), nil
		}
	}
	return 0, errors.New("missing id attribute")
}

type masterXML struct {
	LayoutIDs []idAttr `xml:"sldLayoutIdLst>sldLayoutId"`
}

// assignMasterIDs 母版 id 与版式 id 共享取值空间，从 2147483648 起取未占用的值
func (t *Template) assignMasterIDs() error {
	used := make(map[uint32]bool)
	for _, name := range t.masters {
		var doc masterXML
		if err := xml.Unmarshal(t.files[name], &doc); err != nil {
			return fmt.Errorf("failed to parse slide master %s: %w", name, err)
		}
		for _, l := range doc.LayoutIDs {
			id, err := l.id()
			if err != nil {
				return fmt.Errorf("failed to parse slide master %s: %w", name, err)
			}
			used[id] = true
		}
	}

	next := uint32(2147483648)
	for range t.masters {
		for used[next] {
			next++
		}
		t.masterIDs = append(t.masterIDs, next)
		used[next] = true
	}
	return nil
}
