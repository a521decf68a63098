package pptx

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CoreProperties 写入 docProps/core.xml 的元数据
type CoreProperties struct {
	Title   string
	Author  string
	Created time.Time
}

// Presentation 内存中的演示文稿，保存前的所有修改都只作用于内存。
// 不支持并发修改。
type Presentation struct {
	Core CoreProperties

	tpl    *Template
	width  Length
	height Length
	slides []*Slide
}

// New 基于模板创建空演示文稿，默认 16:9（10 × 5.625 英寸）
func New(tpl *Template) *Presentation {
	return &Presentation{
		tpl:    tpl,
		width:  Inches(10),
		height: Inches(5.625),
	}
}

// Template 返回演示文稿使用的模板
func (p *Presentation) Template() *Template {
	return p.tpl
}

// SetSlideSize 设置幻灯片尺寸
func (p *Presentation) SetSlideSize(width, height Length) {
	p.width = width
	p.height = height
}

// SlideSize 返回幻灯片尺寸
func (p *Presentation) SlideSize() (width, height Length) {
	return p.width, p.height
}

// Slides 按顺序返回幻灯片
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

// AddSlide 追加一张使用 layout 的幻灯片，layout 中的标题与正文占位符会复制到新幻灯片上
func (p *Presentation) AddSlide(layout *Layout) *Slide {
	s := newSlide(layout)
	p.slides = append(p.slides, s)
	return s
}

// Save 保存为 .pptx 文件
func (p *Presentation) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create presentation file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close presentation file: %w", cerr)
		}
	}()

	return p.Write(f)
}

// Write 以 OOXML zip 包格式写出
func (p *Presentation) Write(w io.Writer) error {
	pkg, err := p.buildPackage()
	if err != nil {
		return err
	}
	return pkg.writeZip(w)
}
