package deck

import (
	"fmt"

	"genai-slides/common"
	"genai-slides/internal/pptx"
)

const (
	// TitleLayoutName 标题页版式
	TitleLayoutName = "Title Slide"
	// BlankLayoutName 空白页版式
	BlankLayoutName = "Blank"

	DefaultEndTitle    = "Thank You"
	DefaultEndSubtitle = "Questions?"

	DefaultTextboxFontSize = 32
	DefaultBulletFontSize  = 18

	// 默认 16:9，单位英寸
	DefaultSlideWidth  = 10.0
	DefaultSlideHeight = 5.625
)

// Position 形状左上角位置，单位英寸
type Position struct {
	Left float64
	Top  float64
}

// Size 形状尺寸，单位英寸
type Size struct {
	Width  float64
	Height float64
}

type options struct {
	template    *pptx.Template
	width       float64
	height      float64
	titleLayout string
	blankLayout string
	title       string
	author      string
}

// Option Builder 配置项
type Option func(*options)

// WithTemplate 使用自定义模板
func WithTemplate(tpl *pptx.Template) Option {
	return func(o *options) { o.template = tpl }
}

// WithSlideSize 设置幻灯片尺寸（英寸）
func WithSlideSize(width, height float64) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithLayoutNames 自定义模板的版式名称与默认不同时使用
func WithLayoutNames(title, blank string) Option {
	return func(o *options) {
		o.titleLayout = title
		o.blankLayout = blank
	}
}

// WithProperties 设置文档标题与作者
func WithProperties(title, author string) Option {
	return func(o *options) {
		o.title = title
		o.author = author
	}
}

// Builder 按调用顺序追加幻灯片与形状，最后一次性保存。
// 版式在构造时按名称解析，缺失即失败。不支持并发使用。
type Builder struct {
	prs         *pptx.Presentation
	width       float64
	titleLayout *pptx.Layout
	blankLayout *pptx.Layout
}

// NewBuilder 创建 Builder
func NewBuilder(opts ...Option) (*Builder, error) {
	o := options{
		width:       DefaultSlideWidth,
		height:      DefaultSlideHeight,
		titleLayout: TitleLayoutName,
		blankLayout: BlankLayoutName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("invalid slide size %gx%g", o.width, o.height)
	}

	tpl := o.template
	if tpl == nil {
		var err error
		tpl, err = pptx.DefaultTemplate()
		if err != nil {
			return nil, err
		}
	}

	titleLayout, err := tpl.Layout(o.titleLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve title layout: %w", err)
	}
	for _, kind := range []pptx.PlaceholderType{pptx.PlaceholderTitle, pptx.PlaceholderSubtitle} {
		if _, ok := titleLayout.Placeholder(kind); !ok {
			return nil, fmt.Errorf("layout %q: %w: %s", titleLayout.Name, pptx.ErrPlaceholderNotFound, kind)
		}
	}
	blankLayout, err := tpl.Layout(o.blankLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blank layout: %w", err)
	}

	prs := pptx.New(tpl)
	prs.SetSlideSize(pptx.Inches(o.width), pptx.Inches(o.height))
	prs.Core.Title = o.title
	prs.Core.Author = o.author

	return &Builder{
		prs:         prs,
		width:       o.width,
		titleLayout: titleLayout,
		blankLayout: blankLayout,
	}, nil
}

// Presentation 返回底层文档
func (b *Builder) Presentation() *pptx.Presentation {
	return b.prs
}

// SlideCount 当前幻灯片数量
func (b *Builder) SlideCount() int {
	return len(b.prs.Slides())
}

// AddTitleSlide 追加标题页并填充标题与副标题占位符
func (b *Builder) AddTitleSlide(title, subtitle string) (*pptx.Slide, error) {
	slide := b.prs.AddSlide(b.titleLayout)
	if err := slide.SetPlaceholderText(pptx.PlaceholderTitle, title); err != nil {
		return nil, err
	}
	if err := slide.SetPlaceholderText(pptx.PlaceholderSubtitle, subtitle); err != nil {
		return nil, err
	}
	return slide, nil
}

// AddBlankSlide 追加空白页
func (b *Builder) AddBlankSlide() *pptx.Slide {
	return b.prs.AddSlide(b.blankLayout)
}

// AddTextbox 添加单段落文本框，自动换行
func (b *Builder) AddTextbox(slide *pptx.Slide, text string, pos Position, size Size, fontSize float64, bold bool) *pptx.TextBox {
	tb := slide.AddTextBox(pptx.Inches(pos.Left), pptx.Inches(pos.Top), pptx.Inches(size.Width), pptx.Inches(size.Height))
	tf := tb.TextFrame()
	tf.WordWrap = true

	p := tf.Paragraphs()[0]
	p.Text = text
	p.Font.Size = pptx.Pt(fontSize)
	p.Font.SetBold(bold)
	return tb
}

// AddBulletList 添加项目符号列表，每个条目一个 0 级段落
func (b *Builder) AddBulletList(slide *pptx.Slide, items []string, pos Position, size Size, fontSize float64) *pptx.TextBox {
	tb := slide.AddTextBox(pptx.Inches(pos.Left), pptx.Inches(pos.Top), pptx.Inches(size.Width), pptx.Inches(size.Height))
	tf := tb.TextFrame()
	tf.WordWrap = true
	tf.Clear()

	for _, item := range items {
		p := tf.AddParagraph()
		p.Text = item
		p.Level = 0
		p.Bullet = true
		p.Font.Size = pptx.Pt(fontSize)
	}
	return tb
}

// AddImageToSlide 按宽度等比缩放插入图片
func (b *Builder) AddImageToSlide(slide *pptx.Slide, imagePath string, pos Position, width float64) (*pptx.Picture, error) {
	pic, err := slide.AddPicture(imagePath, pptx.Inches(pos.Left), pptx.Inches(pos.Top), pptx.Inches(width), 0)
	if err != nil {
		common.WithError(err).WithField("image", imagePath).Error("Failed to add image to slide")
		return nil, err
	}
	return pic, nil
}

// AddEndSlide 结束页：空白版式上两个居中文本框，参数为空时使用默认文案
func (b *Builder) AddEndSlide(title, subtitle string) *pptx.Slide {
	if title == "" {
		title = DefaultEndTitle
	}
	if subtitle == "" {
		subtitle = DefaultEndSubtitle
	}

	slide := b.AddBlankSlide()
	tb := b.AddTextbox(slide, title, Position{Left: 0, Top: 1.5}, Size{Width: b.width, Height: 2}, 44, true)
	tb.TextFrame().Paragraphs()[0].Alignment = pptx.AlignCenter

	tb = b.AddTextbox(slide, subtitle, Position{Left: 0, Top: 3.0}, Size{Width: b.width, Height: 1.5}, 28, false)
	tb.TextFrame().Paragraphs()[0].Alignment = pptx.AlignCenter
	return slide
}

// Save 保存到 path，写入失败时返回底层 I/O 错误
func (b *Builder) Save(path string) error {
	if err := b.prs.Save(path); err != nil {
		common.WithError(err).WithField("path", path).Error("Failed to save presentation")
		return err
	}

	common.WithFields(map[string]interface{}{
		"path":   path,
		"slides": b.SlideCount(),
	}).Info("Presentation saved")
	return nil
}
