package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedImage 文件不是可嵌入的图片
var ErrUnsupportedImage = errors.New("unsupported image")

// Shape 幻灯片上的形状
type Shape interface {
	ID() int
	Name() string
}

// TextBox 文本框
type TextBox struct {
	id   int
	name string

	Left, Top, Width, Height Length

	frame *TextFrame
}

func (tb *TextBox) ID() int { return tb.id }
func (tb *TextBox) Name() string { return tb.name }
func (tb *TextBox) TextFrame() *TextFrame { return tb.frame }

// PlaceholderShape 从版式继承位置与样式的占位符
type PlaceholderShape struct {
	id   int
	name string

	Type PlaceholderType
	Idx  int

	frame *TextFrame
}

func (ph *PlaceholderShape) ID() int { return ph.id }
func (ph *PlaceholderShape) Name() string { return ph.name }
func (ph *PlaceholderShape) TextFrame() *TextFrame { return ph.frame }

// Picture 图片
type Picture struct {
	id   int
	name string

	Left, Top, Width, Height Length
	Description              string

	data        []byte
	ext         string
	contentType string
}

func (p *Picture) ID() int { return p.id }
func (p *Picture) Name() string { return p.name }

// ContentType 返回图片 MIME 类型
func (p *Picture) ContentType() string { return p.contentType }

// Slide 幻灯片，形状顺序即添加顺序
type Slide struct {
	layout *Layout
	shapes []Shape
	nextID int
}

func newSlide(layout *Layout) *Slide {
	s := &Slide{layout: layout, nextID: 2}
	for _, ph := range layout.Placeholders {
		switch ph.Type {
		case PlaceholderDate, PlaceholderFooter, PlaceholderSlideNumber:
			continue
		}
		id := s.allocID()
		name := ph.Name
		if name == "" {
			name = fmt.Sprintf("Placeholder %d", id-1)
		}
		s.shapes = append(s.shapes, &PlaceholderShape{
			id:    id,
			name:  name,
			Type:  ph.Type,
			Idx:   ph.Idx,
			frame: newTextFrame(),
		})
	}
	return s
}

func (s *Slide) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Layout 返回幻灯片使用的版式
func (s *Slide) Layout() *Layout {
	return s.layout
}

// Shapes 按添加顺序返回形状
func (s *Slide) Shapes() []Shape {
	return s.shapes
}

// Placeholder 按类型查找占位符，title 与 ctrTitle 可互相匹配
func (s *Slide) Placeholder(t PlaceholderType) (*PlaceholderShape, error) {
	for _, shape := range s.shapes {
		if ph, ok := shape.(*PlaceholderShape); ok && ph.Type.matches(t) {
			return ph, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on layout %q", ErrPlaceholderNotFound, t, s.layout.Name)
}

// SetPlaceholderText 设置占位符文本
func (s *Slide) SetPlaceholderText(t PlaceholderType, text string) error {
	ph, err := s.Placeholder(t)
	if err != nil {
		return err
	}
	ph.frame.SetText(text)
	return nil
}

// AddTextBox 添加空文本框
func (s *Slide) AddTextBox(left, top, width, height Length) *TextBox {
	id := s.allocID()
	tb := &TextBox{
		id:     id,
		name:   fmt.Sprintf("TextBox %d", id-1),
		Left:   left,
		Top:    top,
		Width:  width,
		Height: height,
		frame:  newTextFrame(),
	}
	s.shapes = append(s.shapes, tb)
	return tb
}

// AddPicture 从文件添加图片。width 或 height 为 0 时按原图比例计算，两者都为 0 时使用原始尺寸
func (s *Slide) AddPicture(path string, left, top, width, height Length) (*Picture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mt := mimetype.Detect(data)
	contentType := baseMime(mt.String())
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedImage, path, contentType)
	}

	if width == 0 || height == 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read dimensions of %s: %v", ErrUnsupportedImage, path, err)
		}
		if cfg.Width == 0 || cfg.Height == 0 {
			return nil, fmt.Errorf("%w: %s has zero size", ErrUnsupportedImage, path)
		}
		width, height = scaleToFit(width, height, cfg.Width, cfg.Height)
	}

	id := s.allocID()
	pic := &Picture{
		id:          id,
		name:        fmt.Sprintf("Picture %d", id-1),
		Left:        left,
		Top:         top,
		Width:       width,
		Height:      height,
		data:        data,
		ext:         strings.TrimPrefix(mt.Extension(), "."),
		contentType: contentType,
	}
	s.shapes = append(s.shapes, pic)
	return pic, nil
}

// scaleToFit 根据像素尺寸补全缺失的宽或高
func scaleToFit(width, height Length, pxW, pxH int) (Length, Length) {
	switch {
	case width == 0 && height == 0:
		return Length(pxW) * emuPerPixel, Length(pxH) * emuPerPixel
	case height == 0:
		return width, Length(int64(width) * int64(pxH) / int64(pxW))
	default:
		return Length(int64(height) * int64(pxW) / int64(pxH)), height
	}
}
