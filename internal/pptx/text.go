package pptx

import "strings"

// Alignment 段落对齐方式，零值表示继承版式
type Alignment string

const (
	AlignLeft    Alignment = "l"
	AlignCenter  Alignment = "ctr"
	AlignRight   Alignment = "r"
	AlignJustify Alignment = "just"
)

// Font 文字格式，零值表示继承
type Font struct {
	Size Length

	bold *bool
}

// SetBold 显式设置粗体
func (f *Font) SetBold(b bool) {
	f.bold = &b
}

// Bold 返回粗体设置以及是否显式设置过
func (f *Font) Bold() (value bool, set bool) {
	if f.bold == nil {
		return false, false
	}
	return *f.bold, true
}

// Paragraph 文本段落
type Paragraph struct {
	Text      string
	Level     int
	Alignment Alignment
	// Bullet 为 true 时使用 "•" 项目符号
	Bullet bool
	Font   Font
}

// TextFrame 文本框内容
type TextFrame struct {
	WordWrap bool

	paragraphs []*Paragraph
}

// 与 PowerPoint 一致，新建文本框自带一个空段落
func newTextFrame() *TextFrame {
	return &TextFrame{paragraphs: []*Paragraph{{}}}
}

// Paragraphs 返回段落列表
func (tf *TextFrame) Paragraphs() []*Paragraph {
	return tf.paragraphs
}

// AddParagraph 追加空段落
func (tf *TextFrame) AddParagraph() *Paragraph {
	p := &Paragraph{}
	tf.paragraphs = append(tf.paragraphs, p)
	return p
}

// Clear 删除所有段落
func (tf *TextFrame) Clear() {
	tf.paragraphs = nil
}

// SetText 替换全部内容，每行一个段落
func (tf *TextFrame) SetText(text string) {
	tf.Clear()
	for _, line := range strings.Split(text, "\n") {
		tf.AddParagraph().Text = line
	}
}

// Text 返回所有段落文本，以换行连接
func (tf *TextFrame) Text() string {
	lines := make([]string, 0, len(tf.paragraphs))
	for _, p := range tf.paragraphs {
		lines = append(lines, p.Text)
	}
	return strings.Join(lines, "\n")
}
