package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"genai-slides/common"
	"genai-slides/internal/genai/provider"
	"genai-slides/internal/utils"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// 内容页排版，单位英寸
var (
	headingPos  = Position{Left: 0.5, Top: 0.3}
	headingSize = Size{Width: 9, Height: 0.9}

	bulletsPos       = Position{Left: 0.5, Top: 1.4}
	bulletsSize      = Size{Width: 9, Height: 3.8}
	bulletsSizeSplit = Size{Width: 5.2, Height: 3.8}

	imagePos   = Position{Left: 6.0, Top: 1.4}
	imageWidth = 3.5
)

const headingFontSize = 28

var outlineValidate = validator.New(validator.WithRequiredStructEnabled())

// SlideOutline 一张内容页
type SlideOutline struct {
	Heading     string   `json:"heading" yaml:"heading" validate:"required"`
	Bullets     []string `json:"bullets" yaml:"bullets"`
	ImagePrompt string   `json:"image_prompt,omitempty" yaml:"image_prompt"`
}

// Outline 整份演示文稿的大纲，可以是 JSON 或 YAML
type Outline struct {
	Title       string         `json:"title" yaml:"title" validate:"required"`
	Subtitle    string         `json:"subtitle" yaml:"subtitle"`
	Slides      []SlideOutline `json:"slides" yaml:"slides" validate:"required,min=1,dive"`
	EndTitle    string         `json:"end_title,omitempty" yaml:"end_title"`
	EndSubtitle string         `json:"end_subtitle,omitempty" yaml:"end_subtitle"`
}

// ParseOutline 解析大纲，以 "{" 开头按 JSON 解析，否则按 YAML
func ParseOutline(data []byte) (*Outline, error) {
	var o Outline
	unmarshal := yaml.Unmarshal
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("invalid outline: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate 校验必填字段
func (o *Outline) Validate() error {
	if err := outlineValidate.Struct(o); err != nil {
		return fmt.Errorf("invalid outline: %w", err)
	}
	return nil
}

// ImageGenerator Compose 生成配图所需的能力，provider.Iface 满足该接口
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, outputPath string, opts provider.ImageOptions) (string, error)
}

type composeOptions struct {
	image   provider.ImageOptions
	builder []Option
}

// ComposeOption Compose 配置项
type ComposeOption func(*composeOptions)

// WithImageOptions 配图生成参数
func WithImageOptions(opts provider.ImageOptions) ComposeOption {
	return func(o *composeOptions) { o.image = opts }
}

// WithBuilderOptions 透传给 NewBuilder
func WithBuilderOptions(opts ...Option) ComposeOption {
	return func(o *composeOptions) { o.builder = append(o.builder, opts...) }
}

// ComposeResult Compose 的产出
type ComposeResult struct {
	Path   string
	Slides int
	Images []string
}

// Compose 按大纲生成演示文稿：标题页、每个条目一张内容页（标题、要点、可选配图）、结束页。
// 配图写入 workDir；gen 为 nil 时忽略 image_prompt。任何一步失败都会中止并返回错误。
func Compose(ctx context.Context, gen ImageGenerator, outline *Outline, workDir, outPath string, opts ...ComposeOption) (*ComposeResult, error) {
	if outline == nil {
		return nil, errors.New("outline is required")
	}
	if err := outline.Validate(); err != nil {
		return nil, err
	}

	o := composeOptions{image: provider.DefaultImageOptions()}
	for _, opt := range opts {
		opt(&o)
	}

	b, err := NewBuilder(append([]Option{WithProperties(outline.Title, "genai-slides")}, o.builder...)...)
	if err != nil {
		return nil, err
	}

	common.WithFields(map[string]interface{}{
		"title":  outline.Title,
		"slides": len(outline.Slides),
		"output": outPath,
	}).Info("Composing presentation")

	if _, err := b.AddTitleSlide(outline.Title, outline.Subtitle); err != nil {
		return nil, err
	}

	result := &ComposeResult{Path: outPath}
	for i, s := range outline.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slide := b.AddBlankSlide()
		b.AddTextbox(slide, s.Heading, headingPos, headingSize, headingFontSize, true)

		prompt := strings.TrimSpace(s.ImagePrompt)
		if prompt == "" || gen == nil {
			b.AddBulletList(slide, s.Bullets, bulletsPos, bulletsSize, DefaultBulletFontSize)
			continue
		}

		b.AddBulletList(slide, s.Bullets, bulletsPos, bulletsSizeSplit, DefaultBulletFontSize)
		imagePath, err := generateSlideImage(ctx, gen, prompt, workDir, i+1, o.image)
		if err != nil {
			return nil, fmt.Errorf("slide %d image: %w", i+1, err)
		}
		if _, err := b.AddImageToSlide(slide, imagePath, imagePos, imageWidth); err != nil {
			return nil, fmt.Errorf("slide %d image: %w", i+1, err)
		}
		result.Images = append(result.Images, imagePath)
	}

	b.AddEndSlide(outline.EndTitle, outline.EndSubtitle)

	if err := b.Save(outPath); err != nil {
		return nil, err
	}
	result.Slides = b.SlideCount()
	return result, nil
}

// generateSlideImage 生成配图，并根据实际内容补上扩展名
func generateSlideImage(ctx context.Context, gen ImageGenerator, prompt, workDir string, index int, opts provider.ImageOptions) (string, error) {
	path, err := utils.NewOutputPath(workDir, fmt.Sprintf("slide%d", index), "")
	if err != nil {
		return "", err
	}
	if _, err := gen.GenerateImage(ctx, prompt, path, opts); err != nil {
		return "", err
	}

	return utils.RenameWithDetectedExt(path)
}
