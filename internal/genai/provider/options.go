package provider

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultImageModel  = "flux"
	DefaultImageWidth  = 1024
	DefaultImageHeight = 1024

	DefaultTextModel     = "gpt-4"
	DefaultTemperature   = 0.7
	DefaultTextMaxTokens = 2048

	RoleSystem = "system"
	RoleUser   = "user"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ImageOptions 图片生成参数
type ImageOptions struct {
	Model  string `validate:"required"`
	Width  int    `validate:"gt=0,lte=4096"`
	Height int    `validate:"gt=0,lte=4096"`
	// Seed 为 nil 时不下发，由服务端随机；gemini 只接受 int32 范围内的值
	Seed    *int64 `validate:"omitempty,gte=0"`
	NoLogo  bool
	Enhance bool
	Private bool
}

// DefaultImageOptions 返回默认图片参数：flux, 1024x1024，nologo / enhance / private 均开启
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		Model:   DefaultImageModel,
		Width:   DefaultImageWidth,
		Height:  DefaultImageHeight,
		NoLogo:  true,
		Enhance: true,
		Private: true,
	}
}

// Validate 在调用远端之前校验参数
func (o ImageOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// QueryParams 将图片参数转换为查询参数，布尔值使用小写字符串
func (o ImageOptions) QueryParams() map[string]string {
	params := map[string]string{
		"model":   o.Model,
		"width":   strconv.Itoa(o.Width),
		"height":  strconv.Itoa(o.Height),
		"nologo":  strconv.FormatBool(o.NoLogo),
		"enhance": strconv.FormatBool(o.Enhance),
		"private": strconv.FormatBool(o.Private),
	}
	if o.Seed != nil {
		params["seed"] = strconv.FormatInt(*o.Seed, 10)
	}
	return params
}

// TextOptions 文本生成参数
type TextOptions struct {
	Model string `validate:"required"`
	// SystemPrompt 为空时不发送 system 消息
	SystemPrompt string
	Temperature  float64 `validate:"gte=0,lte=2"`
	// MaxTokens 为 0 时请求中省略 max_tokens
	MaxTokens int `validate:"gte=0"`
}

// DefaultTextOptions 返回默认文本参数
func DefaultTextOptions() TextOptions {
	return TextOptions{
		Model:       DefaultTextModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultTextMaxTokens,
	}
}

// Validate 在调用远端之前校验参数
func (o TextOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Message chat 风格的单条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messages 构建消息列表：可选的 system 消息在前，user 消息在后
func (o TextOptions) Messages(prompt string) []Message {
	messages := make([]Message, 0, 2)
	if o.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: o.SystemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}
