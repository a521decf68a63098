package tools

import (
	"context"
	"fmt"

	"genai-slides/common"
	"genai-slides/internal/genai/provider"
	"genai-slides/internal/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Publisher 把本地文件发布为可访问的 URL（OSS 上传），为 nil 时 tool 直接返回本地路径
type Publisher interface {
	Publish(ctx context.Context, localPath, prefix string) (string, error)
}

// Options tool 的运行参数
type Options struct {
	// ImageModel / TextModel 为空时使用 provider 包中的默认模型
	ImageModel string
	TextModel  string
	// OutputDir 生成文件的本地目录
	OutputDir string
	Publisher Publisher
}

// Handlers 持有 provider 与配置的 tool 处理函数集合
type Handlers struct {
	gen  provider.Iface
	opts Options
}

// NewHandlers 创建 tool 处理函数集合
func NewHandlers(gen provider.Iface, opts Options) *Handlers {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	return &Handlers{gen: gen, opts: opts}
}

// RegisterGenAITools 注册图片生成、文本生成与演示文稿生成的 MCP tools
func RegisterGenAITools(s *server.MCPServer, gen provider.Iface, opts Options) error {
	if gen == nil {
		return fmt.Errorf("genai provider is required")
	}
	h := NewHandlers(gen, opts)

	s.AddTool(GenerateImageTool(), h.GenerateImage)
	s.AddTool(GenerateTextTool(), h.GenerateText)
	s.AddTool(BuildDeckTool(), h.BuildDeck)
	return nil
}

// GenerateImageTool generate_image 的定义
func GenerateImageTool() mcp.Tool {
	return mcp.NewTool(
		"generate_image",
		mcp.WithDescription("Generate an image from a text prompt. Returns the local file path, or a URL when uploads are enabled."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Text prompt describing the image to generate"),
		),
		mcp.WithString("model",
			mcp.Description("Image model name; defaults to the server configuration"),
		),
		mcp.WithNumber("width",
			mcp.Description("Image width in pixels"),
			mcp.DefaultNumber(provider.DefaultImageWidth),
		),
		mcp.WithNumber("height",
			mcp.Description("Image height in pixels"),
			mcp.DefaultNumber(provider.DefaultImageHeight),
		),
		mcp.WithNumber("seed",
			mcp.Description("Optional non-negative seed for reproducible output"),
		),
		mcp.WithBoolean("nologo",
			mcp.Description("Remove the provider watermark"),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("enhance",
			mcp.Description("Let the provider enhance the prompt"),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("private",
			mcp.Description("Keep the generated image out of public feeds"),
			mcp.DefaultBool(true),
		),
	)
}

// GenerateTextTool generate_text 的定义
func GenerateTextTool() mcp.Tool {
	return mcp.NewTool(
		"generate_text",
		mcp.WithDescription("Generate text from a prompt with an optional system prompt. Returns the generated text."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("User prompt"),
		),
		mcp.WithString("system_prompt",
			mcp.Description("Optional system prompt sent before the user prompt"),
		),
		mcp.WithString("model",
			mcp.Description("Text model name; defaults to the server configuration"),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Sampling temperature between 0 and 2"),
			mcp.DefaultNumber(provider.DefaultTemperature),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Maximum tokens to generate; 0 leaves it to the provider"),
			mcp.DefaultNumber(provider.DefaultTextMaxTokens),
		),
	)
}

// ImageOptionsFromRequest 从 tool 参数构造图片参数，未提供的字段使用默认值
func (h *Handlers) ImageOptionsFromRequest(req mcp.CallToolRequest) provider.ImageOptions {
	opts := provider.DefaultImageOptions()
	if h.opts.ImageModel != "" {
		opts.Model = h.opts.ImageModel
	}
	opts.Model = req.GetString("model", opts.Model)
	opts.Width = req.GetInt("width", opts.Width)
	opts.Height = req.GetInt("height", opts.Height)
	opts.NoLogo = req.GetBool("nologo", opts.NoLogo)
	opts.Enhance = req.GetBool("enhance", opts.Enhance)
	opts.Private = req.GetBool("private", opts.Private)
	if _, ok := req.GetArguments()["seed"]; ok {
		seed := int64(req.GetInt("seed", 0))
		opts.Seed = &seed
	}
	return opts
}

// GenerateImage generate_image 处理函数
func (h *Handlers) GenerateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prompt parameter is required: %v", err)), nil
	}

	opts := h.ImageOptionsFromRequest(req)
	if err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputPath, err := utils.NewOutputPath(h.opts.OutputDir, "image", "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to prepare output path: %v", err)), nil
	}

	if _, err := h.gen.GenerateImage(ctx, prompt, outputPath, opts); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate image: %v", err)), nil
	}

	imagePath, err := utils.RenameWithDetectedExt(outputPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	location, err := h.publish(ctx, imagePath, "images")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to upload image: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Generated image: %s", location)), nil
}

// GenerateText generate_text 处理函数
func (h *Handlers) GenerateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prompt parameter is required: %v", err)), nil
	}

	opts := provider.DefaultTextOptions()
	if h.opts.TextModel != "" {
		opts.Model = h.opts.TextModel
	}
	opts.Model = req.GetString("model", opts.Model)
	opts.SystemPrompt = req.GetString("system_prompt", "")
	opts.Temperature = req.GetFloat("temperature", opts.Temperature)
	opts.MaxTokens = req.GetInt("max_tokens", opts.MaxTokens)

	if err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := h.gen.GenerateText(ctx, prompt, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate text: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// publish 配置了 Publisher 时上传并返回 URL，否则返回本地路径
func (h *Handlers) publish(ctx context.Context, localPath, prefix string) (string, error) {
	if h.opts.Publisher == nil {
		return localPath, nil
	}
	url, err := h.opts.Publisher.Publish(ctx, localPath, prefix)
	if err != nil {
		common.WithError(err).WithField("path", localPath).Error("Failed to publish generated file")
		return "", err
	}
	return url, nil
}
