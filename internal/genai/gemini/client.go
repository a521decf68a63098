package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"genai-slides/common"
	"genai-slides/internal/genai/provider"
	"genai-slides/internal/utils"

	"google.golang.org/genai"
)

const (
	// 默认请求超时时间（调用 Gemini 接口）
	defaultGenAITimeout = 60 * time.Second

	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultTextModel  = "gemini-2.5-flash"
)

// Client Gemini 客户端实现，与 pollinations 共用 provider.Iface。
type Client struct {
	client  *genai.Client
	timeout time.Duration
}

// Config Gemini 客户端配置
type Config struct {
	APIKey  string        // API Key
	BaseURL string        // 自定义 Base URL，如果为空则使用默认值
	Timeout time.Duration // 请求超时时间
}

// NewGeminiClientFromConfig 从通用配置创建 Gemini 客户端。
// 仅当 common.Config.GenAIProvider=gemini 时使用。
func NewGeminiClientFromConfig(cfg *common.Config) (*Client, error) {
	return NewClient(Config{
		APIKey:  cfg.GenAIAPIKey,
		BaseURL: cfg.GenAIBaseURL,
		Timeout: time.Duration(cfg.GenAITimeoutSeconds) * time.Second,
	})
}

// NewClient 创建新的 Gemini 客户端
func NewClient(cfg Config) (*Client, error) {
	if err := provider.ValidateToken(cfg.APIKey); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenAITimeout
	}

	return &Client{
		client:  client,
		timeout: timeout,
	}, nil
}

// Close 关闭客户端（genai.Client 不需要显式关闭）
func (c *Client) Close() error {
	return nil
}

// GenerateImage 文生图：取第一个内联图片数据写入 outputPath。
// Gemini 不支持像素级宽高，Width / Height 仅做校验。
func (c *Client) GenerateImage(ctx context.Context, prompt string, outputPath string, opts provider.ImageOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	common.WithFields(map[string]interface{}{
		"model":  opts.Model,
		"prompt": utils.TruncateForLog(prompt, 50),
		"output": outputPath,
	}).Info("Generating Gemini image")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if opts.Seed != nil {
		// Gemini 的 seed 是 int32
		if *opts.Seed > math.MaxInt32 {
			return "", fmt.Errorf("%w: seed %d exceeds %d", provider.ErrInvalidOptions, *opts.Seed, math.MaxInt32)
		}
		seed := int32(*opts.Seed)
		config.Seed = &seed
	}

	result, err := c.generate(ctx, opts.Model, prompt, config)
	if err != nil {
		return "", err
	}

	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if err := os.WriteFile(outputPath, part.InlineData.Data, 0644); err != nil {
				common.WithError(err).WithField("output", outputPath).Error("Failed to write generated image")
				return "", fmt.Errorf("failed to write image: %w", err)
			}
			common.WithFields(map[string]interface{}{
				"output":    outputPath,
				"mime_type": part.InlineData.MIMEType,
				"size":      len(part.InlineData.Data),
			}).Info("Image successfully saved")
			return outputPath, nil
		}
	}

	common.WithField("candidates", len(result.Candidates)).Error("No image data found in Gemini response")
	return "", &provider.ParseError{Err: errors.New("no image data found in response"), Response: describe(result)}
}

// GenerateText 文本生成：拼接第一个候选的全部文本片段，去除首尾空白。
func (c *Client) GenerateText(ctx context.Context, prompt string, opts provider.TextOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	common.WithFields(map[string]interface{}{
		"model":       opts.Model,
		"prompt":      utils.TruncateForLog(prompt, 50),
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}).Info("Generating Gemini text")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.SystemPrompt}},
		}
	}

	result, err := c.generate(ctx, opts.Model, prompt, config)
	if err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", &provider.ParseError{Err: errors.New("no candidates in response"), Response: describe(result)}
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", &provider.ParseError{Err: errors.New("no text in first candidate"), Response: describe(result)}
	}
	return strings.TrimSpace(sb.String()), nil
}

// generate 调用 GenerateContent，并把 SDK 的 APIError 转换为 provider.APIError
func (c *Client) generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		common.WithError(err).WithField("model", model).Error("Gemini GenerateContent failed")
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &provider.APIError{StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return result, nil
}

// describe 生成用于诊断的响应摘要，避免把图片数据整体写入错误信息
func describe(result *genai.GenerateContentResponse) string {
	if result == nil {
		return "<nil>"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "candidates=%d", len(result.Candidates))
	for i, cand := range result.Candidates {
		fmt.Fprintf(&sb, "; [%d] finish=%s", i, cand.FinishReason)
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch {
			case part.InlineData != nil:
				fmt.Fprintf(&sb, " inline(%s,%d bytes)", part.InlineData.MIMEType, len(part.InlineData.Data))
			case part.Text != "":
				fmt.Fprintf(&sb, " text(%q)", utils.TruncateForLog(part.Text, 80))
			}
		}
	}
	return sb.String()
}

var _ provider.Iface = (*Client)(nil)
