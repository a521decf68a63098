package pollinations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"genai-slides/common"
	"genai-slides/internal/genai/provider"
	"genai-slides/internal/utils"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultImageBaseURL 图片接口地址，prompt 作为路径最后一段拼接在其后
	DefaultImageBaseURL = "https://image.pollinations.ai/prompt/"
	// DefaultTextURL OpenAI 兼容的 chat completions 接口
	DefaultTextURL = "https://text.pollinations.ai/openai/chat/completions"

	defaultPollinationsTimeout = 60 * time.Second
)

// Client Pollinations 客户端实现，负责调用图片与文本生成接口。
// 单次请求、同步返回，不做重试。
type Client struct {
	httpClient *resty.Client

	imageBaseURL string
	textURL      string
}

// Config Pollinations 客户端配置
type Config struct {
	APIToken string
	// 可选：覆盖默认接口地址（测试或自建网关）
	ImageBaseURL string
	TextURL      string
	// Timeout 为 0 时使用默认 60 秒
	Timeout time.Duration
}

// NewPollinationsClientFromConfig 从通用配置创建 Pollinations 客户端。
// 仅当 common.Config.GenAIProvider=pollinations 时使用。
func NewPollinationsClientFromConfig(cfg *common.Config) (*Client, error) {
	return NewClient(Config{
		APIToken:     cfg.GenAIAPIKey,
		ImageBaseURL: cfg.PollinationsImageURL,
		TextURL:      cfg.PollinationsTextURL,
		Timeout:      time.Duration(cfg.GenAITimeoutSeconds) * time.Second,
	})
}

// NewClient 创建 Pollinations 客户端，凭证为空时立即失败。
func NewClient(cfg Config) (*Client, error) {
	if err := provider.ValidateToken(cfg.APIToken); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPollinationsTimeout
	}

	imageBaseURL := cfg.ImageBaseURL
	if imageBaseURL == "" {
		imageBaseURL = DefaultImageBaseURL
	}
	if !strings.HasSuffix(imageBaseURL, "/") {
		imageBaseURL += "/"
	}
	textURL := cfg.TextURL
	if textURL == "" {
		textURL = DefaultTextURL
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetAuthToken(cfg.APIToken).
		SetLogger(common.GetLogger())

	return &Client{
		httpClient:   httpClient,
		imageBaseURL: imageBaseURL,
		textURL:      textURL,
	}, nil
}

// Close 预留关闭方法，当前未持有需要显式关闭的资源。
func (c *Client) Close() error {
	return nil
}

// GenerateImage 文生图：GET {imageBaseURL}{escaped prompt}?model=...，把响应体原样写入 outputPath。
func (c *Client) GenerateImage(ctx context.Context, prompt string, outputPath string, opts provider.ImageOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	common.WithFields(map[string]interface{}{
		"model":  opts.Model,
		"prompt": utils.TruncateForLog(prompt, 50),
		"width":  opts.Width,
		"height": opts.Height,
		"output": outputPath,
	}).Info("Generating Pollinations image")

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetRawPathParam("prompt", EscapePrompt(prompt)).
		SetQueryParams(opts.QueryParams()).
		Get(c.imageBaseURL + "{prompt}")
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", c.apiError(resp, "image")
	}

	if err := os.WriteFile(outputPath, resp.Body(), 0644); err != nil {
		common.WithError(err).WithField("output", outputPath).Error("Failed to write generated image")
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	common.WithFields(map[string]interface{}{
		"output": outputPath,
		"size":   len(resp.Body()),
	}).Info("Image successfully saved")

	return outputPath, nil
}

// chatRequest chat completions 请求体
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

// chatResponse 只解析需要的字段；指针用于区分字段缺失与空值
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText 文本生成：POST chat completions，返回 choices[0].message.content（去除首尾空白）。
func (c *Client) GenerateText(ctx context.Context, prompt string, opts provider.TextOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	common.WithFields(map[string]interface{}{
		"model":       opts.Model,
		"prompt":      utils.TruncateForLog(prompt, 50),
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}).Info("Generating Pollinations text")

	payload := chatRequest{
		Model:       opts.Model,
		Messages:    opts.Messages(prompt),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.textURL)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", c.apiError(resp, "text")
	}

	content, err := parseChatContent(resp.Body())
	if err != nil {
		common.WithError(err).WithField("body", resp.String()).Error("Failed to parse Pollinations chat response")
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// parseChatContent 提取 choices[0].message.content
func parseChatContent(body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &provider.ParseError{Err: err, Response: string(body)}
	}
	if len(parsed.Choices) == 0 {
		return "", &provider.ParseError{Err: errors.New("missing choices"), Response: string(body)}
	}
	msg := parsed.Choices[0].Message
	if msg == nil {
		return "", &provider.ParseError{Err: errors.New("missing choices[0].message"), Response: string(body)}
	}
	if msg.Content == nil {
		return "", &provider.ParseError{Err: errors.New("missing choices[0].message.content"), Response: string(body)}
	}
	return *msg.Content, nil
}

// apiError 记录并返回非 2xx 响应
func (c *Client) apiError(resp *resty.Response, kind string) error {
	common.WithFields(map[string]interface{}{
		"kind":        kind,
		"status_code": resp.StatusCode(),
		"url":         resp.Request.URL,
		"body":        utils.TruncateForLog(resp.String(), 512),
	}).Error("Pollinations API returned non-success status")
	return &provider.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
}

// EscapePrompt 对 prompt 做完整的百分号编码，只保留 RFC 3986 非保留字符，
// 空格编码为 %20，"/" 编码为 %2F，保证 prompt 只占用一个路径段。
func EscapePrompt(prompt string) string {
	return strings.ReplaceAll(url.QueryEscape(prompt), "+", "%20")
}

var _ provider.Iface = (*Client)(nil)
