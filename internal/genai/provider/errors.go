package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken 凭证为空或只包含空白
	ErrInvalidToken = errors.New("a valid API token must be provided as a non-empty string")
	// ErrInvalidOptions 生成参数未通过校验
	ErrInvalidOptions = errors.New("invalid generation options")
)

// APIError 远端返回非 2xx 状态码，不做重试
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error [%d]: %s", e.StatusCode, e.Body)
}

// ParseError 响应缺少预期字段，Response 保存原始响应便于排查
type ParseError struct {
	Err      error
	Response string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse the API response: %v; response received: %s", e.Err, e.Response)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidateToken 校验凭证
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	return nil
}
