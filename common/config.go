package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 应用配置结构
type Config struct {
	// GenAI 提供方: pollinations 或 gemini
	GenAIProvider string

	// 通用 GenAI 配置（pollinations 与 gemini 共用同一个 APIKey）
	GenAIAPIKey string
	// GenAIBaseURL 仅用于 gemini，覆盖 SDK 默认地址
	GenAIBaseURL string
	// 分别用于图片生成与文本生成的模型名称
	GenAIImageModel string
	GenAITextModel  string
	// GenAI 请求超时时间（秒）
	GenAITimeoutSeconds int

	// Pollinations 接口地址，留空使用默认值
	PollinationsImageURL string
	PollinationsTextURL  string

	// 生成文件（图片 / pptx）的本地输出目录
	OutputDir string
	// 输出格式: path（返回本地路径）或 url（上传 OSS 后返回 URL）
	OutputFormat string

	// OSS 配置
	OSSEndpoint     string
	OSSRegion       string
	OSSAccessKey    string
	OSSSecretKey    string
	OSSBucket       string
	OSSUsePathStyle bool
	OSSPublicURL    string
	// 签名 URL 有效期（秒），0 表示返回不带签名的对象 URL
	OSSURLExpiresSeconds int

	// 日志配置
	LogLevel  string // 日志级别: debug, info, warn, error
	LogFormat string // 日志格式: json, text
	LogOutput string // 输出位置: stdout, stderr, file
	LogFile   string // 日志文件路径（当 LogOutput 为 file 时）
}

// LoadConfig 从 .env 文件加载配置
func LoadConfig() (*Config, error) {
	// .env 文件不存在时直接使用环境变量
	// MCP stdio 模式下 stdout 是协议通道，提示只能写 stderr
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	config := &Config{
		GenAIProvider:       strings.ToLower(getEnv("GENAI_PROVIDER", "pollinations")),
		GenAIAPIKey:         getEnv("GENAI_API_KEY", ""),
		GenAIBaseURL:        getEnv("GENAI_BASE_URL", ""),
		GenAIImageModel:     getEnv("GENAI_IMAGE_MODEL", ""),
		GenAITextModel:      getEnv("GENAI_TEXT_MODEL", ""),
		GenAITimeoutSeconds: getEnvInt("GENAI_TIMEOUT_SECONDS", 60),

		PollinationsImageURL: getEnv("POLLINATIONS_IMAGE_URL", ""),
		PollinationsTextURL:  getEnv("POLLINATIONS_TEXT_URL", ""),

		OutputDir:    getEnv("OUTPUT_DIR", "output"),
		OutputFormat: strings.ToLower(getEnv("OUTPUT_FORMAT", "path")),

		// OSS 配置
		OSSEndpoint:          getEnv("OSS_ENDPOINT", ""),
		OSSRegion:            getEnv("OSS_REGION", "us-east-1"),
		OSSAccessKey:         getEnv("OSS_ACCESS_KEY", ""),
		OSSSecretKey:         getEnv("OSS_SECRET_KEY", ""),
		OSSBucket:            getEnv("OSS_BUCKET", ""),
		OSSUsePathStyle:      getEnvBool("OSS_USE_PATH_STYLE", false),
		OSSPublicURL:         getEnv("OSS_PUBLIC_URL", ""),
		OSSURLExpiresSeconds: getEnvInt("OSS_URL_EXPIRES_SECONDS", 0),

		// 日志配置（默认写 stderr，stdout 留给 MCP 协议）
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// 初始化日志系统
	logConfig := &LogConfig{
		Level:    config.LogLevel,
		Format:   config.LogFormat,
		Output:   config.LogOutput,
		FilePath: config.LogFile,
	}
	if err := InitLogger(logConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, nil
}

// Validate 根据提供方与输出格式校验必需的配置
func (c *Config) Validate() error {
	switch c.GenAIProvider {
	case "pollinations", "gemini":
		if strings.TrimSpace(c.GenAIAPIKey) == "" {
			return fmt.Errorf("GENAI_API_KEY is required when GENAI_PROVIDER=%s", c.GenAIProvider)
		}
	default:
		return fmt.Errorf("unsupported GENAI_PROVIDER: %s", c.GenAIProvider)
	}

	switch c.OutputFormat {
	case "path":
	case "url":
		if c.OSSBucket == "" {
			return fmt.Errorf("OSS_BUCKET is required when OUTPUT_FORMAT=url")
		}
	default:
		return fmt.Errorf("unsupported OUTPUT_FORMAT: %s", c.OutputFormat)
	}

	if c.GenAITimeoutSeconds < 0 {
		return fmt.Errorf("GENAI_TIMEOUT_SECONDS must not be negative, got %d", c.GenAITimeoutSeconds)
	}
	return nil
}

// UploadEnabled 当输出格式为 url 时需要把生成的文件上传到 OSS
func (c *Config) UploadEnabled() bool {
	return c.OutputFormat == "url"
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes" || value == "on"
}

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}
