package main

import (
	"fmt"
	"log"
	"os"

	"genai-slides/common"
	"genai-slides/internal/genai/gemini"
	"genai-slides/internal/genai/pollinations"
	"genai-slides/internal/genai/provider"
	"genai-slides/internal/oss"
	"genai-slides/internal/tools"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// 加载配置
	config, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 打印配置信息（隐藏敏感信息）
	fmt.Fprintf(os.Stderr, "Server starting...\n")
	fmt.Fprintf(os.Stderr, "GenAI Provider: %s\n", config.GenAIProvider)
	fmt.Fprintf(os.Stderr, "Output: %s (%s)\n", config.OutputDir, config.OutputFormat)
	fmt.Fprintf(os.Stderr, "API Key: %s\n", maskAPIKey(config.GenAIAPIKey))

	gen, toolOpts, err := newProvider(config)
	if err != nil {
		log.Fatalf("Failed to create %s client: %v", config.GenAIProvider, err)
	}
	defer gen.Close()

	// OUTPUT_FORMAT=url 时上传到 OSS
	publisher, err := oss.NewPublisherFromConfig(config)
	if err != nil {
		log.Fatalf("Failed to create OSS publisher: %v", err)
	}
	if publisher != nil {
		toolOpts.Publisher = publisher
	}

	// 创建 MCP 服务器
	s := server.NewMCPServer(
		"GenAI Slides MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if err := tools.RegisterGenAITools(s, gen, toolOpts); err != nil {
		log.Fatalf("Failed to register GenAI tools: %v", err)
	}

	common.WithFields(map[string]interface{}{
		"provider":    config.GenAIProvider,
		"image_model": toolOpts.ImageModel,
		"text_model":  toolOpts.TextModel,
	}).Info("MCP server ready")

	// 启动 stdio 服务器
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newProvider 按 GENAI_PROVIDER 创建客户端，并确定 tool 的默认模型
func newProvider(config *common.Config) (provider.Iface, tools.Options, error) {
	opts := tools.Options{
		ImageModel: config.GenAIImageModel,
		TextModel:  config.GenAITextModel,
		OutputDir:  config.OutputDir,
	}

	switch config.GenAIProvider {
	case "gemini":
		client, err := gemini.NewGeminiClientFromConfig(config)
		if err != nil {
			return nil, opts, err
		}
		if opts.ImageModel == "" {
			opts.ImageModel = gemini.DefaultImageModel
		}
		if opts.TextModel == "" {
			opts.TextModel = gemini.DefaultTextModel
		}
		return client, opts, nil
	default:
		client, err := pollinations.NewPollinationsClientFromConfig(config)
		if err != nil {
			return nil, opts, err
		}
		return client, opts, nil
	}
}

// maskAPIKey 隐藏 API Key 的敏感部分
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
