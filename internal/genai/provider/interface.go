package provider

import "context"

// Iface 图片 / 文本生成提供方的统一接口，pollinations 与 gemini 均实现该接口。
type Iface interface {
	// GenerateImage 根据 prompt 生成图片并写入 outputPath，成功时返回 outputPath
	GenerateImage(ctx context.Context, prompt string, outputPath string, opts ImageOptions) (string, error)
	// GenerateText 根据 prompt 生成文本，返回去除首尾空白后的内容
	GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error)
	Close() error
}
