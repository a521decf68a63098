package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DetectFile 读取文件头判断 MIME 类型和扩展名（扩展名带 "."）
func DetectFile(path string) (mimeType string, ext string, err error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", err
	}
	return baseMime(mt.String()), normalizeExt(mt.Extension()), nil
}

// DetectBytes 根据内容判断 MIME 类型和扩展名
func DetectBytes(data []byte) (mimeType string, ext string) {
	mt := mimetype.Detect(data)
	return baseMime(mt.String()), normalizeExt(mt.Extension())
}

// IsImageMime 判断是否为图片类型
func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// GetExtensionFromMimeType 根据 MIME 类型获取文件扩展名（不区分大小写）
func GetExtensionFromMimeType(mimeType string) string {
	switch strings.ToLower(baseMime(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return ".pptx"
	default:
		if mt := mimetype.Lookup(baseMime(mimeType)); mt != nil && mt.Extension() != "" {
			return normalizeExt(mt.Extension())
		}
		return ".bin"
	}
}

// GenerateObjectKey 生成对象存储 key：{prefix}/yyyy-MM-dd/{uuid}{ext}
func GenerateObjectKey(prefix, ext string) string {
	prefix = strings.Trim(prefix, "/")
	name := uuid.NewString() + ext
	date := time.Now().Format("2006-01-02")
	if prefix == "" {
		return fmt.Sprintf("%s/%s", date, name)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, date, name)
}

// NewOutputPath 在 dir 下生成一个不重复的输出文件路径，必要时创建目录
func NewOutputPath(dir, prefix, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	name := uuid.NewString() + ext
	if prefix != "" {
		name = prefix + "_" + name
	}
	return filepath.Join(dir, name), nil
}

// RenameWithDetectedExt 根据文件内容补上扩展名并重命名，无法识别时保持原路径
func RenameWithDetectedExt(path string) (string, error) {
	_, ext, err := DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if ext == "" || strings.EqualFold(filepath.Ext(path), ext) {
		return path, nil
	}
	final := path + ext
	if err := os.Rename(path, final); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return final, nil
}

// TruncateForLog 截断长字符串用于日志，避免打印过长内容
func TruncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// baseMime 去掉 "; charset=..." 之类的参数
func baseMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// normalizeExt mimetype 对 jpeg 返回 ".jpg"，这里统一保证扩展名以 "." 开头
func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
