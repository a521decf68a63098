package oss

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"genai-slides/common"
	"genai-slides/internal/utils"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Publisher 把本地生成的文件上传到固定 bucket 并返回访问 URL
type Publisher struct {
	client    OSSIface
	bucket    string
	expiresIn int64
}

// NewPublisher expiresIn > 0 时返回签名 URL，否则返回普通对象 URL
func NewPublisher(client OSSIface, bucket string, expiresIn int64) *Publisher {
	return &Publisher{client: client, bucket: bucket, expiresIn: expiresIn}
}

// Publish 上传 localPath，key 为 {prefix}/yyyy-MM-dd/{uuid}{ext}
func (p *Publisher) Publish(ctx context.Context, localPath, prefix string) (string, error) {
	if p.bucket == "" {
		return "", errors.New("oss bucket is not configured")
	}

	contentType, ext, err := detectContentType(localPath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := utils.GenerateObjectKey(prefix, ext)
	if _, err := p.client.UploadFile(ctx, p.bucket, key, f, contentType); err != nil {
		return "", err
	}

	objectURL := p.client.ObjectURL(p.bucket, key)
	if p.expiresIn > 0 {
		objectURL, err = p.client.GetSignedURL(ctx, p.bucket, key, p.expiresIn)
		if err != nil {
			return "", err
		}
	}

	common.WithFields(map[string]interface{}{
		"local": localPath,
		"url":   objectURL,
	}).Info("File published")
	return objectURL, nil
}

// detectContentType 按内容判断类型；pptx 可能被识别为普通 zip，此时以文件扩展名为准
func detectContentType(localPath string) (string, string, error) {
	mimeType, ext, err := utils.DetectFile(localPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to detect content type of %s: %w", localPath, err)
	}

	localExt := strings.ToLower(filepath.Ext(localPath))
	if localExt == ".pptx" {
		return pptxContentType, localExt, nil
	}
	if ext == "" {
		ext = localExt
	}
	return mimeType, ext, nil
}
