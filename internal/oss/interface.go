package oss

import (
	"context"
	"io"
)

// OSSIface OSS 客户端接口
type OSSIface interface {
	// UploadFile 上传文件到 OSS，返回 bucket/key
	UploadFile(ctx context.Context, bucket, key string, reader io.Reader, contentType string) (string, error)

	// GetSignedURL 获取文件的带签名 URL，用于临时访问
	// expiresIn 为过期时间（秒）
	GetSignedURL(ctx context.Context, bucket, key string, expiresIn int64) (string, error)

	// ObjectURL 返回对象的普通访问 URL（不带签名）
	ObjectURL(bucket, key string) string
}
