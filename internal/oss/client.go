package oss

import (
	"genai-slides/common"
)

// NewOSSClientFromConfig 从配置创建 OSS 客户端
func NewOSSClientFromConfig(cfg *common.Config) (*S3Client, error) {
	ossCfg := S3Config{
		Endpoint:     cfg.OSSEndpoint,
		Region:       cfg.OSSRegion,
		AccessKey:    cfg.OSSAccessKey,
		SecretKey:    cfg.OSSSecretKey,
		UsePathStyle: cfg.OSSUsePathStyle,
		PublicURL:    cfg.OSSPublicURL,
	}

	return NewS3Client(ossCfg)
}

// NewPublisherFromConfig 输出格式为 url 时创建 Publisher，否则返回 nil
func NewPublisherFromConfig(cfg *common.Config) (*Publisher, error) {
	if !cfg.UploadEnabled() {
		return nil, nil
	}
	client, err := NewOSSClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewPublisher(client, cfg.OSSBucket, int64(cfg.OSSURLExpiresSeconds)), nil
}
