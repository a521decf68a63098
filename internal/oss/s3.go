package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"genai-slides/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client S3 兼容的 OSS 客户端实现（AWS S3、MinIO、R2、阿里云 OSS 等）
type S3Client struct {
	client       *s3.Client
	endpoint     string
	region       string
	usePathStyle bool
	publicURL    string
}

// S3Config S3 客户端配置
type S3Config struct {
	Endpoint  string // OSS 服务端点，例如：s3.amazonaws.com、oss-cn-hangzhou.aliyuncs.com 或 http://localhost:9000
	Region    string // 区域，例如：us-east-1 或 cn-hangzhou
	AccessKey string // Access Key ID，留空时使用 SDK 默认凭证链
	SecretKey string // Secret Access Key
	// UsePathStyle 使用 endpoint/bucket/key 形式访问（MinIO 等需要）
	UsePathStyle bool
	// PublicURL 可选，公开访问的基础地址，设置后 ObjectURL 直接拼接 key
	PublicURL string
}

// NewS3Client 创建新的 S3 客户端
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	endpoint := normalizeEndpoint(cfg.Endpoint)

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// 部分 S3 兼容服务不支持 aws-chunked 与 CRC32 校验头，只在必须时计算校验和
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	common.WithFields(map[string]interface{}{
		"endpoint":   endpoint,
		"region":     cfg.Region,
		"path_style": cfg.UsePathStyle,
	}).Debug("S3 client initialized")

	return &S3Client{
		client:       client,
		endpoint:     endpoint,
		region:       cfg.Region,
		usePathStyle: cfg.UsePathStyle,
		publicURL:    strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// normalizeEndpoint 没有 scheme 的端点默认使用 https
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// UploadFile 上传文件到 OSS
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, reader io.Reader, contentType string) (string, error) {
	common.WithFields(map[string]interface{}{
		"bucket":       bucket,
		"key":          key,
		"content_type": contentType,
	}).Debug("Starting file upload to OSS")

	// 读取全部内容，保证请求带有 Content-Length
	body, err := io.ReadAll(reader)
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"bucket": bucket,
			"key":    key,
		}).Error("Failed to read file for upload")
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"bucket": bucket,
			"key":    key,
			"size":   len(body),
		}).Error("Failed to upload file to OSS")
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	filePath := fmt.Sprintf("%s/%s", bucket, key)
	common.WithFields(map[string]interface{}{
		"bucket":    bucket,
		"key":       key,
		"file_path": filePath,
		"size":      len(body),
	}).Info("File uploaded to OSS successfully")

	return filePath, nil
}

// GetSignedURL 获取文件的带签名 URL
func (c *S3Client) GetSignedURL(ctx context.Context, bucket, key string, expiresIn int64) (string, error) {
	if expiresIn <= 0 {
		return "", fmt.Errorf("expiresIn must be positive, got %d", expiresIn)
	}

	common.WithFields(map[string]interface{}{
		"bucket":     bucket,
		"key":        key,
		"expires_in": expiresIn,
	}).Debug("Generating signed URL for OSS file")

	presignClient := s3.NewPresignClient(c.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Duration(expiresIn) * time.Second
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"bucket": bucket,
			"key":    key,
		}).Error("Failed to generate signed URL")
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}

	return request.URL, nil
}

// ObjectURL 构造对象的公开 URL（不带签名）
func (c *S3Client) ObjectURL(bucket, key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}

	if c.endpoint != "" {
		u, err := url.Parse(c.endpoint)
		if err == nil && u.Host != "" {
			if c.usePathStyle {
				return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, bucket, key)
			}
			return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, bucket, u.Host, key)
		}
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, c.region, key)
}

var _ OSSIface = (*S3Client)(nil)
