// Package storage 保存请假证明等附件
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"timeclock/config"
)

// ErrDisabled 附件存储未启用
var ErrDisabled = errors.New("附件存储未启用")

// ObjectStore 附件对象存储接口
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// s3API S3 客户端中本包用到的方法
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store S3 兼容存储实现
type S3Store struct {
	client        s3API
	presign       *s3.PresignClient
	bucket        string
	prefix        string
	presignExpiry time.Duration
}

// NewS3Store 加载默认 AWS 凭证链并创建 S3 客户端
// Endpoint 非空时使用 path-style 访问（MinIO 等兼容存储）
func NewS3Store(ctx context.Context, cfg *config.StorageConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, s3.NewPresignClient(client), cfg), nil
}

func newS3Store(client s3API, presign *s3.PresignClient, cfg *config.StorageConfig) *S3Store {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Store{
		client:        client,
		presign:       presign,
		bucket:        cfg.Bucket,
		prefix:        cfg.KeyPrefix,
		presignExpiry: expiry,
	}
}

func (s *S3Store) fullKey(key string) string {
	return strings.TrimSuffix(s.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// Put 上传附件
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.fullKey(key)),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("上传附件 %s 失败: %w", key, err)
	}
	return nil
}

// PresignGet 生成限时下载链接
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	return req.URL, nil
}

// Delete 删除附件
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return fmt.Errorf("删除附件 %s 失败: %w", key, err)
	}
	return nil
}

// Disabled 未启用存储时的占位实现
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, string) error { return ErrDisabled }
func (Disabled) PresignGet(context.Context, string) (string, error)  { return "", ErrDisabled }
func (Disabled) Delete(context.Context, string) error                { return ErrDisabled }

// New 根据功能开关选择实现
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	if !cfg.Feature.StorageEnabled {
		return Disabled{}, nil
	}
	return NewS3Store(ctx, &cfg.Storage)
}
