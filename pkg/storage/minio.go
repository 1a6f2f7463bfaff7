// Package storage提供了与对象存储服务（如 MinIO、S3）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultEndpoint = "s3.amazonaws.com"

// Object 是从存储中读取的对象，调用方负责关闭 Body。
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store 封装了一个存储桶上的读写操作。
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewStore 根据配置创建 S3 兼容客户端。Endpoint 为空时连接 AWS S3。
func NewStore(cfg config.StorageConfig) (*Store, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	lookup := minio.BucketLookupDNS
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w: %w", model.ErrStorage, err)
	}
	return &Store{client: client, bucket: cfg.BucketName, region: cfg.Region}, nil
}

// Bucket 返回当前使用的存储桶名称。
func (s *Store) Bucket() string { return s.bucket }

// EnsureBucket 检查存储桶是否存在，如果不存在则创建。
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w: %w", model.ErrStorage, err)
	}
	if exists {
		log.Infof("存储桶 '%s' 已存在", s.bucket)
		return nil
	}

	log.Infof("存储桶 '%s' 不存在，正在创建...", s.bucket)
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket: %w: %w", model.ErrStorage, err)
	}
	log.Infof("存储桶 '%s' 创建成功", s.bucket)
	return nil
}

// ObjectKey 生成 {ownerID}/{uuid}{ext} 形式的对象键，ext 为原文件名的小写扩展名。
func ObjectKey(ownerID uint, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return strconv.FormatUint(uint64(ownerID), 10) + "/" + uuid.NewString() + ext
}

// Upload 以原始 Content-Type 上传文件内容，返回生成的对象键。
func (s *Store) Upload(ctx context.Context, r io.Reader, size int64, ownerID uint, originalName, contentType string) (string, error) {
	key := ObjectKey(ownerID, originalName)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w: %w", key, model.ErrStorage, err)
	}
	return key, nil
}

// Fetch 读取对象。键不存在时返回 model.ErrNotFound。
func (s *Store) Fetch(ctx context.Context, key string) (*Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, classify(err, "stat object "+key)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err, "get object "+key)
	}
	return &Object{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

// Remove 删除对象，对象不存在时视为成功。
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %s: %w: %w", key, model.ErrStorage, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func classify(err error, op string) error {
	if isNoSuchKey(err) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err)
}
