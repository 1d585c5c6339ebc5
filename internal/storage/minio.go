package storage

import (
	types "PixelRelay/pkg"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStorage talks to any S3-compatible endpoint (MinIO, R2, Ceph) through
// minio-go.
type MinioStorage struct {
	client *minio.Client
	logger *zap.Logger
}

func NewMinioStorage(ctx context.Context, cfg types.MinioConfig, buckets []string, logger *zap.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStorage{client: client, logger: logger}
	if cfg.CreateBuckets {
		if err := s.ensureBuckets(ctx, buckets); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MinioStorage) ensureBuckets(ctx context.Context, buckets []string) error {
	for _, bucket := range buckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %q: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		s.logger.Info("Created bucket", zap.String("bucket", bucket))
	}
	return nil
}

func (s *MinioStorage) Upload(ctx context.Context, bucket, key string, body io.Reader, opts UploadOptions) error {
	size := opts.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, mapMinioError(err))
	}
	return nil
}

func (s *MinioStorage) Download(ctx context.Context, bucket, key string, w io.Writer) (*ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, mapMinioError(err))
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces a missing key before any bytes are copied.
	stat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat object %s/%s: %w", bucket, key, mapMinioError(err))
	}

	n, err := io.Copy(w, obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}

	return &ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        n,
		ContentType: stat.ContentType,
		Metadata:    stat.UserMetadata,
	}, nil
}

func mapMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	return err
}
