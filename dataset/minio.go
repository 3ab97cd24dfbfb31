package dataset

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tiggercwh/go-semantle/config"
)

// MinioSource reads dataset files from MinIO or another S3-compatible store.
type MinioSource struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioSource(cfg *config.DatasetConfig) (*MinioSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewMinioSourceWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewMinioSourceWithClient(client *minio.Client, bucket, prefix string) *MinioSource {
	return &MinioSource{client: client, bucket: bucket, prefix: prefix}
}

func (s *MinioSource) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path.Join(s.prefix, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, minioError(name, err)
	}

	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, minioError(name, err)
	}
	return obj, info.Size, nil
}

func minioError(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	}
	return fmt.Errorf("get minio object %s: %w", name, err)
}
