package storage

import (
	"context"
	"net/url"
	"time"

	"github.com/docman/backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 15 * time.Minute

// MinIOClient presigns download URLs for documents whose location is an
// object key in the configured bucket. The server never reads or writes
// object bytes itself.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

// PresignedDownloadURL returns a time-limited GET URL for the given object key.
func (m *MinIOClient) PresignedDownloadURL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presigned, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, presignExpiry, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
