package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cybercrime-portal/pkg/config"
)

const downloadURLExpiry = 15 * time.Minute

// EvidenceBlobs stores evidence file bytes in a MinIO bucket. Objects are
// content addressed inside their case.
type EvidenceBlobs struct {
	client *minio.Client
	bucket string
}

// Connect opens the MinIO client and creates the bucket if needed.
func Connect(ctx context.Context, cfg config.MinIOConfig) (*EvidenceBlobs, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &EvidenceBlobs{client: client, bucket: cfg.Bucket}, nil
}

// ObjectKey is where the evidence with hash sum for caseID is stored.
func ObjectKey(caseID, sum string) string {
	return path.Join("cases", caseID, sum)
}

func (b *EvidenceBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// DownloadURL returns a short-lived presigned GET url that saves the object
// under fileName.
func (b *EvidenceBlobs) DownloadURL(ctx context.Context, key, fileName string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, downloadURLExpiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}
