package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"filedepot/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter is an adapter for minio implementing both the part store and the
// object store. Parts live under the staging prefix keyed by session and part
// number; committed objects live under the object prefix.
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

func (a *Adapter) partKey(sessionID uuid.UUID, partNumber int) string {
	return fmt.Sprintf("%s/%s/%05d", a.config.StagingPrefix, sessionID, partNumber)
}

func (a *Adapter) objectKey(key string) string {
	return fmt.Sprintf("%s/%s", a.config.ObjectPrefix, key)
}

// WritePart stores one chunk. PutObject is atomic per key, so a part is
// either fully durable or absent, and re-writing a key is a clean overwrite.
func (a *Adapter) WritePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) (string, error) {
	key := a.partKey(sessionID, partNumber)
	_, err := a.client.PutObject(ctx, a.config.BucketName, key, body, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to write part %d of session %s: %w", partNumber, sessionID, err)
	}
	return key, nil
}

// ReadPart opens one staged chunk for assembly
func (a *Adapter) ReadPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, a.config.BucketName, a.partKey(sessionID, partNumber), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read part %d of session %s: %w", partNumber, sessionID, err)
	}
	return obj, nil
}

// DeleteParts removes every staged chunk of the session
func (a *Adapter) DeleteParts(ctx context.Context, sessionID uuid.UUID) error {
	prefix := fmt.Sprintf("%s/%s/", a.config.StagingPrefix, sessionID)

	objectsCh := a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for result := range a.client.RemoveObjects(ctx, a.config.BucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return fmt.Errorf("failed to delete staged parts of session %s: %w", sessionID, result.Err)
		}
	}
	return nil
}

// WriteObject streams a committed object into the bucket. size may be -1 when
// the final length is unknown (archive outputs).
func (a *Adapter) WriteObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := a.client.PutObject(ctx, a.config.BucketName, a.objectKey(key), body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return info.Size, nil
}

// ReadObject retrieves a committed object
func (a *Adapter) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, a.config.BucketName, a.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return obj, nil
}

// DeleteObject removes a committed object
func (a *Adapter) DeleteObject(ctx context.Context, key string) error {
	err := a.client.RemoveObject(ctx, a.config.BucketName, a.objectKey(key), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
