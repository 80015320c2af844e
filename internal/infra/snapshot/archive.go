package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/fitbit-export/internal/infra/config"
)

// MinioArchive mirrors snapshots to an S3-compatible bucket.
type MinioArchive struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewMinioArchive constructs the archive from cfg. It returns nil when no
// endpoint is configured.
func NewMinioArchive(cfg config.ArchiveConfig, logger *slog.Logger) (*MinioArchive, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return &MinioArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With("component", "snapshot.archive"),
	}, nil
}

func (a *MinioArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err == nil && exists {
		return nil
	}
	err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Put uploads one snapshot file under the configured prefix.
func (a *MinioArchive) Put(ctx context.Context, key string, data []byte) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	info, err := a.client.PutObject(ctx, a.bucket, a.prefix+key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      "application/zstd",
		DisableMultipart: true,
	})
	if err != nil {
		return err
	}
	a.logger.Info("snapshot archived", "bucket", a.bucket, "key", info.Key, "etag", info.ETag)
	return nil
}

var _ Archiver = (*MinioArchive)(nil)

// sanitizeEndpoint strips scheme and path, which minio.New rejects.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
