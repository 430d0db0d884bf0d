// Package storage mirrors finished job artifacts into an S3-compatible
// object store. The local job directory remains the source of truth; the
// mirror is a convenience copy for dashboards and off-box consumers.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStore uploads job artifacts keyed by job id.
type ArtifactStore interface {
	MirrorResult(ctx context.Context, jobID string, paths []string) error
	ObjectURL(jobID, fileName string) string
}

// MirrorConfig carries the object-store connection settings.
type MirrorConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c *MirrorConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:9000"
	}
	if c.AccessKey == "" {
		c.AccessKey = "minioadmin"
	}
	if c.SecretKey == "" {
		c.SecretKey = "minioadmin"
	}
	if c.Bucket == "" {
		c.Bucket = "a2t-jobs"
	}
}

// MinioArtifactStore implements ArtifactStore using MinIO.
type MinioArtifactStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// NewMinioArtifactStore dials the object store and ensures the bucket exists.
func NewMinioArtifactStore(ctx context.Context, cfg MirrorConfig) (*MinioArtifactStore, error) {
	cfg.applyDefaults()

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioArtifactStore{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
	}, nil
}

// MirrorResult uploads each named file under jobs/<jobID>/<basename>.
// Missing files abort the mirror; a partial mirror is retried wholesale the
// next time the job finishes.
func (s *MinioArtifactStore) MirrorResult(ctx context.Context, jobID string, paths []string) error {
	for _, path := range paths {
		key := objectKey(jobID, filepath.Base(path))
		if _, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
			ContentType: contentTypeFor(path),
			UserMetadata: map[string]string{
				"job-id": jobID,
			},
		}); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}
	return nil
}

// ObjectURL returns the URL for accessing a mirrored artifact.
func (s *MinioArtifactStore) ObjectURL(jobID, fileName string) string {
	protocol := "http"
	if s.useSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.endpoint, s.bucket, objectKey(jobID, fileName))
}

func objectKey(jobID, fileName string) string {
	return fmt.Sprintf("jobs/%s/%s", jobID, fileName)
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// NoopArtifactStore satisfies ArtifactStore without uploading anything.
// Used when no mirror is configured and in tests.
type NoopArtifactStore struct{}

func NewNoopArtifactStore() *NoopArtifactStore {
	return &NoopArtifactStore{}
}

func (s *NoopArtifactStore) MirrorResult(ctx context.Context, jobID string, paths []string) error {
	return nil
}

func (s *NoopArtifactStore) ObjectURL(jobID, fileName string) string {
	return fmt.Sprintf("/storage/%s", objectKey(jobID, fileName))
}
