package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schemaflow/schemaflow/internal/config"
)

// Service implements the Store interface against an S3-compatible
// object store.
type Service struct {
	client *minio.Client
	bucket string
	logger Logger
}

// NewService creates a new snapshot store and ensures the bucket exists
func NewService(ctx context.Context, cfg *config.SnapshotConfig, logger Logger) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %v", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot bucket: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create snapshot bucket: %v", err)
		}
	}

	return &Service{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

func objectKey(migrationID string) string {
	return fmt.Sprintf("migrations/%s/schema.sql", migrationID)
}

// Put uploads the schema content for a migration. Re-uploading the same
// migration id overwrites the object, keeping exactly one latest
// snapshot per migration.
func (s *Service) Put(ctx context.Context, migrationID, content string) (string, error) {
	key := objectKey(migrationID)
	reader := bytes.NewReader([]byte(content))

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %v", err)
	}

	s.logger.LogInfo("Schema snapshot stored", map[string]interface{}{
		"migrationId": migrationID,
		"key":         key,
		"bytes":       reader.Len(),
	})
	return key, nil
}

// Get downloads the schema content for a migration
func (s *Service) Get(ctx context.Context, migrationID string) (string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectKey(migrationID), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to fetch snapshot: %v", err)
	}
	defer object.Close()

	var b strings.Builder
	if _, err := io.Copy(&b, object); err != nil {
		return "", fmt.Errorf("failed to read snapshot: %v", err)
	}
	return b.String(), nil
}

// Exists reports whether a snapshot has been stored for the migration
func (s *Service) Exists(ctx context.Context, migrationID string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(migrationID), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat snapshot: %v", err)
	}
	return true, nil
}
