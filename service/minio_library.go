package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// MinioLibrary stores one JSON object per agreement type under
// standards/<KEY>.json. Object PUT is atomic per key, which gives the
// upsert semantics TemplateLibrary requires.
type MinioLibrary struct {
	client *minio.Client
	bucket string
}

func NewMinioLibrary(cfg *config.MinioConfig) (*MinioLibrary, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioLibrary{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (l *MinioLibrary) EnsureBucket(ctx context.Context) error {
	exists, err := l.client.BucketExists(ctx, l.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = l.client.MakeBucket(ctx, l.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func objectKey(t model.AgreementType) string {
	return "standards/" + t.Key() + ".json"
}

func (l *MinioLibrary) Get(ctx context.Context, t model.AgreementType) (*model.TemplateEntry, error) {
	obj, err := l.client.GetObject(ctx, l.bucket, objectKey(t), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get template object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, t)
		}
		return nil, fmt.Errorf("failed to read template object: %w", err)
	}

	var entry model.TemplateEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse template object: %w", err)
	}

	return &entry, nil
}

func (l *MinioLibrary) Put(ctx context.Context, entry *model.TemplateEntry) error {
	if !entry.AgreementType.Valid() {
		return fmt.Errorf("invalid agreement type: %q", entry.AgreementType)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize template entry: %w", err)
	}

	_, err = l.client.PutObject(ctx, l.bucket, objectKey(entry.AgreementType),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	if err != nil {
		return fmt.Errorf("failed to store template entry: %w", err)
	}

	return nil
}

func (l *MinioLibrary) Exists(ctx context.Context, t model.AgreementType) (bool, error) {
	_, err := l.client.StatObject(ctx, l.bucket, objectKey(t), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat template object: %w", err)
	}
	return true, nil
}

// ArchiveUpload keeps a copy of an uploaded contract for audit under
// uploads/<id>/<filename>.
func (l *MinioLibrary) ArchiveUpload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := l.client.PutObject(ctx, l.bucket, "uploads/"+objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive upload: %w", err)
	}
	return nil
}
