package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nerrad567/domisafe-core/internal/infrastructure/config"
)

// Uploader pushes backup archives to S3-compatible object storage.
type Uploader struct {
	client *minio.Client
	bucket string
}

// NewUploader creates an uploader from the archive S3 configuration.
//
// Parameters:
//   - cfg: S3 settings (endpoint, credentials, bucket)
//
// Returns:
//   - *Uploader: ready for Upload
//   - error: if the client cannot be constructed
func NewUploader(cfg config.S3Config) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the backup bucket if it does not exist.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}
	return nil
}

// Upload stores an archive under a date-partitioned object path.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - archivePath: local path of the zip to upload
//   - day: the day the archive covers (drives the object path)
//
// Returns:
//   - string: the object name the archive was stored under
//   - error: if the upload fails
func (u *Uploader) Upload(ctx context.Context, archivePath string, day time.Time) (string, error) {
	objectName := ObjectPath(day, filepath.Base(archivePath))

	_, err := u.client.FPutObject(ctx, u.bucket, objectName, archivePath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("uploading archive: %w", err)
	}

	return objectName, nil
}

// ObjectPath builds the date-partitioned object name for an archive.
//
// Example: backups/year=2026/month=08/day=22/domisafe_backup_2026-08-22.zip
func ObjectPath(day time.Time, file string) string {
	return fmt.Sprintf("backups/year=%04d/month=%02d/day=%02d/%s",
		day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), file)
}
