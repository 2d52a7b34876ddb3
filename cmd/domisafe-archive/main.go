// DomiSafe Archive - Daily Backup Tool
//
// This is the entry point for the daily archival job. It zips yesterday's
// journal files and motion images into a single backup and, when object
// storage is configured, uploads the archive under a date-partitioned path.
// Run it from cron shortly after midnight:
//
//	5 0 * * * /usr/local/bin/domisafe-archive
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/domisafe-core/internal/archive"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/config"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path (shared with the agent)
const defaultConfigPath = "configs/config.yaml"

// uploadTimeout bounds the object storage upload.
const uploadTimeout = 5 * time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run archives yesterday's data and optionally uploads the result.
//
// Returns:
//   - error: nil on success; any failure aborts the job (cron retries
//     tomorrow, and the source files are still on disk)
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting DomiSafe archive job",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)

	yesterday := time.Now().AddDate(0, 0, -1)

	archiver := archive.NewArchiver(
		cfg.Storage.DataDir,
		cfg.Storage.ImageDir,
		cfg.Storage.BackupDir,
		log,
	)

	archivePath, count, err := archiver.ArchiveDay(yesterday)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", yesterday.Format("2006-01-02"), err)
	}
	log.Info("archive created", "path", archivePath, "files", count)

	if !cfg.Archive.S3.Enabled {
		log.Info("object storage upload disabled, archive kept locally")
		return nil
	}

	uploader, err := archive.NewUploader(cfg.Archive.S3)
	if err != nil {
		return fmt.Errorf("creating uploader: %w", err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	if err := uploader.EnsureBucket(uploadCtx); err != nil {
		return fmt.Errorf("ensuring bucket: %w", err)
	}

	objectName, err := uploader.Upload(uploadCtx, archivePath, yesterday)
	if err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}
	log.Info("archive uploaded",
		"bucket", cfg.Archive.S3.Bucket,
		"object", objectName,
	)

	return nil
}

// getConfigPath returns the configuration file path.
// Uses DOMISAFE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOMISAFE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
