package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Archiver zips a day's journal files and captured images into a single
// backup archive.
//
// File selection is name-based: journal files carry a YYYYMMDD prefix and
// motion images a motion_YYYYMMDD_ prefix, both written with the date fixed
// at agent start. The archiver collects files matching the target day from
// both directories.
type Archiver struct {
	dataDir   string
	imageDir  string
	backupDir string
	logger    Logger
}

// NewArchiver creates an archiver over the agent's storage directories.
func NewArchiver(dataDir, imageDir, backupDir string, logger Logger) *Archiver {
	return &Archiver{
		dataDir:   dataDir,
		imageDir:  imageDir,
		backupDir: backupDir,
		logger:    logger,
	}
}

// ArchivePath returns the backup archive path for the given day.
//
// Example: ./data/backups/domisafe_backup_2026-08-22.zip
func (a *Archiver) ArchivePath(day time.Time) string {
	return filepath.Join(a.backupDir, fmt.Sprintf("domisafe_backup_%s.zip", day.Format("2006-01-02")))
}

// ArchiveDay zips the journal files and motion images for the given day.
//
// Parameters:
//   - day: the calendar day to collect (typically yesterday)
//
// Returns:
//   - string: path of the created archive
//   - int: number of files archived
//   - error: if no files matched, or the archive could not be written
func (a *Archiver) ArchiveDay(day time.Time) (string, int, error) {
	files, err := a.collect(day)
	if err != nil {
		return "", 0, err
	}
	if len(files) == 0 {
		return "", 0, fmt.Errorf("no files to archive for %s", day.Format("2006-01-02"))
	}

	if err := os.MkdirAll(a.backupDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating backup directory: %w", err)
	}

	archivePath := a.ArchivePath(day)
	out, err := os.Create(archivePath)
	if err != nil {
		return "", 0, fmt.Errorf("creating archive: %w", err)
	}

	zw := zip.NewWriter(out)
	count := 0
	for _, path := range files {
		if err := addToArchive(zw, path); err != nil {
			// A single unreadable file should not sink the whole backup.
			if a.logger != nil {
				a.logger.Warn("skipping unreadable file", "path", path, "error", err)
			}
			continue
		}
		count++
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return "", 0, fmt.Errorf("finalising archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", 0, fmt.Errorf("closing archive: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("daily archive created",
			"path", archivePath,
			"files", count,
			"day", day.Format("2006-01-02"),
		)
	}

	return archivePath, count, nil
}

// collect lists the journal files and motion images for the given day.
func (a *Archiver) collect(day time.Time) ([]string, error) {
	stamp := day.Format("20060102")

	var files []string

	journals, err := filepath.Glob(filepath.Join(a.dataDir, stamp+"_*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("listing journal files: %w", err)
	}
	files = append(files, journals...)

	images, err := filepath.Glob(filepath.Join(a.imageDir, "motion_"+stamp+"_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("listing motion images: %w", err)
	}
	files = append(files, images...)

	return files, nil
}

// addToArchive copies one file into the zip under its base name, prefixed
// with the directory kind so journals and images stay separable.
func addToArchive(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	name := filepath.Base(path)
	if strings.HasSuffix(name, ".jpg") {
		name = filepath.Join("images", name)
	} else {
		name = filepath.Join("logs", name)
	}

	w, err := zw.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, in)
	return err
}
