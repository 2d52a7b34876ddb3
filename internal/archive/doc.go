// Package archive implements the daily backup: it zips a day's journal
// files and motion images and optionally uploads the archive to
// S3-compatible object storage.
//
// The Archiver selects files by the date embedded in their names
// (YYYYMMDD_<stream>.jsonl, motion_YYYYMMDD_HHMMSS.jpg), so it never needs
// to parse file contents or modification times. Archives land in the backup
// directory as domisafe_backup_YYYY-MM-DD.zip with journals under logs/ and
// images under images/.
//
// The Uploader stores archives under date-partitioned object paths
// (backups/year=/month=/day=/) so bucket listings stay cheap as history
// accumulates. Upload is optional and driven by the archive.s3 config
// section; the local zip is the deliverable either way.
package archive
