package backup

import (
	"context"
	"fmt"

	"tc-go/internal/config"
	"tc-go/internal/tc"
)

// NewTargetFromConfig creates a BackupTarget implementation based on the backup config type.
// Returns (nil, nil) when backups are disabled (type "none" or empty).
func NewTargetFromConfig(ctx context.Context, cfg config.BackupConfig) (tc.BackupTarget, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "filesystem":
		if cfg.FSBackupDir == "" {
			return nil, fmt.Errorf("filesystem backup requires fs_backup_dir to be set")
		}
		return NewFileSystemTarget(cfg.FSBackupDir)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 backup requires s3_bucket to be set")
		}
		return NewS3Target(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unknown backup type: %s", cfg.Type)
	}
}
