// Package backup snapshots the catalog database to a configured
// target, optionally encrypting each snapshot.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tc-go/internal/tc"
)

// Runner produces and restores catalog snapshots. A snapshot is a
// consistent point-in-time copy of the database, named
// catalog-<UTC timestamp>.db, with an .age suffix when encrypted.
type Runner struct {
	catalog   tc.Catalog
	target    tc.BackupTarget
	encryptor tc.Encryptor // nil disables encryption
	logger    tc.Logger
	clock     tc.Clock
}

// NewRunner creates a snapshot runner. encryptor may be nil, in which
// case snapshots are stored in plaintext.
func NewRunner(catalog tc.Catalog, target tc.BackupTarget, encryptor tc.Encryptor, logger tc.Logger, clock tc.Clock) *Runner {
	return &Runner{
		catalog:   catalog,
		target:    target,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// Snapshot writes a consistent copy of the catalog, encrypts it when an
// encryptor is configured, and uploads it to the target. Returns the
// stored snapshot name.
func (r *Runner) Snapshot(ctx context.Context) (string, error) {
	tmpDir, err := os.MkdirTemp("", "tc-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating snapshot temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	name := "catalog-" + r.clock.Now().UTC().Format("20060102-150405") + ".db"
	snapPath := filepath.Join(tmpDir, name)
	if err := r.catalog.BackupTo(snapPath); err != nil {
		return "", fmt.Errorf("snapshotting catalog: %w", err)
	}

	uploadPath := snapPath
	if r.encryptor != nil {
		if !r.encryptor.IsConfigured() {
			return "", fmt.Errorf("backup encryption enabled but keys are missing (run backup init)")
		}
		encPath := snapPath + ".age"
		if err := r.encryptFile(snapPath, encPath); err != nil {
			return "", err
		}
		uploadPath = encPath
		name += ".age"
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("statting snapshot: %w", err)
	}

	if err := r.target.Put(ctx, name, f, info.Size()); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	r.logger.Info("snapshot stored", "name", name, "size", info.Size())
	return name, nil
}

// Restore downloads the named snapshot and writes the plaintext
// database to destPath. passphrase is required for encrypted snapshots
// and ignored otherwise.
func (r *Runner) Restore(ctx context.Context, name, destPath, passphrase string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("restore destination already exists: %s", destPath)
	}

	tmpDir, err := os.MkdirTemp("", "tc-restore-*")
	if err != nil {
		return fmt.Errorf("creating restore temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	fetchPath := filepath.Join(tmpDir, name)
	fetchFile, err := os.Create(fetchPath)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	if err := r.target.Get(ctx, name, fetchFile); err != nil {
		fetchFile.Close()
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	if err := fetchFile.Close(); err != nil {
		return fmt.Errorf("closing download file: %w", err)
	}

	if !strings.HasSuffix(name, ".age") {
		return copyFile(fetchPath, destPath)
	}

	if r.encryptor == nil {
		return fmt.Errorf("snapshot %s is encrypted but no encryptor is configured", name)
	}
	decryption, err := r.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking identity: %w", err)
	}

	in, err := os.Open(fetchPath)
	if err != nil {
		return fmt.Errorf("opening downloaded snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating restore destination: %w", err)
	}
	defer out.Close()

	if err := decryption.Decrypt(in, out); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}

	r.logger.Info("snapshot restored", "name", name, "dest", destPath)
	return nil
}

// List returns the snapshot names available on the target, newest
// first.
func (r *Runner) List(ctx context.Context) ([]string, error) {
	return r.target.List(ctx)
}

func (r *Runner) encryptFile(srcPath, destPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot for encryption: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	defer out.Close()

	if err := r.encryptor.Encrypt(in, out); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return nil
}

func copyFile(srcPath, destPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating restore destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("writing restore destination: %w", err)
	}
	return nil
}
