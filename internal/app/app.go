package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tc-go/internal/backup"
	"tc-go/internal/config"
	"tc-go/internal/database"
	"tc-go/internal/fs"
	"tc-go/internal/model"
	"tc-go/internal/tc"
)

// TCApp is the application layer between the CLI and the scan worker.
// It constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and manages the catalog
// lifecycle on Close.
type TCApp struct {
	cfg       *config.Config
	catalog   tc.Catalog
	fsmgr     tc.FilesystemManager
	modes     *tc.ModeTable
	worker    *tc.ScanWorker
	encryptor tc.Encryptor
	snapshots *backup.Runner
	logger    tc.Logger
	logFile   *os.File
}

// NewTCApp creates a fully wired TCApp from the given config.
// operation identifies the CLI command being run (e.g. "Scan", "Backup").
// The caller must call Close when done.
func NewTCApp(cfg *config.Config, operation string) (*TCApp, error) {
	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	catalog, err := database.NewCatalogFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	modes := tc.NewModeTable()
	if err := applyModeOverrides(modes, cfg.Modes); err != nil {
		catalog.Close()
		logFile.Close()
		return nil, fmt.Errorf("applying mode config: %w", err)
	}

	var encryptor tc.Encryptor
	if cfg.Backup.Encrypted() {
		encryptor = backup.NewAgeEncryptor(cfg.Backup)
	}

	target, err := backup.NewTargetFromConfig(context.Background(), cfg.Backup)
	if err != nil {
		catalog.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating backup target: %w", err)
	}

	var snapshots *backup.Runner
	if target != nil {
		snapshots = backup.NewRunner(catalog, target, encryptor, logger, tc.RealClock{})
	}

	fsmgr := fs.NewOSFilesystemManager()
	notifier := NewConsoleNotifier(os.Stdout)
	worker := tc.NewScanWorker(catalog, fsmgr, modes, notifier, logger, tc.RealClock{}, tc.UUIDGenerator{})

	return &TCApp{
		cfg:       cfg,
		catalog:   catalog,
		fsmgr:     fsmgr,
		modes:     modes,
		worker:    worker,
		encryptor: encryptor,
		snapshots: snapshots,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// applyModeOverrides replaces the built-in option sets for any mode the
// config names. An empty list for a configured mode means "scan
// nothing" for that mode.
func applyModeOverrides(modes *tc.ModeTable, cfg config.ModesConfig) error {
	set := func(mode tc.ScanMode, names []string) error {
		if names == nil {
			return nil
		}
		var opts tc.ScanOption
		for _, name := range names {
			opt, err := tc.ParseOption(name)
			if err != nil {
				return fmt.Errorf("mode %s: %w", mode, err)
			}
			opts |= opt
		}
		modes.Set(mode, opts)
		return nil
	}

	if err := set(tc.ModeStartup, cfg.Startup); err != nil {
		return err
	}
	if err := set(tc.ModeQuick, cfg.Quick); err != nil {
		return err
	}
	return set(tc.ModeExtended, cfg.Extended)
}

// SyncDisks upserts the configured disks into the catalog, keyed by
// (parent, name). Disks present in the catalog but absent from the
// config are left untouched.
func (a *TCApp) SyncDisks() error {
	idgen := tc.UUIDGenerator{}
	for _, dc := range a.cfg.Disks {
		existing, err := a.catalog.FindDiskByPath(dc.Parent, dc.Name)
		if err != nil {
			return fmt.Errorf("looking up disk %s: %w", filepath.Join(dc.Parent, dc.Name), err)
		}

		d := &model.Disk{
			Ord:      dc.Ord,
			Parent:   dc.Parent,
			Name:     dc.Name,
			Location: model.DiskLocation(dc.Location),
			Role:     model.DiskRole(dc.Role),
			Depth:    dc.Depth,
			Checked:  dc.Checked,
		}
		if existing != nil {
			d.ID = existing.ID
		} else {
			d.ID = idgen.New()
		}

		if err := a.catalog.UpsertDisk(d); err != nil {
			return fmt.Errorf("syncing disk %s: %w", filepath.Join(dc.Parent, dc.Name), err)
		}
	}
	return nil
}

// Scan runs a full scan pass in the named mode, then snapshots the
// catalog if a backup target is configured. Cancellation through ctx
// skips the snapshot.
func (a *TCApp) Scan(ctx context.Context, modeName string) error {
	mode, err := tc.ParseMode(modeName)
	if err != nil {
		return err
	}

	if err := a.worker.Scan(ctx, mode); err != nil {
		return err
	}

	if a.snapshots != nil && ctx.Err() == nil {
		if _, err := a.snapshots.Snapshot(ctx); err != nil {
			return fmt.Errorf("post-scan snapshot: %w", err)
		}
	}
	return nil
}

// RefreshFolders force-refreshes details for the folders at the given
// raw paths. Each path must lie below a catalogued disk root.
func (a *TCApp) RefreshFolders(ctx context.Context, rawPaths []string) error {
	disks, err := a.catalog.ListDisks()
	if err != nil {
		return fmt.Errorf("listing disks: %w", err)
	}

	refs := make([]tc.FolderRef, 0, len(rawPaths))
	for _, raw := range rawPaths {
		ref, err := resolveFolderRef(disks, raw)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	return a.worker.UpdateFolderDetails(ctx, refs)
}

// resolveFolderRef maps an absolute or relative path onto a catalogued
// disk and a disk-relative folder path.
func resolveFolderRef(disks []*model.Disk, rawPath string) (tc.FolderRef, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return tc.FolderRef{}, fmt.Errorf("resolving path %s: %w", rawPath, err)
	}

	for _, d := range disks {
		root := filepath.Join(d.Parent, d.Name)
		if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
			continue
		}
		rel := strings.TrimPrefix(abs, root+string(filepath.Separator))
		parent, name := filepath.Split(rel)
		parent = strings.TrimSuffix(parent, string(filepath.Separator))
		return tc.FolderRef{
			DiskParent:   d.Parent,
			DiskName:     d.Name,
			FolderParent: parent,
			FolderName:   name,
		}, nil
	}

	return tc.FolderRef{}, fmt.Errorf("path %s is not under any catalogued disk", abs)
}

// ListDisks returns all catalogued disks.
func (a *TCApp) ListDisks() ([]*model.Disk, error) {
	return a.catalog.ListDisks()
}

// ListFolders returns the folders of the disk rooted at rawPath, or of
// every disk when rawPath is empty.
func (a *TCApp) ListFolders(rawPath string) ([]*model.Folder, error) {
	disks, err := a.catalog.ListDisks()
	if err != nil {
		return nil, fmt.Errorf("listing disks: %w", err)
	}

	var folders []*model.Folder
	for _, d := range disks {
		if rawPath != "" {
			abs, err := filepath.Abs(rawPath)
			if err != nil {
				return nil, fmt.Errorf("resolving path %s: %w", rawPath, err)
			}
			if filepath.Join(d.Parent, d.Name) != abs {
				continue
			}
		}
		list, err := a.catalog.ListFoldersByDisk(d.ID)
		if err != nil {
			return nil, fmt.Errorf("listing folders of %s: %w", d.Name, err)
		}
		folders = append(folders, list...)
	}
	return folders, nil
}

// PruneAuthors removes authors no tutorial references. Returns the
// number deleted.
func (a *TCApp) PruneAuthors() (int, error) {
	return a.catalog.PruneAuthors()
}

// Encryptor returns the configured snapshot encryptor, or nil when
// encryption is disabled.
func (a *TCApp) Encryptor() tc.Encryptor {
	return a.encryptor
}

// Snapshots returns the snapshot runner, or an error when no backup
// target is configured.
func (a *TCApp) Snapshots() (*backup.Runner, error) {
	if a.snapshots == nil {
		return nil, fmt.Errorf("no backup target configured")
	}
	return a.snapshots, nil
}

// Close closes the catalog and the log file.
func (a *TCApp) Close() error {
	var firstErr error
	if err := a.catalog.Close(); err != nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
