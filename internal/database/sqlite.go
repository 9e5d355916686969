// Package database implements the catalog store on SQLite. Each
// exported method commits as its own unit of work; multi-step
// operations run inside a single transaction so partial failure never
// leaves orphaned rows.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tc-go/internal/database/migrations"
	"tc-go/internal/model"
	"tc-go/internal/tc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCatalog implements the tc.Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens a SQLite catalog and brings its schema to the
// latest version. path can be a file path or ":memory:" for an
// in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the catalog relies on. Exported for tools and tests that
// need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite ships with foreign keys off for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Disk operations

const diskColumns = "id, ord, parent, name, location, role, depth, checked, online, status"

func scanDisk(row interface{ Scan(...any) error }) (*model.Disk, error) {
	var d model.Disk
	err := row.Scan(&d.ID, &d.Ord, &d.Parent, &d.Name, &d.Location, &d.Role, &d.Depth, &d.Checked, &d.Online, &d.Status)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteCatalog) ListDisks() ([]*model.Disk, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+diskColumns+" FROM disk ORDER BY ord, parent, name")
	if err != nil {
		return nil, fmt.Errorf("listing disks: %w", err)
	}
	defer rows.Close()

	var disks []*model.Disk
	for rows.Next() {
		d, err := scanDisk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning disk: %w", err)
		}
		disks = append(disks, d)
	}
	return disks, rows.Err()
}

func (s *SQLiteCatalog) FindDiskByPath(parent, name string) (*model.Disk, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+diskColumns+" FROM disk WHERE parent = ? AND name = ?", parent, name)
	d, err := scanDisk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding disk by path: %w", err)
	}
	return d, nil
}

func (s *SQLiteCatalog) UpsertDisk(d *model.Disk) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO disk (id, ord, parent, name, location, role, depth, checked, online, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (parent, name) DO UPDATE SET
			ord = excluded.ord,
			location = excluded.location,
			role = excluded.role,
			depth = excluded.depth,
			checked = excluded.checked`,
		d.ID, d.Ord, d.Parent, d.Name, d.Location, d.Role, d.Depth, d.Checked, d.Online, d.Status)
	if err != nil {
		return fmt.Errorf("upserting disk: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) MarkDisksOffline() error {
	if _, err := s.db.ExecContext(context.Background(), "UPDATE disk SET online = 0"); err != nil {
		return fmt.Errorf("marking disks offline: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) SetDiskOnline(diskID string, online bool) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE disk SET online = ? WHERE id = ?", online, diskID)
	if err != nil {
		return fmt.Errorf("setting disk online: %w", err)
	}
	return nil
}

// DeleteDisk removes a disk and everything hanging off it in one
// transaction, children before parents.
func (s *SQLiteCatalog) DeleteDisk(diskID string) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFolderChildren(ctx, tx, "f.disk_id = ?", diskID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM folder WHERE disk_id = ?", diskID); err != nil {
		return fmt.Errorf("deleting folders: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM disk WHERE id = ?", diskID); err != nil {
		return fmt.Errorf("deleting disk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Folder operations

const folderColumns = "id, disk_id, parent, name, system_id, status, created_at, modified_at, size, checked, error"

func scanFolder(row interface{ Scan(...any) error }) (*model.Folder, error) {
	var f model.Folder
	var systemID sql.NullString
	var created, modified sql.NullTime
	err := row.Scan(&f.ID, &f.DiskID, &f.Parent, &f.Name, &systemID, &f.Status,
		&created, &modified, &f.Size, &f.Checked, &f.Error)
	if err != nil {
		return nil, err
	}
	f.SystemID = systemID.String
	f.Created = created.Time
	f.Modified = modified.Time
	return &f, nil
}

// nullString maps the empty string to NULL so the partial uniqueness
// on (disk_id, system_id) only applies to recorded identities.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLiteCatalog) MarkFoldersUnknown(diskID string) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE folder SET status = ? WHERE disk_id = ?", model.StatusUnknown, diskID)
	if err != nil {
		return fmt.Errorf("marking folders unknown: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) FindFolderBySystemID(diskID, systemID string) (*model.Folder, error) {
	if systemID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+folderColumns+" FROM folder WHERE disk_id = ? AND system_id = ?", diskID, systemID)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding folder by system id: %w", err)
	}
	return f, nil
}

func (s *SQLiteCatalog) FindFolderByPath(diskID, parent, name string) (*model.Folder, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+folderColumns+" FROM folder WHERE disk_id = ? AND parent = ? AND name = ?",
		diskID, parent, name)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding folder by path: %w", err)
	}
	return f, nil
}

func (s *SQLiteCatalog) InsertFolder(f *model.Folder) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO folder (id, disk_id, parent, name, system_id, status, created_at, modified_at, size, checked, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.DiskID, f.Parent, f.Name, nullString(f.SystemID), f.Status,
		f.Created, f.Modified, f.Size, f.Checked, f.Error)
	if err != nil {
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) UpdateFolderScan(f *model.Folder) error {
	_, err := s.db.ExecContext(context.Background(), `
		UPDATE folder SET parent = ?, name = ?, system_id = ?, status = ?, created_at = ?, modified_at = ?
		WHERE id = ?`,
		f.Parent, f.Name, nullString(f.SystemID), f.Status, f.Created, f.Modified, f.ID)
	if err != nil {
		return fmt.Errorf("updating folder scan state: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) UpdateFolderDetails(f *model.Folder) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE folder SET size = ?, error = ? WHERE id = ?", f.Size, f.Error, f.ID)
	if err != nil {
		return fmt.Errorf("updating folder details: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) ListFoldersByDisk(diskID string) ([]*model.Folder, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+folderColumns+" FROM folder WHERE disk_id = ? ORDER BY parent, name", diskID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	var folders []*model.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteUnknownFolders removes every folder of the disk still at status
// unknown, cascading through tutorials, covers and images first.
func (s *SQLiteCatalog) DeleteUnknownFolders(diskID string) (int, error) {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	cond := "f.disk_id = ? AND f.status = 'unknown'"
	if err := deleteFolderChildren(ctx, tx, cond, diskID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM folder WHERE disk_id = ? AND status = 'unknown'", diskID)
	if err != nil {
		return 0, fmt.Errorf("deleting folders: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted folders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return int(deleted), nil
}

// deleteFolderChildren removes everything owned by the folders matching
// cond (a WHERE fragment over alias f), in dependency order. It must
// run before the folder rows themselves are deleted.
func deleteFolderChildren(ctx context.Context, tx *sql.Tx, cond string, args ...any) error {
	folderSet := "(SELECT f.id FROM folder f WHERE " + cond + ")"
	tutorialSet := "(SELECT t.id FROM tutorial t WHERE t.folder_id IN " + folderSet + ")"

	steps := []struct {
		name string
		stmt string
	}{
		{"tutorial author links", "DELETE FROM tutorial_author WHERE tutorial_id IN " + tutorialSet},
		{"tutorial tag links", "DELETE FROM tutorial_tag WHERE tutorial_id IN " + tutorialSet},
		{"tutorial learning path links", "DELETE FROM tutorial_learning_path WHERE tutorial_id IN " + tutorialSet},
		{"tutorials", "DELETE FROM tutorial WHERE folder_id IN " + folderSet},
		{"covers", "DELETE FROM cover WHERE folder_id IN " + folderSet},
		{"images", "DELETE FROM image WHERE folder_id IN " + folderSet},
	}

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.stmt, args...); err != nil {
			return fmt.Errorf("deleting %s: %w", step.name, err)
		}
	}
	return nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteCatalog) Path() string {
	return s.path
}

// BackupTo creates a complete copy of the catalog at destPath using
// VACUUM INTO.
func (s *SQLiteCatalog) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up catalog: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteCatalog) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteCatalog implements tc.Catalog
var _ tc.Catalog = (*SQLiteCatalog)(nil)
