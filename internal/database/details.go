package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tc-go/internal/model"
)

// Cover operations

const coverColumns = "id, folder_id, format, system_id, created_at, modified_at, size, data"

func scanCover(row interface{ Scan(...any) error }) (*model.Cover, error) {
	var c model.Cover
	var created, modified sql.NullTime
	err := row.Scan(&c.ID, &c.FolderID, &c.Format, &c.SystemID, &created, &modified, &c.Size, &c.Data)
	if err != nil {
		return nil, err
	}
	c.Created = created.Time
	c.Modified = modified.Time
	return &c, nil
}

func (s *SQLiteCatalog) FindCoverByFolder(folderID string) (*model.Cover, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+coverColumns+" FROM cover WHERE folder_id = ?", folderID)
	c, err := scanCover(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding cover: %w", err)
	}
	return c, nil
}

// SaveCover inserts the cover or refreshes the existing row for the
// folder; the row id is stable across refreshes.
func (s *SQLiteCatalog) SaveCover(c *model.Cover) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO cover (id, folder_id, format, system_id, created_at, modified_at, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (folder_id) DO UPDATE SET
			format = excluded.format,
			system_id = excluded.system_id,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at,
			size = excluded.size,
			data = excluded.data`,
		c.ID, c.FolderID, c.Format, c.SystemID, c.Created, c.Modified, c.Size, c.Data)
	if err != nil {
		return fmt.Errorf("saving cover: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) DeleteCoverByFolder(folderID string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM cover WHERE folder_id = ?", folderID)
	if err != nil {
		return fmt.Errorf("deleting cover: %w", err)
	}
	return nil
}

// Image operations

const imageColumns = "id, folder_id, name, system_id, created_at, modified_at, size, data"

func scanImage(row interface{ Scan(...any) error }) (*model.Image, error) {
	var img model.Image
	var created, modified sql.NullTime
	err := row.Scan(&img.ID, &img.FolderID, &img.Name, &img.SystemID, &created, &modified, &img.Size, &img.Data)
	if err != nil {
		return nil, err
	}
	img.Created = created.Time
	img.Modified = modified.Time
	return &img, nil
}

func (s *SQLiteCatalog) ListImagesByFolder(folderID string) ([]*model.Image, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+imageColumns+" FROM image WHERE folder_id = ? ORDER BY name", folderID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// SaveImage inserts the image or refreshes the row keyed by
// (folder, filename).
func (s *SQLiteCatalog) SaveImage(img *model.Image) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO image (id, folder_id, name, system_id, created_at, modified_at, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (folder_id, name) DO UPDATE SET
			system_id = excluded.system_id,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at,
			size = excluded.size,
			data = excluded.data`,
		img.ID, img.FolderID, img.Name, img.SystemID, img.Created, img.Modified, img.Size, img.Data)
	if err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) DeleteImage(imageID string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM image WHERE id = ?", imageID)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}
