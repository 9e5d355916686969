package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tc-go/internal/descriptor"
	"tc-go/internal/model"
)

// ApplyTutorial replaces a folder's tutorial metadata with the parsed
// descriptor in one transaction. Publisher, author, tag and
// learning-path rows are looked up or created lazily; author/tag/path
// link sets are replaced outright, so removed names are unlinked but
// their lookup rows survive (author cleanup is a separate operation).
func (s *SQLiteCatalog) ApplyTutorial(folderID string, d *descriptor.Data) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	publisherID, err := getOrCreatePublisher(ctx, tx, d.Publisher)
	if err != nil {
		return err
	}

	tutorialID, err := upsertTutorial(ctx, tx, folderID, publisherID, d)
	if err != nil {
		return err
	}

	if err := replaceAuthorLinks(ctx, tx, tutorialID, d.Authors); err != nil {
		return err
	}
	if err := replaceTagLinks(ctx, tx, tutorialID, d); err != nil {
		return err
	}
	if err := replacePathLinks(ctx, tx, tutorialID, d.LearningPaths); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// upsertTutorial writes the tutorial row itself, including the rebuilt
// aggregate strings, and returns its id.
func upsertTutorial(ctx context.Context, tx *sql.Tx, folderID, publisherID string, d *descriptor.Data) (string, error) {
	var tutorialID string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM tutorial WHERE folder_id = ?", folderID).Scan(&tutorialID)
	if errors.Is(err, sql.ErrNoRows) {
		tutorialID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tutorial (id, folder_id, title, publisher_id, released, duration, level, rating,
				url, complete, online, todo, progress, description, all_authors, all_tags, all_paths)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tutorialID, folderID, d.Title, publisherID, d.Released, d.Duration, int(d.Level), d.Rating,
			d.URL, d.Complete, d.Online, d.Todo, d.Progress, d.Description,
			d.AllAuthors(), d.AllTags(), d.AllPaths())
		if err != nil {
			return "", fmt.Errorf("inserting tutorial: %w", err)
		}
		return tutorialID, nil
	}
	if err != nil {
		return "", fmt.Errorf("finding tutorial: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tutorial SET title = ?, publisher_id = ?, released = ?, duration = ?, level = ?, rating = ?,
			url = ?, complete = ?, online = ?, todo = ?, progress = ?, description = ?,
			all_authors = ?, all_tags = ?, all_paths = ?
		WHERE id = ?`,
		d.Title, publisherID, d.Released, d.Duration, int(d.Level), d.Rating,
		d.URL, d.Complete, d.Online, d.Todo, d.Progress, d.Description,
		d.AllAuthors(), d.AllTags(), d.AllPaths(), tutorialID)
	if err != nil {
		return "", fmt.Errorf("updating tutorial: %w", err)
	}
	return tutorialID, nil
}

func replaceAuthorLinks(ctx context.Context, tx *sql.Tx, tutorialID string, names []string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tutorial_author WHERE tutorial_id = ?", tutorialID); err != nil {
		return fmt.Errorf("clearing author links: %w", err)
	}
	for _, name := range names {
		authorID, err := getOrCreateByName(ctx, tx, "author", name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO tutorial_author (tutorial_id, author_id) VALUES (?, ?)",
			tutorialID, authorID)
		if err != nil {
			return fmt.Errorf("linking author %q: %w", name, err)
		}
	}
	return nil
}

func replaceTagLinks(ctx context.Context, tx *sql.Tx, tutorialID string, d *descriptor.Data) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tutorial_tag WHERE tutorial_id = ?", tutorialID); err != nil {
		return fmt.Errorf("clearing tag links: %w", err)
	}

	link := func(names []string, source string) error {
		for _, name := range names {
			tagID, err := getOrCreateTag(ctx, tx, name, source)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO tutorial_tag (tutorial_id, tag_id) VALUES (?, ?)",
				tutorialID, tagID)
			if err != nil {
				return fmt.Errorf("linking tag %q: %w", name, err)
			}
		}
		return nil
	}

	if err := link(d.PublisherTags, model.TagSourcePublisher); err != nil {
		return err
	}
	return link(d.PersonalTags, model.TagSourcePersonal)
}

func replacePathLinks(ctx context.Context, tx *sql.Tx, tutorialID string, paths []descriptor.PathRef) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tutorial_learning_path WHERE tutorial_id = ?", tutorialID); err != nil {
		return fmt.Errorf("clearing learning path links: %w", err)
	}
	for _, p := range paths {
		publisherID, err := getOrCreatePublisher(ctx, tx, p.Publisher)
		if err != nil {
			return err
		}
		pathID, err := getOrCreateLearningPath(ctx, tx, publisherID, p.Name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tutorial_learning_path (tutorial_id, learning_path_id, position)
			VALUES (?, ?, ?)
			ON CONFLICT (tutorial_id, learning_path_id) DO UPDATE SET position = excluded.position`,
			tutorialID, pathID, p.Position)
		if err != nil {
			return fmt.Errorf("linking learning path %q: %w", p.Name, err)
		}
	}
	return nil
}

// Lookup-or-create helpers. All run inside the caller's transaction.

// getOrCreateByName serves the single-column lookup tables (author,
// publisher). The empty name is a valid identity for publishers,
// meaning "unspecified".
func getOrCreateByName(ctx context.Context, tx *sql.Tx, table, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM "+table+" WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("finding %s %q: %w", table, name, err)
	}

	id = uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+" (id, name) VALUES (?, ?)", id, name); err != nil {
		return "", fmt.Errorf("creating %s %q: %w", table, name, err)
	}
	return id, nil
}

func getOrCreatePublisher(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	return getOrCreateByName(ctx, tx, "publisher", name)
}

// getOrCreateTag is keyed by (name, source): the same text can exist
// independently as a publisher tag and a personal tag.
func getOrCreateTag(ctx context.Context, tx *sql.Tx, name, source string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM tag WHERE name = ? AND source = ?", name, source).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("finding tag %q/%s: %w", name, source, err)
	}

	id = uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tag (id, name, source) VALUES (?, ?, ?)", id, name, source); err != nil {
		return "", fmt.Errorf("creating tag %q/%s: %w", name, source, err)
	}
	return id, nil
}

func getOrCreateLearningPath(ctx context.Context, tx *sql.Tx, publisherID, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM learning_path WHERE publisher_id = ? AND name = ?", publisherID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("finding learning path %q: %w", name, err)
	}

	id = uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO learning_path (id, publisher_id, name) VALUES (?, ?, ?)", id, publisherID, name); err != nil {
		return "", fmt.Errorf("creating learning path %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteCatalog) FindTutorialByFolder(folderID string) (*model.Tutorial, error) {
	var t model.Tutorial
	var publisherID sql.NullString
	err := s.db.QueryRowContext(context.Background(), `
		SELECT id, folder_id, title, publisher_id, released, duration, level, rating, url,
			complete, online, todo, progress, description, all_authors, all_tags, all_paths
		FROM tutorial WHERE folder_id = ?`, folderID).Scan(
		&t.ID, &t.FolderID, &t.Title, &publisherID, &t.Released, &t.Duration, &t.Level, &t.Rating, &t.URL,
		&t.Complete, &t.Online, &t.Todo, &t.Progress, &t.Description, &t.AllAuthors, &t.AllTags, &t.AllPaths)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding tutorial: %w", err)
	}
	t.PublisherID = publisherID.String
	return &t, nil
}

// PruneAuthors deletes authors no tutorial references anymore.
func (s *SQLiteCatalog) PruneAuthors() (int, error) {
	res, err := s.db.ExecContext(context.Background(),
		"DELETE FROM author WHERE id NOT IN (SELECT DISTINCT author_id FROM tutorial_author)")
	if err != nil {
		return 0, fmt.Errorf("pruning authors: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned authors: %w", err)
	}
	return int(deleted), nil
}
