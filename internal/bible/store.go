package bible

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

// Store reads the bundled bible database. It never writes.
type Store struct {
	reg *db.Registry
}

// NewStore returns a Store using the bible database in reg.
func NewStore(reg *db.Registry) *Store {
	return &Store{reg: reg}
}

// Versions returns the names of every installed translation.
func (s *Store) Versions(ctx context.Context) ([]string, error) {
	var out []string
	err := s.reg.With(db.Bible, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, "SELECT name FROM bible_versions ORDER BY id")
		if err != nil {
			return err
		}
		out, err = db.Collect[string](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list bible versions: %w", err)
	}
	return out, nil
}

// Books returns the books of version in canonical order, each with its
// highest chapter number. An unknown version has no books.
func (s *Store) Books(ctx context.Context, version string) ([]models.Book, error) {
	var out []models.Book
	err := s.reg.With(db.Bible, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, `
			SELECT v.book_name AS name, MAX(v.chapter) AS chapters
			FROM bible_verses v
			JOIN bible_versions ver ON v.version_id = ver.id
			WHERE ver.name = ?
			GROUP BY v.book_name
			ORDER BY MIN(v.book_number)`, version)
		if err != nil {
			return err
		}
		out, err = db.Collect[models.Book](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list books of %s: %w", version, err)
	}
	return out, nil
}

const verseColumns = `v.book_name AS book, v.chapter AS chapter, v.verse AS verse, v.body AS text`

// ChapterVerses returns every verse of one chapter ordered by verse number.
func (s *Store) ChapterVerses(ctx context.Context, version, book string, chapter int) ([]models.Verse, error) {
	var out []models.Verse
	err := s.reg.With(db.Bible, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, `
			SELECT `+verseColumns+`
			FROM bible_verses v
			JOIN bible_versions ver ON v.version_id = ver.id
			WHERE ver.name = ? AND v.book_name = ? AND v.chapter = ?
			ORDER BY v.verse`, version, book, chapter)
		if err != nil {
			return err
		}
		out, err = db.Collect[models.Verse](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %s %s %d: %w", version, book, chapter, err)
	}
	return out, nil
}

// Verse returns a single verse, or nil when it does not exist.
func (s *Store) Verse(ctx context.Context, version, book string, chapter, verse int) (*models.Verse, error) {
	var v models.Verse
	err := s.reg.With(db.Bible, func(conn *sqlx.DB) error {
		return conn.GetContext(ctx, &v, `
			SELECT `+verseColumns+`
			FROM bible_verses v
			JOIN bible_versions ver ON v.version_id = ver.id
			WHERE ver.name = ? AND v.book_name = ? AND v.chapter = ? AND v.verse = ?
			LIMIT 1`, version, book, chapter, verse)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s %d:%d: %w", version, book, chapter, verse, err)
	}
	return &v, nil
}
