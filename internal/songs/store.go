package songs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

// CustomCategory is assigned to songs typed in by the operator.
const CustomCategory = "Custom"

// ErrInvalidTitle rejects songs whose title is empty or whitespace.
var ErrInvalidTitle = errors.New("song title must not be empty")

// ImportResult counts what an import did.
type ImportResult struct {
	Created  int `json:"created"`
	Replaced int `json:"replaced"`
}

// Total is the number of bundles applied.
func (r ImportResult) Total() int { return r.Created + r.Replaced }

// Store is the repository for songs and their slides.
type Store struct {
	reg *db.Registry
}

// NewStore returns a Store using the song database in reg.
func NewStore(reg *db.Registry) *Store {
	return &Store{reg: reg}
}

const songColumns = `id, title, COALESCE(tone, '') AS tone, COALESCE(category, '') AS category`

// List returns every song ordered by title.
func (s *Store) List(ctx context.Context) ([]models.Song, error) {
	return s.query(ctx, "list songs",
		`SELECT `+songColumns+` FROM songs ORDER BY title COLLATE NOCASE, id`)
}

// Search returns songs whose title or any slide contains q, ordered by title.
// An empty query lists every song.
func (s *Store) Search(ctx context.Context, q string) ([]models.Song, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.List(ctx)
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.query(ctx, "search songs",
		`SELECT `+songColumns+` FROM songs
		 WHERE title LIKE ? ESCAPE '\'
		    OR id IN (SELECT song_id FROM slides WHERE body LIKE ? ESCAPE '\')
		 ORDER BY title COLLATE NOCASE, id`,
		pattern, pattern)
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]models.Song, error) {
	var out []models.Song
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = db.Collect[models.Song](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Slides returns the slides of a song ordered by position. An unknown song
// has no slides.
func (s *Store) Slides(ctx context.Context, songID int64) ([]models.Slide, error) {
	var out []models.Slide
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx,
			"SELECT id, position, body FROM slides WHERE song_id = ? ORDER BY position", songID)
		if err != nil {
			return err
		}
		out, err = db.Collect[models.Slide](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list slides of song %d: %w", songID, err)
	}
	return out, nil
}

// Create stores a new custom song and one slide per stanza of lyrics.
func (s *Store) Create(ctx context.Context, title, lyrics string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ErrInvalidTitle
	}
	stanzas := SplitLyrics(lyrics)

	var id int64
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		return db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO songs (title, tone, category) VALUES (?, '', ?)", title, CustomCategory)
			if err != nil {
				return err
			}
			if id, err = res.LastInsertId(); err != nil {
				return err
			}
			return insertSlides(ctx, tx, id, stanzas)
		})
	})
	if err != nil {
		return 0, fmt.Errorf("create song: %w", err)
	}
	slog.Info("song created", "id", id, "title", title, "slides", len(stanzas))
	return id, nil
}

// Update renames a song and replaces all of its slides with the stanzas of
// lyrics, atomically.
func (s *Store) Update(ctx context.Context, id int64, title, lyrics string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	stanzas := SplitLyrics(lyrics)

	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		return db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
			res, err := tx.ExecContext(ctx, "UPDATE songs SET title = ? WHERE id = ?", title, id)
			if err != nil {
				return err
			}
			if err := db.MustAffect(res); err != nil {
				return err
			}
			return replaceSlides(ctx, tx, id, stanzas)
		})
	})
	if err != nil {
		return fmt.Errorf("update song %d: %w", id, err)
	}
	slog.Info("song updated", "id", id, "slides", len(stanzas))
	return nil
}

// Delete removes a song and its slides.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		return db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
			// Slides first: the schema has no cascade.
			if _, err := tx.ExecContext(ctx, "DELETE FROM slides WHERE song_id = ?", id); err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
			if err != nil {
				return err
			}
			return db.MustAffect(res)
		})
	})
	if err != nil {
		return fmt.Errorf("delete song %d: %w", id, err)
	}
	slog.Info("song deleted", "id", id)
	return nil
}

// Export returns every song with its slide texts in order.
func (s *Store) Export(ctx context.Context) ([]models.SongBundle, error) {
	type slideRow struct {
		SongID int64  `db:"song_id"`
		Body   string `db:"body"`
	}

	var (
		songs  []models.Song
		slides []slideRow
	)
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, `SELECT `+songColumns+` FROM songs ORDER BY id`)
		if err != nil {
			return err
		}
		if songs, err = db.Collect[models.Song](rows, s.reg.Policy()); err != nil {
			return err
		}
		rows, err = conn.QueryxContext(ctx, "SELECT song_id, body FROM slides ORDER BY song_id, position")
		if err != nil {
			return err
		}
		slides, err = db.Collect[slideRow](rows, s.reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export songs: %w", err)
	}

	lyrics := make(map[int64][]string, len(songs))
	for _, sl := range slides {
		lyrics[sl.SongID] = append(lyrics[sl.SongID], sl.Body)
	}

	out := make([]models.SongBundle, 0, len(songs))
	for _, song := range songs {
		l := lyrics[song.ID]
		if l == nil {
			l = []string{}
		}
		out = append(out, models.SongBundle{
			Title:    song.Title,
			Tone:     song.Tone,
			Category: song.Category,
			Lyrics:   l,
		})
	}
	return out, nil
}

// Import applies bundles in one transaction. A bundle whose title exactly
// matches an existing song replaces that song's slides and keeps its id;
// any other bundle is inserted as a new song.
func (s *Store) Import(ctx context.Context, bundles []models.SongBundle) (ImportResult, error) {
	for i, b := range bundles {
		if strings.TrimSpace(b.Title) == "" {
			return ImportResult{}, fmt.Errorf("import songs: bundle %d: %w", i+1, ErrInvalidTitle)
		}
	}

	var result ImportResult
	err := s.reg.With(db.Songs, func(conn *sqlx.DB) error {
		result = ImportResult{}
		return db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
			for _, b := range bundles {
				stanzas := CleanStanzas(b.Lyrics)
				var id int64
				err := tx.GetContext(ctx, &id, "SELECT id FROM songs WHERE title = ? ORDER BY id LIMIT 1", b.Title)
				switch {
				case err == nil:
					if err := replaceSlides(ctx, tx, id, stanzas); err != nil {
						return err
					}
					result.Replaced++
				case errors.Is(err, sql.ErrNoRows):
					res, err := tx.ExecContext(ctx,
						"INSERT INTO songs (title, tone, category) VALUES (?, ?, ?)", b.Title, b.Tone, b.Category)
					if err != nil {
						return err
					}
					if id, err = res.LastInsertId(); err != nil {
						return err
					}
					if err := insertSlides(ctx, tx, id, stanzas); err != nil {
						return err
					}
					result.Created++
				default:
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import songs: %w", err)
	}
	slog.Info("songs imported", "created", result.Created, "replaced", result.Replaced)
	return result, nil
}

func replaceSlides(ctx context.Context, tx *sqlx.Tx, songID int64, stanzas []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM slides WHERE song_id = ?", songID); err != nil {
		return err
	}
	return insertSlides(ctx, tx, songID, stanzas)
}

func insertSlides(ctx context.Context, tx *sqlx.Tx, songID int64, stanzas []string) error {
	for i, body := range stanzas {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO slides (song_id, position, body) VALUES (?, ?, ?)", songID, i+1, body,
		); err != nil {
			return fmt.Errorf("insert slide %d: %w", i+1, err)
		}
	}
	return nil
}

// escapeLike escapes the LIKE wildcards in s for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
