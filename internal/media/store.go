package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
	"github.com/Arbasante/proyecto-easyworship/internal/probe"
)

// Aspect modes for background images.
const (
	AspectContain = "contain"
	AspectCover   = "cover"
	AspectFill    = "fill"
)

var (
	// ErrInvalidAspect rejects aspect modes other than contain, cover and fill.
	ErrInvalidAspect = errors.New("aspect must be contain, cover or fill")
	// ErrInvalidPath rejects an empty file path.
	ErrInvalidPath = errors.New("path must not be empty")
)

// ValidAspect reports whether mode is a known aspect mode.
func ValidAspect(mode string) bool {
	switch mode {
	case AspectContain, AspectCover, AspectFill:
		return true
	}
	return false
}

// Prober reads playback metadata from a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.Result, error)
}

// Store is the repository for the image, video and PDF catalogs.
type Store struct {
	reg    *db.Registry
	prober Prober
}

// NewStore returns a Store using the multimedia database in reg. prober may
// be nil, in which case videos are stored without metadata.
func NewStore(reg *db.Registry, prober Prober) *Store {
	return &Store{reg: reg, prober: prober}
}

// ── Images ──────────────────────────────────────────────

// ListImages returns every image, newest first.
func (s *Store) ListImages(ctx context.Context) ([]models.Image, error) {
	return listRows[models.Image](ctx, s.reg, "list images",
		`SELECT id, name, path, COALESCE(aspect, 'contain') AS aspect FROM images ORDER BY id DESC`)
}

// AddImage catalogs an image with the default contain aspect.
func (s *Store) AddImage(ctx context.Context, name, path string) (int64, error) {
	name, path, err := normalise(name, path)
	if err != nil {
		return 0, err
	}
	return s.insert(ctx, "image",
		"INSERT INTO images (name, path, aspect) VALUES (?, ?, ?)", name, path, AspectContain)
}

// DeleteImage removes an image from the catalog.
func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	return s.exec(ctx, fmt.Sprintf("delete image %d", id), "DELETE FROM images WHERE id = ?", id)
}

// SetImageAspect changes how an image fills the projector.
func (s *Store) SetImageAspect(ctx context.Context, id int64, mode string) error {
	if !ValidAspect(mode) {
		return fmt.Errorf("%w: %q", ErrInvalidAspect, mode)
	}
	return s.exec(ctx, fmt.Sprintf("set aspect of image %d", id),
		"UPDATE images SET aspect = ? WHERE id = ?", mode, id)
}

// ── Videos ──────────────────────────────────────────────

// TargetLoudnessDB is the level videos are attenuated to on the projector.
const TargetLoudnessDB = -20.0

// ListVideos returns every video, newest first, with the playback gain that
// brings louder files down to TargetLoudnessDB.
func (s *Store) ListVideos(ctx context.Context) ([]models.Video, error) {
	videos, err := listRows[models.Video](ctx, s.reg, "list videos",
		`SELECT id, name, path,
		        COALESCE(loop_enabled, 0) AS loop_enabled,
		        COALESCE(duration_ms, 0) AS duration_ms,
		        COALESCE(loudness_db, 0) AS loudness_db
		 FROM videos ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].Gain = probe.Gain(videos[i].LoudnessDB, TargetLoudnessDB)
	}
	return videos, nil
}

// AddVideo catalogs a video with looping off. The file is probed before the
// store is locked; a failed probe leaves duration and loudness at zero.
func (s *Store) AddVideo(ctx context.Context, name, path string) (int64, error) {
	name, path, err := normalise(name, path)
	if err != nil {
		return 0, err
	}

	var meta probe.Result
	if s.prober != nil {
		meta, err = s.prober.Probe(ctx, path)
		if err != nil {
			slog.Warn("video probe failed", "path", path, "error", err)
		}
	}

	return s.insert(ctx, "video",
		"INSERT INTO videos (name, path, loop_enabled, duration_ms, loudness_db) VALUES (?, ?, 0, ?, ?)",
		name, path, meta.DurationMs, meta.LoudnessDB)
}

// DeleteVideo removes a video from the catalog.
func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	return s.exec(ctx, fmt.Sprintf("delete video %d", id), "DELETE FROM videos WHERE id = ?", id)
}

// SetVideoLoop turns looping on or off for a video.
func (s *Store) SetVideoLoop(ctx context.Context, id int64, enabled bool) error {
	return s.exec(ctx, fmt.Sprintf("set loop of video %d", id),
		"UPDATE videos SET loop_enabled = ? WHERE id = ?", enabled, id)
}

// ── PDFs ────────────────────────────────────────────────

// ListPDFs returns every document, newest first.
func (s *Store) ListPDFs(ctx context.Context) ([]models.PDF, error) {
	return listRows[models.PDF](ctx, s.reg, "list pdfs", `SELECT id, name, path FROM pdfs ORDER BY id DESC`)
}

// AddPDF catalogs a document.
func (s *Store) AddPDF(ctx context.Context, name, path string) (int64, error) {
	name, path, err := normalise(name, path)
	if err != nil {
		return 0, err
	}
	return s.insert(ctx, "pdf", "INSERT INTO pdfs (name, path) VALUES (?, ?)", name, path)
}

// DeletePDF removes a document from the catalog.
func (s *Store) DeletePDF(ctx context.Context, id int64) error {
	return s.exec(ctx, fmt.Sprintf("delete pdf %d", id), "DELETE FROM pdfs WHERE id = ?", id)
}

// ── Files ───────────────────────────────────────────────

// Catalog kinds, named after their tables.
const (
	KindImage = "images"
	KindVideo = "videos"
	KindPDF   = "pdfs"
)

// ErrUnknownKind rejects a catalog kind other than images, videos or pdfs.
var ErrUnknownKind = errors.New("unknown media kind")

// FilePath returns the stored path of a catalog entry so it can be served
// to the projector. A missing entry is db.ErrNotFound.
func (s *Store) FilePath(ctx context.Context, kind string, id int64) (string, error) {
	switch kind {
	case KindImage, KindVideo, KindPDF:
	default:
		return "", ErrUnknownKind
	}

	var path string
	err := s.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		// kind is one of the constants above.
		err := conn.GetContext(ctx, &path, "SELECT path FROM "+kind+" WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return db.ErrNotFound
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s %d path: %w", kind, id, err)
	}
	return path, nil
}

// ── Helpers ─────────────────────────────────────────────

func listRows[T any](ctx context.Context, reg *db.Registry, op, query string) ([]T, error) {
	var out []T
	err := reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		rows, err := conn.QueryxContext(ctx, query)
		if err != nil {
			return err
		}
		out, err = db.Collect[T](rows, reg.Policy())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Store) insert(ctx context.Context, kind, query string, args ...any) (int64, error) {
	var id int64
	err := s.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add %s: %w", kind, err)
	}
	slog.Info("media added", "kind", kind, "id", id)
	return id, nil
}

// exec runs a point update or delete, reporting db.ErrNotFound when no row
// matched.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	err := s.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return db.MustAffect(res)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// normalise trims the inputs and names an unnamed file after its base name.
func normalise(name, path string) (string, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", ErrInvalidPath
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name, path, nil
}
