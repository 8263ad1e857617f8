package probe

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
)

// Cache stores probe results in the multimedia store, keyed by path and
// modification time so an edited file is probed again.
type Cache struct {
	reg   *db.Registry
	probe func(path string) (Result, error)
}

// NewCache creates a probe cache backed by the multimedia store in reg.
func NewCache(reg *db.Registry) *Cache {
	return &Cache{reg: reg, probe: File}
}

// Get returns the cached result for path at modTime.
func (c *Cache) Get(path string, modTime int64) (Result, bool) {
	var res Result
	err := c.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		return conn.Get(&res,
			`SELECT duration_ms, loudness_db, width, height, audio_codec
			 FROM media_probe WHERE path = ? AND mod_time = ?`,
			path, modTime)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("probe cache: lookup failed", "path", path, "error", err)
		}
		return Result{}, false
	}
	return res, true
}

// Set stores res for path at modTime.
func (c *Cache) Set(path string, modTime int64, res Result) error {
	return c.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		_, err := conn.Exec(
			`INSERT INTO media_probe (path, mod_time, duration_ms, loudness_db, width, height, audio_codec)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET
			   mod_time = excluded.mod_time,
			   duration_ms = excluded.duration_ms,
			   loudness_db = excluded.loudness_db,
			   width = excluded.width,
			   height = excluded.height,
			   audio_codec = excluded.audio_codec`,
			path, modTime, res.DurationMs, res.LoudnessDB, res.Width, res.Height, res.AudioCodec,
		)
		return err
	})
}

// Probe returns the result for path, from the cache when the file is
// unchanged. The store lock is never held while the file is decoded.
func (c *Cache) Probe(ctx context.Context, path string) (Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	modTime := st.ModTime().Unix()

	if res, ok := c.Get(path, modTime); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res, err := c.probe(path)
	if err != nil {
		return res, err
	}
	if err := c.Set(path, modTime, res); err != nil {
		slog.Warn("probe cache: store failed", "path", path, "error", err)
	}
	return res, nil
}

// Cleanup removes entries whose files no longer exist on disk.
func (c *Cache) Cleanup() {
	var paths []string
	err := c.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		return conn.Select(&paths, `SELECT path FROM media_probe`)
	})
	if err != nil {
		slog.Warn("probe cache cleanup: query failed", "error", err)
		return
	}

	var gone []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			gone = append(gone, p)
		}
	}
	if len(gone) == 0 {
		return
	}

	err = c.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		for _, p := range gone {
			if _, err := conn.Exec(`DELETE FROM media_probe WHERE path = ?`, p); err != nil {
				slog.Warn("probe cache cleanup: delete failed", "path", p, "error", err)
			}
		}
		return nil
	})
	if err == nil {
		slog.Info("probe cache cleanup", "removed", len(gone))
	}
}
