package settings

import (
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

// Keys used by the application.
const (
	// KeyProjectorStyle holds the last style payload pushed to the projector.
	KeyProjectorStyle = "projector.style"
)

// Settings provides thread-safe access to operator settings stored in the
// multimedia database.
type Settings struct {
	reg   *db.Registry
	cache map[string]string
	mu    sync.RWMutex
}

// New creates Settings backed by the multimedia store in reg and loads
// every stored value.
func New(reg *db.Registry) *Settings {
	s := &Settings{
		reg:   reg,
		cache: make(map[string]string),
	}
	s.loadAll()
	return s
}

// Get returns the value for the given key, or the fallback if not found.
func (s *Settings) Get(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.cache[key]; ok {
		return v
	}
	return fallback
}

// Set persists a key-value pair and updates the cache.
func (s *Settings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		_, err := conn.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		return err
	})
	if err != nil {
		return err
	}
	s.cache[key] = value
	return nil
}

// All returns a copy of every setting.
func (s *Settings) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

func (s *Settings) loadAll() {
	var rows []models.Setting
	err := s.reg.With(db.Multimedia, func(conn *sqlx.DB) error {
		return conn.Select(&rows, "SELECT key, value FROM settings")
	})
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.cache[r.Key] = r.Value
	}
}
