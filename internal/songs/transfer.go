package songs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Arbasante/proyecto-easyworship/internal/models"
)

// WriteBundles encodes bundles as an indented JSON array.
func WriteBundles(w io.Writer, bundles []models.SongBundle) error {
	if bundles == nil {
		bundles = []models.SongBundle{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundles)
}

// ReadBundles decodes a JSON array of bundles. Every bundle must have a title.
func ReadBundles(r io.Reader) ([]models.SongBundle, error) {
	var bundles []models.SongBundle
	if err := json.NewDecoder(r).Decode(&bundles); err != nil {
		return nil, fmt.Errorf("invalid song file: %w", err)
	}
	for i, b := range bundles {
		if strings.TrimSpace(b.Title) == "" {
			return nil, fmt.Errorf("invalid song file: entry %d: %w", i+1, ErrInvalidTitle)
		}
		if bundles[i].Lyrics == nil {
			bundles[i].Lyrics = []string{}
		}
	}
	return bundles, nil
}

// WriteFile writes bundles to path, replacing any existing file.
func WriteFile(path string, bundles []models.SongBundle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBundles(f, bundles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads bundles from path.
func ReadFile(path string) ([]models.SongBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBundles(f)
}
