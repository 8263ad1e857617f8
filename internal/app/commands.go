// Package app bundles the stores, the projector bridge and the file picker
// into the command surface used by the HTTP API and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Arbasante/proyecto-easyworship/internal/bible"
	"github.com/Arbasante/proyecto-easyworship/internal/dialog"
	"github.com/Arbasante/proyecto-easyworship/internal/media"
	"github.com/Arbasante/proyecto-easyworship/internal/projector"
	"github.com/Arbasante/proyecto-easyworship/internal/settings"
	"github.com/Arbasante/proyecto-easyworship/internal/songs"
)

// Cancelled is the message returned when the user dismisses a dialog.
const Cancelled = "Cancelled"

// DefaultExportName is the file name suggested by the export dialog.
const DefaultExportName = "songs.json"

// ErrNoPicker is returned by dialog commands when no picker is configured.
var ErrNoPicker = errors.New("file dialogs are not available")

// Commands exposes every operation of the application. Projector, Picker
// and Settings may be nil, in which case the corresponding commands are
// no-ops or fail with ErrNoPicker.
type Commands struct {
	Songs     *songs.Store
	Bible     *bible.Store
	Media     *media.Store
	Projector *projector.Bridge
	Picker    dialog.Picker
	Settings  *settings.Settings
}

// Preferences returns the persisted operator settings.
func (c *Commands) Preferences() map[string]string {
	if c.Settings == nil {
		return map[string]string{}
	}
	return c.Settings.All()
}

// PickVideo asks the user for a video file.
func (c *Commands) PickVideo(ctx context.Context) (string, bool, error) {
	return c.pick(ctx, dialog.Videos)
}

// PickPDF asks the user for a PDF document.
func (c *Commands) PickPDF(ctx context.Context) (string, bool, error) {
	return c.pick(ctx, dialog.PDF)
}

// PickImage asks the user for a background image.
func (c *Commands) PickImage(ctx context.Context) (string, bool, error) {
	return c.pick(ctx, dialog.Images)
}

func (c *Commands) pick(ctx context.Context, f dialog.Filter) (string, bool, error) {
	if c.Picker == nil {
		return "", false, ErrNoPicker
	}
	path, ok, err := c.Picker.PickFile(ctx, f)
	if err != nil {
		return "", false, fmt.Errorf("pick %s: %w", f.Name, err)
	}
	return path, ok, nil
}

// ExportSongs asks where to save the song library and writes it there.
// It returns a status message for the operator, or Cancelled.
func (c *Commands) ExportSongs(ctx context.Context) (string, error) {
	if c.Picker == nil {
		return "", ErrNoPicker
	}
	path, ok, err := c.Picker.SaveFile(ctx, dialog.JSON, DefaultExportName)
	if err != nil {
		return "", fmt.Errorf("export dialog: %w", err)
	}
	if !ok {
		return Cancelled, nil
	}

	n, err := c.ExportFile(ctx, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Exported %d songs to:\n%s", n, path), nil
}

// ImportSongs asks for a bundle file and merges it into the song library.
// It returns a status message for the operator, or Cancelled.
func (c *Commands) ImportSongs(ctx context.Context) (string, error) {
	if c.Picker == nil {
		return "", ErrNoPicker
	}
	path, ok, err := c.Picker.PickFile(ctx, dialog.JSON)
	if err != nil {
		return "", fmt.Errorf("import dialog: %w", err)
	}
	if !ok {
		return Cancelled, nil
	}

	res, err := c.ImportFile(ctx, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Imported %d songs.", res.Total()), nil
}

// ExportFile writes every song to path and returns how many were written.
func (c *Commands) ExportFile(ctx context.Context, path string) (int, error) {
	bundles, err := c.Songs.Export(ctx)
	if err != nil {
		return 0, err
	}
	if err := songs.WriteFile(path, bundles); err != nil {
		return 0, err
	}
	slog.Info("songs exported", "path", path, "count", len(bundles))
	return len(bundles), nil
}

// ImportFile merges the bundles in path into the library and tells every
// connected UI to reload its song list.
func (c *Commands) ImportFile(ctx context.Context, path string) (songs.ImportResult, error) {
	bundles, err := songs.ReadFile(path)
	if err != nil {
		return songs.ImportResult{}, err
	}
	res, err := c.Songs.Import(ctx, bundles)
	if err != nil {
		return songs.ImportResult{}, err
	}
	slog.Info("songs imported", "path", path, "created", res.Created, "replaced", res.Replaced)

	if c.Projector != nil {
		c.Projector.NotifySongsChanged()
	}
	return res, nil
}
