// Package browser launches the operator UI in the user's default browser and
// the projector page as a chromeless app window. If launching fails
// (headless machine, no browser installed, etc.) the error is logged at
// debug level and the caller carries on.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ErrNoDisplay is returned when no graphical session is detected.
var ErrNoDisplay = errors.New("no display detected")

// Window describes an app window to open.
type Window struct {
	URL        string
	Width      int
	Height     int
	X, Y       int
	Fullscreen bool
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// start is swapped in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open attempts to launch the default browser at url.
// It returns immediately; failure is non-fatal.
func Open(url string) {
	if !hasDisplay() {
		slog.Debug("skipping browser open: no display detected")
		return
	}
	if err := open(url); err != nil {
		slog.Debug("could not open browser", "url", url, "error", err)
	}
}

// OpenWindow opens w in the first installed Chromium-family browser in app
// mode, so the page gets its own window without tabs or toolbars. Without
// such a browser it falls back to the default browser, where size and
// position are not honoured.
func OpenWindow(w Window) error {
	if !hasDisplay() {
		return ErrNoDisplay
	}
	for _, name := range appBrowsers() {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		if err := start(path, appArgs(w)...); err != nil {
			slog.Debug("app window launch failed", "browser", path, "error", err)
			continue
		}
		slog.Debug("app window launched", "browser", path, "url", w.URL)
		return nil
	}
	if err := open(w.URL); err != nil {
		return fmt.Errorf("open %s: %w", w.URL, err)
	}
	return nil
}

// appArgs are the Chromium flags for w.
func appArgs(w Window) []string {
	args := []string{"--app=" + w.URL, "--new-window"}
	if w.Width > 0 && w.Height > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", w.Width, w.Height))
	}
	if w.X != 0 || w.Y != 0 {
		args = append(args, fmt.Sprintf("--window-position=%d,%d", w.X, w.Y))
	}
	if w.Fullscreen {
		args = append(args, "--start-fullscreen")
	}
	return args
}
