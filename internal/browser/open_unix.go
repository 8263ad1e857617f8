//go:build !windows && !darwin

package browser

import "os"

func open(url string) error {
	return start("xdg-open", url)
}

func appBrowsers() []string {
	return []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "microsoft-edge", "brave-browser"}
}

func hasDisplay() bool {
	// A graphical session sets $DISPLAY (X11) or $WAYLAND_DISPLAY.
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
