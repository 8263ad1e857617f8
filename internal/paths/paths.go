// Package paths resolves where EasyPresenter keeps its writable databases and
// where the installer put the read-only seed files.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppDirName is the directory created under the platform data root.
const AppDirName = "easypresenter"

// ResourceDirName is the directory next to the executable holding seed databases.
const ResourceDirName = "resources"

// Environment variable names for directory overrides.
const (
	EnvDataDir     = "EASYPRESENTER_DATA_DIR"
	EnvResourceDir = "EASYPRESENTER_RESOURCE_DIR"
)

// ErrInvalidName is returned when a database name is not a plain file name.
var ErrInvalidName = errors.New("database name must be a plain file name")

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	executable    func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	executable:    os.Executable,
}

// DefaultDataDir returns the platform-specific per-user data directory.
//
// Linux:   $XDG_DATA_HOME/easypresenter (fallback ~/.local/share/easypresenter)
// macOS:   ~/Library/Application Support/easypresenter
// Windows: %APPDATA%/easypresenter
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows", "darwin":
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppDirName), nil
	}
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > EASYPRESENTER_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// DefaultResourceDir returns the resources directory shipped next to the
// running executable.
func DefaultResourceDir() (string, error) {
	exe, err := platformDir.executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), ResourceDirName), nil
}

// ResolveResourceDir returns the seed directory following the precedence
// chain: flag > EASYPRESENTER_RESOURCE_DIR env > DefaultResourceDir().
func ResolveResourceDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvResourceDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultResourceDir()
}

// DatabasePath returns the absolute writable path of the named database
// inside dataDir, creating dataDir and its parents when they are missing.
func DatabasePath(dataDir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create data directory %s: %w", abs, err)
	}
	return filepath.Join(abs, name), nil
}
