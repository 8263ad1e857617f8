// Package dialog shows native file pickers by shelling out to the desktop's
// own dialog tool: zenity on Linux and BSD, osascript on macOS and
// PowerShell on Windows.
package dialog

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// ErrUnavailable is returned when the platform dialog tool is missing.
var ErrUnavailable = errors.New("file dialog tool not available")

// Filter restricts a dialog to files with the given extensions.
type Filter struct {
	Name       string
	Extensions []string // without the leading dot
}

// Filters offered by the application.
var (
	Videos = Filter{Name: "Videos", Extensions: []string{"mp4", "webm", "mkv", "mov", "avi"}}
	PDF    = Filter{Name: "PDF", Extensions: []string{"pdf"}}
	Images = Filter{Name: "Images", Extensions: []string{"png", "jpg", "jpeg", "webp", "gif"}}
	JSON   = Filter{Name: "JSON", Extensions: []string{"json"}}
)

// Picker shows file dialogs. A dismissed dialog returns ok=false and a nil
// error.
type Picker interface {
	PickFile(ctx context.Context, f Filter) (path string, ok bool, err error)
	SaveFile(ctx context.Context, f Filter, suggested string) (path string, ok bool, err error)
}

// result is the outcome of a dialog process that ran.
type result struct {
	stdout string
	stderr string
	code   int
}

// runFunc runs a dialog tool. The error is non-nil only when the process
// could not run at all.
type runFunc func(ctx context.Context, name string, args ...string) (result, error)

func execRun(ctx context.Context, name string, args ...string) (result, error) {
	if _, err := exec.LookPath(name); err != nil {
		return result{}, ErrUnavailable
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.code = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// firstLine returns the trimmed first line of s.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
