package projector

import (
	"context"
	"errors"
)

// ErrWindowGone is returned by window operations on a closed window.
var ErrWindowGone = errors.New("projector window is gone")

// Display is one monitor in virtual-desktop coordinates.
type Display struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSpec describes a window to open on a route of the local server.
type WindowSpec struct {
	Route  string
	Title  string
	Width  int
	Height int
}

// Window is a handle to a window opened by a Shell.
type Window interface {
	ID() string
	Alive() bool
	Focus() error
	Move(x, y int) error
	SetFullscreen(on bool) error
}

// Shell opens windows and reports the attached displays.
type Shell interface {
	Displays() []Display
	OpenWindow(ctx context.Context, spec WindowSpec) (Window, error)
}
