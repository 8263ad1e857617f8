package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arbasante/proyecto-easyworship/internal/browser"
	"github.com/Arbasante/proyecto-easyworship/internal/sse"
)

// Default geometry for displays declared in configuration.
const (
	DefaultDisplayWidth  = 1920
	DefaultDisplayHeight = 1080

	// LaunchGrace is how long a freshly launched window counts as alive
	// before its page has connected.
	LaunchGrace = 15 * time.Second
)

// control is a window-control message for the projector page.
type control struct {
	Action string `json:"action"` // focus, move or fullscreen
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	On     bool   `json:"on,omitempty"`
}

// BrowserShell opens windows as browser app windows pointed at the local
// server. A window is alive while its page holds an SSE connection; control
// messages sent before the page connects are queued and delivered on
// connect.
type BrowserShell struct {
	baseURL  string
	hub      *sse.Hub
	displays []Display
	grace    time.Duration
	launch   func(browser.Window) error
	now      func() time.Time

	mu      sync.Mutex
	pending map[string][]control
}

// NewBrowserShell creates a shell for the server at baseURL with n side by
// side displays.
func NewBrowserShell(baseURL string, hub *sse.Hub, n int) *BrowserShell {
	if n < 1 {
		n = 1
	}
	displays := make([]Display, n)
	for i := range displays {
		displays[i] = Display{
			Index:  i,
			X:      i * DefaultDisplayWidth,
			Width:  DefaultDisplayWidth,
			Height: DefaultDisplayHeight,
		}
	}

	s := &BrowserShell{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hub:      hub,
		displays: displays,
		grace:    LaunchGrace,
		launch:   browser.OpenWindow,
		now:      time.Now,
		pending:  make(map[string][]control),
	}
	hub.OnRegister(s.flush)
	return s
}

// Displays returns the configured displays.
func (s *BrowserShell) Displays() []Display {
	out := make([]Display, len(s.displays))
	copy(out, s.displays)
	return out
}

// OpenWindow launches a browser window on spec.Route.
func (s *BrowserShell) OpenWindow(ctx context.Context, spec WindowSpec) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	u := s.baseURL + spec.Route + "?window=" + url.QueryEscape(id)

	if err := s.launch(browser.Window{URL: u, Width: spec.Width, Height: spec.Height}); err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Route, err)
	}
	slog.Debug("browser window launched", "window", id, "url", u)
	return &browserWindow{id: id, shell: s, opened: s.now()}, nil
}

// send delivers c to the window's pages or queues it until one connects.
func (s *BrowserShell) send(id string, c control) {
	data, _ := json.Marshal(c)
	if s.hub.SendToWindow(id, EventWindowControl, data) > 0 {
		return
	}
	s.mu.Lock()
	s.pending[id] = append(s.pending[id], c)
	s.mu.Unlock()
}

// flush delivers queued controls to a page that just connected.
func (s *BrowserShell) flush(c *sse.Client) {
	if c.WindowID == "" {
		return
	}
	s.mu.Lock()
	queued := s.pending[c.WindowID]
	delete(s.pending, c.WindowID)
	s.mu.Unlock()

	for _, ctl := range queued {
		data, _ := json.Marshal(ctl)
		s.hub.Send(c, EventWindowControl, data)
	}
}

type browserWindow struct {
	id     string
	shell  *BrowserShell
	opened time.Time
}

func (w *browserWindow) ID() string { return w.id }

func (w *browserWindow) Alive() bool {
	if w.shell.hub.WindowConnected(w.id) {
		return true
	}
	return w.shell.now().Sub(w.opened) < w.shell.grace
}

func (w *browserWindow) Focus() error {
	if !w.Alive() {
		return ErrWindowGone
	}
	w.shell.send(w.id, control{Action: "focus"})
	return nil
}

func (w *browserWindow) Move(x, y int) error {
	if !w.Alive() {
		return ErrWindowGone
	}
	w.shell.send(w.id, control{Action: "move", X: x, Y: y})
	return nil
}

func (w *browserWindow) SetFullscreen(on bool) error {
	if !w.Alive() {
		return ErrWindowGone
	}
	w.shell.send(w.id, control{Action: "fullscreen", On: on})
	return nil
}
