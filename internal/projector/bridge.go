// Package projector owns the projector window and pushes display events to
// it over the SSE hub.
package projector

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Arbasante/proyecto-easyworship/internal/settings"
	"github.com/Arbasante/proyecto-easyworship/internal/sse"
)

// Event names understood by the projector and operator pages.
const (
	EventProjection    = "update-projection"
	EventStyles        = "update-styles"
	EventVideoControl  = "video-control"
	EventReloadSongs   = "reload-songs"
	EventWindowControl = "window-control"
)

// Projector window geometry.
const (
	Route  = "/projector"
	Title  = "Projector"
	Width  = 800
	Height = 600
)

// Video control actions.
const (
	VideoPlay    = "play"
	VideoPause   = "pause"
	VideoRestart = "restart"
)

// ValidVideoAction reports whether action is a known video control.
func ValidVideoAction(action string) bool {
	switch action {
	case VideoPlay, VideoPause, VideoRestart:
		return true
	}
	return false
}

// KeyValueStore persists the last style.
type KeyValueStore interface {
	Get(key, fallback string) string
	Set(key, value string) error
}

// Bridge is the only owner of the projector window handle.
type Bridge struct {
	shell Shell
	hub   *sse.Hub
	store KeyValueStore

	openMu sync.Mutex // serialises Open

	mu        sync.Mutex
	win       Window
	lastVerse json.RawMessage
	lastStyle json.RawMessage
}

// New creates a bridge. store may be nil. The bridge replays the last
// verse and style to every projector page that connects to hub.
func New(shell Shell, hub *sse.Hub, store KeyValueStore) *Bridge {
	b := &Bridge{shell: shell, hub: hub, store: store}
	if store != nil {
		if s := store.Get(settings.KeyProjectorStyle, ""); s != "" && json.Valid([]byte(s)) {
			b.lastStyle = json.RawMessage(s)
		}
	}
	hub.OnRegister(b.replay)
	return b
}

// Open shows the projector window, creating it on first use. A second
// display, when present, gets the window moved onto it in fullscreen.
// Concurrent calls create at most one window. Failures are logged.
func (b *Bridge) Open(ctx context.Context) {
	b.openMu.Lock()
	defer b.openMu.Unlock()

	if w := b.window(); w != nil {
		if err := w.Focus(); err != nil {
			slog.Warn("projector focus failed", "window", w.ID(), "error", err)
		}
		return
	}

	w, err := b.shell.OpenWindow(ctx, WindowSpec{Route: Route, Title: Title, Width: Width, Height: Height})
	if err != nil {
		slog.Warn("projector window could not be opened", "error", err)
		return
	}

	if displays := b.shell.Displays(); len(displays) > 1 {
		d := displays[1]
		if err := w.Move(d.X, d.Y); err != nil {
			slog.Warn("projector move failed", "display", d.Index, "error", err)
		}
		if err := w.SetFullscreen(true); err != nil {
			slog.Warn("projector fullscreen failed", "error", err)
		}
	}

	b.mu.Lock()
	b.win = w
	b.mu.Unlock()
	slog.Info("projector window opened", "window", w.ID())
}

// IsOpen reports whether a live projector window exists.
func (b *Bridge) IsOpen() bool {
	return b.window() != nil
}

// window returns the live handle, forgetting a dead one.
func (b *Bridge) window() Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.win != nil && !b.win.Alive() {
		slog.Info("projector window closed", "window", b.win.ID())
		b.win = nil
	}
	return b.win
}

// PushVerse sends content to display. Without a projector it does nothing.
func (b *Bridge) PushVerse(payload json.RawMessage) {
	payload = compact(payload)
	if !b.push(EventProjection, payload) {
		return
	}
	b.mu.Lock()
	b.lastVerse = payload
	b.mu.Unlock()
}

// PushStyle sends style settings. Without a projector it does nothing.
func (b *Bridge) PushStyle(payload json.RawMessage) {
	payload = compact(payload)
	if !b.push(EventStyles, payload) {
		return
	}
	b.mu.Lock()
	b.lastStyle = payload
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.Set(settings.KeyProjectorStyle, string(payload)); err != nil {
			slog.Warn("could not persist projector style", "error", err)
		}
	}
}

// PushVideoControl sends a playback action. Without a projector it does
// nothing.
func (b *Bridge) PushVideoControl(action string) {
	data, _ := json.Marshal(action)
	b.push(EventVideoControl, data)
}

// NotifySongsChanged tells every page to reload the song list.
func (b *Bridge) NotifySongsChanged() {
	b.hub.Broadcast(EventReloadSongs, []byte("null"))
}

func (b *Bridge) push(event string, payload json.RawMessage) bool {
	if b.window() == nil {
		slog.Debug("no projector window, dropping event", "event", event)
		return false
	}
	b.hub.Broadcast(event, payload)
	return true
}

// compact strips insignificant whitespace so a payload travels as one
// SSE data line and is cached in its shortest form.
func compact(payload json.RawMessage) json.RawMessage {
	if len(payload) == 0 {
		return json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return payload
	}
	return buf.Bytes()
}

// replay sends the cached style and verse to a projector page that just
// connected, so a reloaded window shows what it showed before.
func (b *Bridge) replay(c *sse.Client) {
	if c.Role != sse.RoleProjector {
		return
	}
	b.mu.Lock()
	style, verse := b.lastStyle, b.lastVerse
	b.mu.Unlock()

	if style != nil {
		b.hub.Send(c, EventStyles, style)
	}
	if verse != nil {
		b.hub.Send(c, EventProjection, verse)
	}
}
