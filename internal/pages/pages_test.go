package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout_EscapesTitle(t *testing.T) {
	html := render(t, Layout("<Sunday>", "", templ.Raw("<p>hi</p>")))
	assert.Contains(t, html, "<title>&lt;Sunday&gt;</title>")
	assert.Contains(t, html, "<p>hi</p></body></html>")
}

func TestProjector_SubscribesAsProjector(t *testing.T) {
	html := render(t, Projector())
	assert.Contains(t, html, `<div id="stage"><div id="text"></div></div>`)
	assert.Contains(t, html, "role=projector&window=")
	for _, ev := range []string{"update-projection", "update-styles", "video-control", "window-control"} {
		assert.Contains(t, html, ev)
	}
}

func TestIndex_ReloadsSongs(t *testing.T) {
	html := render(t, Index())
	assert.Contains(t, html, "role=operator")
	assert.Contains(t, html, "reload-songs")
	assert.Contains(t, html, "/api/songs/export")
}
