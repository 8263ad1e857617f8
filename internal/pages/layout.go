// Package pages renders the operator console and the projector output as
// templ components.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the shared HTML document.
func Layout(title, css string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title><style>`+baseCSS+css+`</style></head><body>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

const baseCSS = `
*{box-sizing:border-box}
body{margin:0;font-family:system-ui,sans-serif;background:#111;color:#eee}
button{background:#2d2d2d;color:#eee;border:1px solid #444;border-radius:4px;padding:4px 10px;cursor:pointer}
button:hover{background:#3a3a3a}
input,select,textarea{background:#1c1c1c;color:#eee;border:1px solid #444;border-radius:4px;padding:4px}
`
