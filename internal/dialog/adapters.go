package dialog

import (
	"context"
	"fmt"
	"strings"
)

// ── zenity (Linux / BSD) ────────────────────────────────

type zenityPicker struct{ run runFunc }

func zenityFilter(f Filter) string {
	globs := make([]string, len(f.Extensions))
	for i, e := range f.Extensions {
		globs[i] = "*." + e
	}
	return fmt.Sprintf("%s | %s", f.Name, strings.Join(globs, " "))
}

func (p zenityPicker) PickFile(ctx context.Context, f Filter) (string, bool, error) {
	return p.show(ctx, "--file-selection", "--title=Select "+f.Name, "--file-filter="+zenityFilter(f))
}

func (p zenityPicker) SaveFile(ctx context.Context, f Filter, suggested string) (string, bool, error) {
	args := []string{"--file-selection", "--save", "--confirm-overwrite", "--title=Save " + f.Name, "--file-filter=" + zenityFilter(f)}
	if suggested != "" {
		args = append(args, "--filename="+suggested)
	}
	return p.show(ctx, args...)
}

func (p zenityPicker) show(ctx context.Context, args ...string) (string, bool, error) {
	res, err := p.run(ctx, "zenity", args...)
	if err != nil {
		return "", false, err
	}
	switch res.code {
	case 0:
		path := firstLine(res.stdout)
		return path, path != "", nil
	case 1: // Cancel or window closed.
		return "", false, nil
	}
	return "", false, fmt.Errorf("zenity exited %d: %s", res.code, strings.TrimSpace(res.stderr))
}

// ── osascript (macOS) ───────────────────────────────────

type osascriptPicker struct{ run runFunc }

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func appleTypes(f Filter) string {
	quoted := make([]string, len(f.Extensions))
	for i, e := range f.Extensions {
		quoted[i] = appleQuote(e)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

func (p osascriptPicker) PickFile(ctx context.Context, f Filter) (string, bool, error) {
	script := fmt.Sprintf("POSIX path of (choose file with prompt %s of type %s)",
		appleQuote("Select "+f.Name), appleTypes(f))
	return p.show(ctx, script)
}

func (p osascriptPicker) SaveFile(ctx context.Context, f Filter, suggested string) (string, bool, error) {
	script := fmt.Sprintf("POSIX path of (choose file name with prompt %s", appleQuote("Save "+f.Name))
	if suggested != "" {
		script += " default name " + appleQuote(suggested)
	}
	script += ")"
	return p.show(ctx, script)
}

func (p osascriptPicker) show(ctx context.Context, script string) (string, bool, error) {
	res, err := p.run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", false, err
	}
	if res.code != 0 {
		// -128 is "User canceled."
		if strings.Contains(res.stderr, "-128") {
			return "", false, nil
		}
		return "", false, fmt.Errorf("osascript exited %d: %s", res.code, strings.TrimSpace(res.stderr))
	}
	path := firstLine(res.stdout)
	return path, path != "", nil
}

// ── PowerShell (Windows) ────────────────────────────────

type powershellPicker struct{ run runFunc }

func winFilter(f Filter) string {
	globs := make([]string, len(f.Extensions))
	for i, e := range f.Extensions {
		globs[i] = "*." + e
	}
	g := strings.Join(globs, ";")
	return fmt.Sprintf("%s (%s)|%s", f.Name, g, g)
}

// psQuote renders s as a single-quoted PowerShell string.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (p powershellPicker) PickFile(ctx context.Context, f Filter) (string, bool, error) {
	return p.show(ctx, "OpenFileDialog", f, "")
}

func (p powershellPicker) SaveFile(ctx context.Context, f Filter, suggested string) (string, bool, error) {
	return p.show(ctx, "SaveFileDialog", f, suggested)
}

func (p powershellPicker) show(ctx context.Context, kind string, f Filter, suggested string) (string, bool, error) {
	script := "Add-Type -AssemblyName System.Windows.Forms; " +
		"$d = New-Object System.Windows.Forms." + kind + "; " +
		"$d.Filter = " + psQuote(winFilter(f)) + "; "
	if suggested != "" {
		script += "$d.FileName = " + psQuote(suggested) + "; "
	}
	script += "if ($d.ShowDialog() -eq [System.Windows.Forms.DialogResult]::OK) { $d.FileName }"

	res, err := p.run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-STA", "-Command", script)
	if err != nil {
		return "", false, err
	}
	if res.code != 0 {
		return "", false, fmt.Errorf("powershell exited %d: %s", res.code, strings.TrimSpace(res.stderr))
	}
	path := firstLine(res.stdout)
	return path, path != "", nil
}
