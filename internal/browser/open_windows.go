//go:build windows

package browser

import (
	"os"
	"path/filepath"
)

func open(url string) error {
	return start("rundll32", "url.dll,FileProtocolHandler", url)
}

func appBrowsers() []string {
	var out []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "LocalAppData"} {
		root := os.Getenv(env)
		if root == "" {
			continue
		}
		out = append(out,
			filepath.Join(root, "Microsoft", "Edge", "Application", "msedge.exe"),
			filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"),
		)
	}
	return append(out, "msedge.exe", "chrome.exe")
}

func hasDisplay() bool {
	// Windows Server Core still has a desktop (even if minimal).
	return true
}
