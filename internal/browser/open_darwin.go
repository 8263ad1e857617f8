//go:build darwin

package browser

func open(url string) error {
	return start("open", url)
}

func appBrowsers() []string {
	return []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
	}
}

func hasDisplay() bool {
	// macOS headless environments are rare; let open fail naturally.
	return true
}
