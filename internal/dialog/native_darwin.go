//go:build darwin

package dialog

// NewNative returns the osascript picker.
func NewNative() Picker {
	return osascriptPicker{run: execRun}
}
