//go:build !windows && !darwin

package dialog

// NewNative returns the zenity picker.
func NewNative() Picker {
	return zenityPicker{run: execRun}
}
