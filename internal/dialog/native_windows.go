//go:build windows

package dialog

// NewNative returns the PowerShell picker.
func NewNative() Picker {
	return powershellPicker{run: execRun}
}
