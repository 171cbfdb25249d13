package clipboard

import (
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"
)

// ClipboardError is returned when no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a ClipboardError with installation hints for the
// current platform
func NewClipboardError() *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux":
		msg = "no clipboard utility found. Install one of:\n" +
			"  • Debian/Ubuntu: sudo apt install xclip\n" +
			"  • Fedora: sudo dnf install xclip\n" +
			"  • Wayland: install wl-clipboard"
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}
	return &ClipboardError{OS: runtime.GOOS, Message: msg}
}

// Available reports whether Copy can reach a system clipboard
func Available() bool {
	return !clipboard.Unsupported
}

// Copy places text on the system clipboard
func Copy(text string) error {
	if !Available() {
		return NewClipboardError()
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// CopyWithFallback copies text and returns a status line for the UI
func CopyWithFallback(text string) (string, error) {
	if err := Copy(text); err != nil {
		return "", err
	}
	return "Copied to clipboard!", nil
}
