package clipboard

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestClipboardError(t *testing.T) {
	err := NewClipboardError()

	if err.OS != runtime.GOOS {
		t.Errorf("Expected OS to be %s, got %s", runtime.GOOS, err.OS)
	}
	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}
	if runtime.GOOS == "linux" && !strings.Contains(err.Error(), "xclip") {
		t.Error("Linux instructions should mention xclip")
	}
}

func TestCopyWithFallback(t *testing.T) {
	statusMsg, err := CopyWithFallback("test clipboard content")
	if err != nil {
		var clipErr *ClipboardError
		if errors.As(err, &clipErr) || strings.Contains(err.Error(), "copy to clipboard") {
			// headless machines have no clipboard
			t.Logf("Clipboard not available: %v", err)
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if statusMsg != "Copied to clipboard!" {
		t.Errorf("Expected 'Copied to clipboard!', got '%s'", statusMsg)
	}
}
