// Package clip copies rendered block content to the clipboard for
// mdstream watch's "yank the block under the cursor" action.
package clip

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// EllipsisMinLength is the minimum string length before truncation
// adds an ellipsis, used when previewing what was copied.
const EllipsisMinLength = 3

// TruncateString truncates s and adds an ellipsis if it exceeds maxLen,
// used for a status-line preview of what was just copied.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= EllipsisMinLength {
		return s[:maxLen]
	}

	return s[:maxLen-EllipsisMinLength] + "..."
}

// Copy copies text to the system clipboard, falling back to an OSC 52
// terminal escape (so it still works over SSH with no X11/Wayland
// clipboard available) when the native clipboard is unreachable.
func Copy(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}

	return CopyOSC52(text)
}

// CopyOSC52 writes text to the terminal's clipboard via the OSC 52
// escape sequence. OSC 52 has no success/failure acknowledgment from
// the terminal, so this always reports success once written.
func CopyOSC52(text string) error {
	return writeOSC52(os.Stdout, text)
}

func writeOSC52(w io.Writer, text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	seq := fmt.Sprintf("\x1b]52;c;%s\x07", encoded)
	_, err := io.WriteString(w, seq)

	return err
}
