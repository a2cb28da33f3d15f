package clip

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTruncateStringUnderLimit(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
}

func TestTruncateStringAddsEllipsis(t *testing.T) {
	got := TruncateString("hello world", 8)
	assert.Equal(t, "hello...", got)
}

func TestTruncateStringAtOrBelowEllipsisMinLength(t *testing.T) {
	got := TruncateString("hello world", 2)
	assert.Equal(t, "he", got)
}

func TestWriteOSC52EncodesPayload(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, writeOSC52(&buf, "copied text"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b]52;c;"))
	assert.True(t, strings.HasSuffix(out, "\x07"))

	encoded := strings.TrimSuffix(strings.TrimPrefix(out, "\x1b]52;c;"), "\x07")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	assert.NoError(t, err)
	assert.Equal(t, "copied text", string(decoded))
}
