package highlight

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLinesPreservesLength(t *testing.T) {
	hl := New("monokai")
	out := hl.Lines("go", []string{"func main() {}", "// comment"})
	assert.Equal(t, 2, len(out))
	for _, line := range out {
		assert.True(t, len(line) > 0)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	hl := New("monokai")
	out := hl.Lines("not-a-real-language", []string{"plain text"})
	assert.Equal(t, 1, len(out))
	assert.True(t, strings.Contains(out[0], "plain text"))
}

func TestUnknownStyleFallsBackToMonokai(t *testing.T) {
	hl := New("definitely-not-a-style")
	out := hl.Lines("go", []string{"x := 1"})
	assert.Equal(t, 1, len(out))
}
