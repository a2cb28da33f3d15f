package sanitize

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStrictPolicyStripsScripts(t *testing.T) {
	s := New(PolicyStrict)
	out, policy := s.Sanitize(`<script>alert(1)</script><b>hi</b>`)
	assert.Equal(t, "strict", policy)
	assert.False(t, strings.Contains(out, "<script>"))
	assert.False(t, strings.Contains(out, "<b>"))
}

func TestUGCPolicyKeepsBasicFormatting(t *testing.T) {
	s := New(PolicyUGC)
	out, policy := s.Sanitize(`<a href="https://x.test">link</a><script>bad()</script>`)
	assert.Equal(t, "ugc", policy)
	assert.True(t, strings.Contains(out, "<a"))
	assert.False(t, strings.Contains(out, "<script>"))
}
