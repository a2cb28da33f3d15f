package watchsrc

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func isFsnotifySupported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows", "freebsd", "netbsd", "openbsd":
		return true
	default:
		return false
	}
}

func TestNewDeliversInitialContent(t *testing.T) {
	if !isFsnotifySupported() {
		t.Skip("fsnotify not supported on this platform")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	assert.NoError(t, os.WriteFile(path, []byte("# hello\n"), 0o644))

	s, err := NewWithDebounce(path, 20*time.Millisecond)
	assert.NoError(t, err)
	defer s.Close()

	select {
	case c := <-s.Chunks():
		assert.Equal(t, "# hello\n", c.Text)
		assert.False(t, c.Final)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial chunk")
	}
}

func TestAppendProducesDebouncedChunk(t *testing.T) {
	if !isFsnotifySupported() {
		t.Skip("fsnotify not supported on this platform")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	assert.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	s, err := NewWithDebounce(path, 20*time.Millisecond)
	assert.NoError(t, err)
	defer s.Close()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(t, err)
	_, err = f.WriteString("more text\n")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	select {
	case c := <-s.Chunks():
		assert.Equal(t, "more text\n", c.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for appended chunk")
	}
}

func TestNewErrorsOnMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}
