package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRenderCmdOpenSourceReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	assert.NoError(t, os.WriteFile(path, []byte("# hi\n"), 0o644))

	c := &RenderCmd{Path: path}
	src, err := c.openSource()
	assert.NoError(t, err)
	defer src.Close()

	data := make([]byte, 16)
	n, _ := src.Read(data)
	assert.Equal(t, "# hi\n", string(data[:n]))
}

func TestRenderCmdOpenSourceDefaultsToStdin(t *testing.T) {
	c := &RenderCmd{}
	src, err := c.openSource()
	assert.NoError(t, err)
	assert.True(t, src != nil)
	defer src.Close()
}

func TestRenderCmdRunPrintsRenderedText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	assert.NoError(t, os.WriteFile(path, []byte("# Title\n\nbody text\n"), 0o644))
	t.Chdir(dir)

	c := &RenderCmd{Path: path, Raw: true}
	out, err := captureStdout(t, func() error { return c.Run(&CLI{}) })
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
}

func TestRenderCmdRunJSONOutputsBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	assert.NoError(t, os.WriteFile(path, []byte("plain paragraph\n"), 0o644))
	t.Chdir(dir)

	c := &RenderCmd{Path: path, JSON: true}
	out, err := captureStdout(t, func() error { return c.Run(&CLI{}) })
	assert.NoError(t, err)
	assert.Contains(t, out, "paragraph")
}
