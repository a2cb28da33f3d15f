package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/connerohnesorge/mdstream/internal/document"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/watchsrc"
)

func TestPumpChunksAppendsAndFinalizesOnSourceClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.md")
	assert.NoError(t, os.WriteFile(path, []byte("# start\n"), 0o644))

	src, err := watchsrc.NewWithDebounce(path, 10*time.Millisecond)
	assert.NoError(t, err)

	doc := document.New(document.Options{Strategy: scheduler.MicrotaskStrategy{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pumpChunks(ctx, src, doc)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for doc.Store().Version() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	src.Close()
	<-done

	assert.True(t, doc.Store().Version() > 0)
}
