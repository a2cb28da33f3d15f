package document

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/highlight"
	"github.com/connerohnesorge/mdstream/internal/mdxsvc"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
)

func TestDocumentAppendCommitsToStore(t *testing.T) {
	d := New(Options{Strategy: scheduler.MicrotaskStrategy{}})
	d.Append("# Hello\n\nworld\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitIdle(ctx))

	root := d.Store().Get(d.Store().RootID())
	assert.Equal(t, 2, len(root.Children))
}

func TestDocumentIncrementalAppendExtendsStore(t *testing.T) {
	d := New(Options{Strategy: scheduler.MicrotaskStrategy{}})
	d.Append("para one\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitIdle(ctx))

	d.Append("\npara two\n")
	assert.NoError(t, d.AwaitIdle(ctx))

	root := d.Store().Get(d.Store().RootID())
	assert.Equal(t, 2, len(root.Children))
}

func TestDocumentFinalizeRetractsAnticipation(t *testing.T) {
	d := New(Options{Strategy: scheduler.MicrotaskStrategy{}})
	d.Append("still *open")
	d.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitIdle(ctx))

	snap, err := d.Snapshot()
	assert.NoError(t, err)
	assert.True(t, len(snap) > 0)
}

func (d *Document) firstBlock() *block.Block {
	blocks := d.Store().TopLevelBlocks()
	if len(blocks) == 0 {
		return nil
	}

	return blocks[0]
}

func TestDocumentHighlightsCodeFences(t *testing.T) {
	d := New(Options{
		Strategy:    scheduler.MicrotaskStrategy{},
		Highlighter: highlight.New("monokai"),
	})
	d.Append("```go\nfunc main() {}\n```\n")
	d.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitIdle(ctx))

	b := d.firstBlock()
	assert.True(t, b != nil)
	assert.Equal(t, block.KindCodeFence, b.Kind)
	assert.True(t, b.Highlight)
	assert.True(t, len(b.Lines[0].HTML) > 0)
}

func TestDocumentResolvesMDXComponents(t *testing.T) {
	svc := mdxsvc.New(1, []string{"Chart"})
	defer svc.Close()

	d := New(Options{
		Strategy: scheduler.MicrotaskStrategy{},
		MDX:      svc,
	})
	d.Append("<Chart data=\"x\" />\n")
	d.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitIdle(ctx))

	b := d.firstBlock()
	assert.True(t, b != nil)
	assert.Equal(t, block.KindMDXComponent, b.Kind)
	assert.True(t, b.ModuleID != "")
}
