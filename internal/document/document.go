// Package document owns one streaming document's full pipeline: the
// block parser, the diff cursor comparing successive parses, the
// renderer store the diffs are applied to, and the commit scheduler
// that paces those applications, patterned after track.Tracker: a
// single Config-constructed session object holding all of its own
// collaborators (watcher, committer, writer).
package document

import (
	"context"
	"encoding/json"
	"time"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/coalesce"
	"github.com/connerohnesorge/mdstream/internal/diag"
	"github.com/connerohnesorge/mdstream/internal/diff"
	"github.com/connerohnesorge/mdstream/internal/highlight"
	"github.com/connerohnesorge/mdstream/internal/mdxsvc"
	"github.com/connerohnesorge/mdstream/internal/sanitize"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/store"
)

// Options configures a Document.
type Options struct {
	Strategy scheduler.Strategy
	// Priority picks the priority new patch batches are enqueued at.
	// Defaults to scheduler.High, matching "visible text should commit
	// promptly" being the common case for an actively streaming reply.
	Priority scheduler.Priority

	// Highlighter, when set, fills in CodeLine.HTML for every code
	// fence block before it is diffed into the store. Nil skips
	// highlighting (Lines[i].HTML stays empty, Highlight stays false).
	Highlighter *highlight.Highlighter
	// Sanitizer, when set, replaces the RawHTML of every KindHTML block
	// (nested ones included) with its sanitized form before diffing.
	// Inline raw-HTML segments are not sanitized.
	Sanitizer *sanitize.Sanitizer
	// MDX, when set, resolves MDXComponent blocks to a ModuleID before
	// diffing. Resolution failures are recorded on Diag, if present,
	// rather than dropping the block.
	MDX *mdxsvc.Service
	// Diag receives non-fatal enrichment errors (unknown MDX
	// components, etc). Nil discards them.
	Diag *diag.Sink

	// SchedulerOptions configures the commit scheduler's wall-clock
	// frame budgets and per-priority batch caps. Zero value falls back
	// to scheduler.DefaultOptions().
	SchedulerOptions scheduler.Options
}

// Document is one live session: append Markdown/MDX text to it and it
// keeps a renderer Store continuously caught up via the scheduler.
type Document struct {
	parser    block.Parser
	diffEng   diff.Engine
	store     *store.Store
	scheduler *scheduler.Scheduler
	priority  scheduler.Priority
	prevBlock []*block.Block

	highlighter *highlight.Highlighter
	sanitizer   *sanitize.Sanitizer
	mdx         *mdxsvc.Service
	diagSink    *diag.Sink
}

// New creates a Document ready to receive Append calls.
func New(opts Options) *Document {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = scheduler.DefaultStrategy(false)
	}

	d := &Document{
		store:       store.New(),
		scheduler:   scheduler.NewWithOptions(strategy, opts.SchedulerOptions),
		priority:    opts.Priority,
		highlighter: opts.Highlighter,
		sanitizer:   opts.Sanitizer,
		mdx:         opts.MDX,
		diagSink:    opts.Diag,
	}
	d.parser.Init()

	return d
}

// Store exposes the live renderer store for subscription or rendering.
func (d *Document) Store() *store.Store { return d.store }

// Scheduler exposes the commit scheduler for pause/resume/history access.
func (d *Document) Scheduler() *scheduler.Scheduler { return d.scheduler }

// Append feeds a chunk of raw text into the parser and schedules the
// resulting diff for commit to the store.
func (d *Document) Append(chunk string) {
	d.parser.Append(chunk)
	d.scheduleCommit()
}

// Finalize marks the underlying stream complete, retracting any
// anticipated inline formatting that never received a real closer, and
// schedules the resulting diff.
func (d *Document) Finalize() {
	d.parser.Finalize()
	d.scheduleCommit()
}

// Reset clears all parser and diff state. Commits already queued on the
// scheduler are not dropped and still apply to the store; the store
// itself is left untouched (callers that want a fresh store should also
// create a fresh Document).
func (d *Document) Reset() {
	d.parser.Reset()
	d.prevBlock = nil
}

func (d *Document) scheduleCommit() {
	next := append([]*block.Block{}, d.parser.Blocks()...)
	d.enrich(next)
	prev := d.prevBlock
	d.prevBlock = next

	d.scheduler.Enqueue(d.priority, func() time.Duration {
		batch := d.diffEng.Diff("", prev, next)
		result := coalesce.Coalesce(batch.Patches)
		d.store.Apply(result.Patches)

		return result.Duration
	})
}

// enrich fills in the fields internal/highlight, internal/sanitize,
// and internal/mdxsvc are responsible for, walking the whole block
// tree so nested blocks (list items, blockquote contents) are covered
// too.
func (d *Document) enrich(blocks []*block.Block) {
	for _, b := range blocks {
		switch b.Kind {
		case block.KindCodeFence:
			d.highlightFence(b)
		case block.KindHTML:
			d.sanitizeHTML(b)
		case block.KindMDXComponent:
			d.resolveComponent(b)
		}

		if len(b.Children) > 0 {
			d.enrich(b.Children)
		}
	}
}

func (d *Document) highlightFence(b *block.Block) {
	if d.highlighter == nil || len(b.Lines) == 0 {
		return
	}

	texts := make([]string, len(b.Lines))
	for i, ln := range b.Lines {
		texts[i] = ln.Text
	}

	highlighted := d.highlighter.Lines(b.Lang, texts)
	for i := range b.Lines {
		if i < len(highlighted) {
			b.Lines[i].HTML = highlighted[i]
		}
	}
	b.Highlight = true
}

func (d *Document) sanitizeHTML(b *block.Block) {
	if d.sanitizer == nil || b.RawHTML == "" {
		return
	}

	sanitized, policy := d.sanitizer.Sanitize(b.RawHTML)
	b.RawHTML = sanitized
	if d.diagSink != nil {
		d.diagSink.Info("sanitize", "applied "+policy+" policy")
	}
}

func (d *Document) resolveComponent(b *block.Block) {
	if d.mdx == nil || b.ComponentName == "" || b.ModuleID != "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := d.mdx.Compile(ctx, mdxsvc.Request{Component: b.ComponentName, Props: b.Props})
	if err != nil {
		if d.diagSink != nil {
			d.diagSink.Errorf("mdxsvc", err)
		}

		return
	}

	b.ModuleID = resp.ModuleID
}

// AwaitIdle blocks until every scheduled commit has been applied.
func (d *Document) AwaitIdle(ctx context.Context) error {
	return d.scheduler.AwaitIdle(ctx)
}

// Snapshot serializes the current block sequence to JSON, for the
// `render --json` CLI output.
func (d *Document) Snapshot() ([]byte, error) {
	return json.Marshal(d.parser.Blocks())
}
