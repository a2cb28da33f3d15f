// Package diff compares two successive block sequences produced by
// internal/block and emits the typed patch.Patch values that carry one
// sequence to the other. Comparison is id-aligned: blocks are matched
// by their Block.ID, the same way markdown.MergeDelta classifies
// requirements across two parses of the same document by name rather
// than by position.
package diff

import (
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/patch"
)

// Batch is one transaction's worth of patches, tagged with a
// monotonic, sortable transaction id.
type Batch struct {
	TxID    string
	Patches []patch.Patch
}

// Engine holds the entropy source used to mint transaction ids. A
// zero-value Engine is ready to use.
type Engine struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (e *Engine) newTxID(now time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.entropy == nil {
		e.entropy = ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	}

	id, err := ulid.New(ulid.Timestamp(now), e.entropy)
	if err != nil {
		// Monotonic entropy only errs on overflow after 2^80 ids within
		// one millisecond; fall back to a fresh source rather than
		// propagate an error from what is, practically, an infallible call.
		e.entropy = ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
		id, _ = ulid.New(ulid.Timestamp(now), e.entropy)
	}

	return id.String()
}

// Diff compares prev and next block sequences under a single parent
// block id (empty string for the document root) and returns the patch
// batch that carries prev to next.
func (e *Engine) Diff(parentBlockID string, prev, next []*block.Block) Batch {
	return Batch{
		TxID:    e.newTxID(time.Now()),
		Patches: diffSequence(parentBlockID, prev, next),
	}
}

func diffSequence(blockID string, prev, next []*block.Block) []patch.Patch {
	var patches []patch.Patch

	prefix := longestCommonPrefix(prev, next)
	prev, next = prev[prefix:], next[prefix:]

	suffix := longestCommonSuffix(prev, next)
	if suffix > 0 {
		prev = prev[:len(prev)-suffix]
		next = next[:len(next)-suffix]
	}

	if len(prev) == 0 && len(next) == 0 {
		return patches
	}

	if run, ok := detectContiguousReorder(prev, next); ok {
		at := patch.At{BlockID: blockID}
		patches = append(patches, patch.NewReorder(at, run.from+prefix, run.to+prefix, run.count))

		return patches
	}

	prevByID := indexByID(prev)
	nextByID := indexByID(next)

	// Deletes run from the highest index down so each index is still
	// valid after the deletes emitted before it.
	for i := len(prev) - 1; i >= 0; i-- {
		if _, ok := nextByID[prev[i].ID]; !ok {
			at := patch.At{BlockID: blockID}
			patches = append(patches, patch.NewDeleteChild(at, i+prefix))
		}
	}

	for i, n := range next {
		old, existed := prevByID[n.ID]
		at := patch.At{BlockID: blockID}
		switch {
		case !existed:
			patches = append(patches, patch.NewInsertChild(at, i+prefix, snapshot(n)))
		case old.ContentHash() != n.ContentHash():
			patches = append(patches, diffBlockContent(blockID, old, n)...)
		}
	}

	return patches
}

// diffBlockContent emits the narrowest patch set that carries old to
// n, given they share an id. Code fences favor appendLines for
// trailing-only line growth; everything else falls back to a single
// setProps carrying the new snapshot, or a full replaceChild if the
// node's type itself changed.
func diffBlockContent(parentBlockID string, old, n *block.Block) []patch.Patch {
	at := patch.At{BlockID: n.ID}

	if old.Kind != n.Kind {
		return []patch.Patch{patch.NewReplaceChild(patch.At{BlockID: parentBlockID}, 0, snapshot(n))}
	}

	if n.Kind == block.KindCodeFence && isAppendOnlyLineGrowth(old.Lines, n.Lines) {
		startIndex := len(old.Lines)
		var lines []patch.CodeLine
		for i := startIndex; i < len(n.Lines); i++ {
			lines = append(lines, patch.CodeLine{Index: i, Text: n.Lines[i].Text, HTML: n.Lines[i].HTML})
		}
		patches := []patch.Patch{patch.NewAppendLines(at, startIndex, lines)}
		if n.Finalized && !old.Finalized {
			patches = append(patches, patch.NewFinalize(at))
		}

		return patches
	}

	// List items already carry stable parser-assigned ids, so a changed
	// item is diffed the same way a top-level block sequence is, instead
	// of forcing the whole list out as one setProps.
	if n.Kind == block.KindList {
		patches := diffSequence(n.ID, old.Children, n.Children)
		if n.Finalized && !old.Finalized {
			patches = append(patches, patch.NewFinalize(at))
		}

		return patches
	}

	// Table rows have no parser-assigned id of their own, so they're
	// diffed by position (row-granularity, not cell-granularity) against
	// the synthetic table-body sub-node snapshot() materializes them as.
	if n.Kind == block.KindTable {
		patches := diffTable(old, n)
		if n.Finalized && !old.Finalized {
			patches = append(patches, patch.NewFinalize(at))
		}

		return patches
	}

	var patches []patch.Patch
	if old.PayloadHash() != n.PayloadHash() {
		patches = append(patches, patch.NewSetProps(at, map[string]any{"block": n}))
	}
	if n.Finalized && !old.Finalized {
		patches = append(patches, patch.NewFinalize(at))
	}

	return patches
}

// diffTable emits a replaceChild for the header sub-node when its cells
// or alignment changed, plus a positional row-by-row diff of the body.
func diffTable(old, n *block.Block) []patch.Patch {
	var patches []patch.Patch

	if !reflect.DeepEqual(old.Header.Cells, n.Header.Cells) || !reflect.DeepEqual(old.Alignment, n.Alignment) {
		patches = append(patches, patch.NewReplaceChild(patch.At{BlockID: n.ID}, 0, tableHeaderSnapshot(n)))
	}

	patches = append(patches, diffTableRows(n.ID, old.Rows, n.Rows)...)

	return patches
}

func diffTableRows(tableID string, old, n []block.TableRow) []patch.Patch {
	var patches []patch.Patch
	bodyAt := patch.At{BlockID: patch.TableBodyID(tableID)}

	common := len(old)
	if len(n) < common {
		common = len(n)
	}
	for i := 0; i < common; i++ {
		if !reflect.DeepEqual(old[i].Cells, n[i].Cells) {
			patches = append(patches, patch.NewReplaceChild(bodyAt, i, tableRowSnapshot(tableID, i, n[i])))
		}
	}
	for i := len(old); i > len(n); i-- {
		patches = append(patches, patch.NewDeleteChild(bodyAt, len(n)))
	}
	for i := len(old); i < len(n); i++ {
		patches = append(patches, patch.NewInsertChild(bodyAt, i, tableRowSnapshot(tableID, i, n[i])))
	}

	return patches
}

// isAppendOnlyLineGrowth reports whether newLines extends oldLines by
// adding trailing lines without altering any existing line's text —
// the case appendLines exists for.
func isAppendOnlyLineGrowth(oldLines, newLines []block.CodeLine) bool {
	if len(newLines) < len(oldLines) {
		return false
	}
	for i := range oldLines {
		if oldLines[i].Text != newLines[i].Text {
			return false
		}
	}

	return len(newLines) > len(oldLines)
}

func snapshot(b *block.Block) patch.NodeSnapshot {
	if b.Kind == block.KindTable {
		return tableSnapshot(b)
	}

	children := make([]patch.NodeSnapshot, 0, len(b.Children))
	for _, c := range b.Children {
		children = append(children, snapshot(c))
	}

	return patch.NodeSnapshot{
		ID:       b.ID,
		Type:     b.Kind.String(),
		Children: children,
		Range:    &patch.Range{Start: b.Start, End: b.End},
		Block:    b,
	}
}

// tableSnapshot represents a table's header row and body rows/cells as
// their own addressable sub-nodes, rather than leaving the whole table
// as an opaque leaf the store can only replace wholesale.
func tableSnapshot(b *block.Block) patch.NodeSnapshot {
	rows := make([]patch.NodeSnapshot, 0, len(b.Rows))
	for i, row := range b.Rows {
		rows = append(rows, tableRowSnapshot(b.ID, i, row))
	}

	return patch.NodeSnapshot{
		ID:   b.ID,
		Type: b.Kind.String(),
		Children: []patch.NodeSnapshot{
			tableHeaderSnapshot(b),
			{ID: patch.TableBodyID(b.ID), Type: "table-body", Children: rows},
		},
		Range: &patch.Range{Start: b.Start, End: b.End},
		Block: b,
	}
}

func tableHeaderSnapshot(b *block.Block) patch.NodeSnapshot {
	cells := make([]patch.NodeSnapshot, 0, len(b.Header.Cells))
	for i, cell := range b.Header.Cells {
		cells = append(cells, patch.NodeSnapshot{
			ID:    patch.TableHeaderCellID(b.ID, i),
			Type:  "table-cell",
			Props: map[string]any{"index": i, "inline": cell},
		})
	}

	return patch.NodeSnapshot{ID: patch.TableHeaderID(b.ID), Type: "table-header", Children: cells}
}

func tableRowSnapshot(tableID string, index int, row block.TableRow) patch.NodeSnapshot {
	cells := make([]patch.NodeSnapshot, 0, len(row.Cells))
	for i, cell := range row.Cells {
		cells = append(cells, patch.NodeSnapshot{
			ID:    patch.TableCellID(tableID, index, i),
			Type:  "table-cell",
			Props: map[string]any{"index": i, "inline": cell},
		})
	}

	return patch.NodeSnapshot{
		ID:       patch.TableRowID(tableID, index),
		Type:     "table-row",
		Props:    map[string]any{"index": index},
		Children: cells,
	}
}

func indexByID(blocks []*block.Block) map[string]*block.Block {
	m := make(map[string]*block.Block, len(blocks))
	for _, b := range blocks {
		m[b.ID] = b
	}

	return m
}

func longestCommonPrefix(a, b []*block.Block) int {
	n := 0
	for n < len(a) && n < len(b) && a[n].ID == b[n].ID && a[n].ContentHash() == b[n].ContentHash() {
		n++
	}

	return n
}

func longestCommonSuffix(a, b []*block.Block) int {
	n := 0
	for n < len(a) && n < len(b) &&
		a[len(a)-1-n].ID == b[len(b)-1-n].ID &&
		a[len(a)-1-n].ContentHash() == b[len(b)-1-n].ContentHash() {
		n++
	}

	return n
}

type reorderRun struct {
	from, to, count int
}

// detectContiguousReorder recognizes the one case worth special-casing:
// the same multiset of ids, rearranged by moving exactly one
// contiguous run to a new position. Anything more complex falls back
// to delete+insert in diffSequence's caller.
func detectContiguousReorder(prev, next []*block.Block) (reorderRun, bool) {
	if len(prev) != len(next) || len(prev) < 2 {
		return reorderRun{}, false
	}

	prevIDs := idsOf(prev)
	nextIDs := idsOf(next)

	prevSet := map[string]int{}
	for _, id := range prevIDs {
		prevSet[id]++
	}
	for _, id := range nextIDs {
		prevSet[id]--
	}
	for _, v := range prevSet {
		if v != 0 {
			return reorderRun{}, false
		}
	}

	// Find the minimal mismatched window.
	start := 0
	for start < len(prevIDs) && prevIDs[start] == nextIDs[start] {
		start++
	}
	if start == len(prevIDs) {
		return reorderRun{}, false
	}

	end := len(prevIDs) - 1
	for end >= 0 && prevIDs[end] == nextIDs[end] {
		end--
	}

	window := prevIDs[start : end+1]
	targetWindow := nextIDs[start : end+1]

	// A single contiguous run move looks like a rotation of the window.
	for count := 1; count < len(window); count++ {
		rotated := append(append([]string{}, window[count:]...), window[:count]...)
		if equalStrings(rotated, targetWindow) {
			return reorderRun{from: start, to: start + len(window) - count, count: count}, true
		}
	}

	return reorderRun{}, false
}

func idsOf(blocks []*block.Block) []string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}

	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
