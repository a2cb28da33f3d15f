// Package store holds the renderer's live node graph: the result of
// applying a stream of patch.Patch values. It tracks a monotonic
// version per node and one for the whole store, enforces its five
// structural invariants, and notifies subscribers once per Apply call
// no matter how many patches it contained (notification coalescing).
// Patterned after the markdown.Node/Visitor family, adapted from a
// read-only AST into a mutable graph with the same traversal
// ergonomics.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/patch"
)

// Node is one live node in the store's graph.
type Node struct {
	ID       string
	Type     string
	Props    map[string]any
	Children []string // child ids, order-significant
	ParentID string
	Version  uint64
	Block    any // *block.Block snapshot when this node carries one
}

// Store is the mutable node graph. The zero value is not ready to use;
// call New.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	rootID   string
	version  uint64
	subs     map[int]func(version uint64)
	nextSub  int
	listener []Listener
}

// Listener receives a structured description of every applied patch,
// used by internal/diag to build history without coupling the store to
// any particular diagnostics sink.
type Listener func(ApplyEvent)

// ApplyEvent describes one completed Apply call.
type ApplyEvent struct {
	Version    uint64
	PatchCount int
	Errors     []error
}

// New creates an empty store with a synthetic root node.
func New() *Store {
	root := &Node{ID: "root", Type: "root"}

	return &Store{
		nodes: map[string]*Node{"root": root},
		rootID: "root",
		subs:  map[int]func(uint64){},
	}
}

// RootID returns the id of the synthetic root node all top-level
// blocks are children of.
func (s *Store) RootID() string { return s.rootID }

// Get returns the node with the given id, or nil if absent. The
// returned pointer must be treated as read-only by callers outside
// this package.
func (s *Store) Get(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nodes[id]
}

// TopLevelBlocks returns the *block.Block snapshot carried by each
// direct child of the root node, in document order, for callers that
// render or serialize the whole document rather than walking the
// graph node by node.
func (s *Store) TopLevelBlocks() []*block.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.nodes[s.rootID]
	if !ok {
		return nil
	}

	blocks := make([]*block.Block, 0, len(root.Children))
	for _, id := range root.Children {
		node, ok := s.nodes[id]
		if !ok {
			continue
		}
		if b, ok := node.Block.(*block.Block); ok {
			blocks = append(blocks, b)
		}
	}

	return blocks
}

// Version returns the store's current global version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Subscribe registers fn to be called with the new store version after
// every Apply call that changed at least one node. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(version uint64)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// AddListener registers a structured per-Apply listener (used by
// internal/diag).
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	s.listener = append(s.listener, l)
	s.mu.Unlock()
}

// Apply applies every patch in order under one store-version bump and
// one notification, regardless of how many patches changed something.
// A setProps, finalize or setHTML patch that changes nothing does not
// count as a change; a setPropsBatch counts as one whenever it applies
// without error. Errors for individual patches are collected and returned together;
// a failing patch is skipped, not fatal to the rest of the batch.
func (s *Store) Apply(patches []patch.Patch) []error {
	s.mu.Lock()

	var errs []error
	changed := false

	for _, p := range patches {
		target := p.At.NodeID
		if target == "" {
			target = p.At.BlockID
		}
		var before uint64
		if n, ok := s.nodes[target]; ok {
			before = n.Version
		}
		if err := s.applyOne(p); err != nil {
			errs = append(errs, err)

			continue
		}
		// A props-only patch that left its target's version alone was a
		// no-op and does not count as a change.
		if p.Kind == patch.SetProps || p.Kind == patch.Finalize || p.Kind == patch.SetHTML {
			if n, ok := s.nodes[target]; ok && n.Version == before {
				continue
			}
		}
		changed = true
	}

	var newVersion uint64
	if changed {
		s.version++
		newVersion = s.version
	} else {
		newVersion = s.version
	}

	subs := make([]func(uint64), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	listeners := append([]Listener{}, s.listener...)

	s.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(newVersion)
		}
	}
	for _, l := range listeners {
		l(ApplyEvent{Version: newVersion, PatchCount: len(patches), Errors: errs})
	}

	return errs
}

func (s *Store) applyOne(p patch.Patch) error {
	switch p.Kind {
	case patch.InsertChild:
		return s.insertChild(p.At, p.Insert.Index, p.Insert.Node)
	case patch.DeleteChild:
		return s.deleteChild(p.At, p.Delete.Index)
	case patch.ReplaceChild:
		if err := s.deleteChild(p.At, p.Replace.Index); err != nil {
			return err
		}

		return s.insertChild(p.At, p.Replace.Index, p.Replace.Node)
	case patch.SetProps:
		return s.setProps(p.At, p.Props.Props)
	case patch.SetPropsBatch:
		for _, e := range p.PropsBatch {
			if err := s.setProps(e.At, e.Props.Props); err != nil {
				return err
			}
		}

		return nil
	case patch.Reorder:
		return s.reorder(p.At, p.ReorderOp.From, p.ReorderOp.To, p.ReorderOp.Count)
	case patch.Finalize:
		return s.setProps(p.At, map[string]any{"finalized": true})
	case patch.AppendLines:
		return s.appendLines(p.At, p.AppendLinesOp.StartIndex, p.AppendLinesOp.Lines)
	case patch.SetHTML:
		return s.setHTML(p.At, p.SetHTMLOp)
	default:
		return fmt.Errorf("store: unknown patch kind %v", p.Kind)
	}
}

func (s *Store) parentID(at patch.At) string {
	if at.BlockID == "" {
		return s.rootID
	}

	return at.BlockID
}

func (s *Store) insertChild(at patch.At, index int, snap patch.NodeSnapshot) error {
	parent, ok := s.nodes[s.parentID(at)]
	if !ok {
		return fmt.Errorf("store: insertChild target %q not found", s.parentID(at))
	}

	for _, id := range parent.Children {
		if id == snap.ID {
			return fmt.Errorf("store: children-uniqueness violation, %q already a child of %q", snap.ID, parent.ID)
		}
	}

	node := materialize(snap, parent.ID)
	s.nodes[snap.ID] = node
	for _, c := range snap.Children {
		s.materializeRecursive(c, snap.ID)
	}

	if index < 0 || index > len(parent.Children) {
		index = len(parent.Children)
	}
	children := append([]string{}, parent.Children[:index]...)
	children = append(children, snap.ID)
	children = append(children, parent.Children[index:]...)
	parent.Children = children
	parent.Version++
	s.renormalizeListDepths(parent.ID)

	return nil
}

func (s *Store) materializeRecursive(snap patch.NodeSnapshot, parentID string) {
	node := materialize(snap, parentID)
	s.nodes[snap.ID] = node
	for _, c := range snap.Children {
		s.materializeRecursive(c, snap.ID)
	}
}

func materialize(snap patch.NodeSnapshot, parentID string) *Node {
	props := make(map[string]any, len(snap.Props))
	for k, v := range snap.Props {
		props[k] = v
	}
	children := make([]string, 0, len(snap.Children))
	for _, c := range snap.Children {
		children = append(children, c.ID)
	}

	return &Node{
		ID:       snap.ID,
		Type:     snap.Type,
		Props:    props,
		Children: children,
		ParentID: parentID,
		Block:    snap.Block,
	}
}

func (s *Store) deleteChild(at patch.At, index int) error {
	parent, ok := s.nodes[s.parentID(at)]
	if !ok {
		return fmt.Errorf("store: deleteChild target %q not found", s.parentID(at))
	}
	if index < 0 || index >= len(parent.Children) {
		return fmt.Errorf("store: deleteChild index %d out of range for %q", index, parent.ID)
	}

	childID := parent.Children[index]
	s.deleteSubtree(childID)
	parent.Children = append(append([]string{}, parent.Children[:index]...), parent.Children[index+1:]...)
	parent.Version++
	s.renormalizeListDepths(parent.ID)

	return nil
}

func (s *Store) deleteSubtree(id string) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}
	for _, c := range node.Children {
		s.deleteSubtree(c)
	}
	delete(s.nodes, id)
}

func (s *Store) setProps(at patch.At, props map[string]any) error {
	id := at.NodeID
	if id == "" {
		id = at.BlockID
	}
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("store: setProps target %q not found", id)
	}

	merged := make(map[string]any, len(node.Props)+len(props))
	for k, v := range node.Props {
		merged[k] = v
	}
	changed := false
	for k, v := range props {
		if patch.IsUndefined(v) {
			if _, had := merged[k]; had {
				delete(merged, k)
				changed = true
			}

			continue
		}
		if existing, had := merged[k]; !had || existing != v {
			// invariant: props immutability on no-op — only bump version
			// when a value genuinely differs.
			if blk, isBlock := v.(interface{ ContentHash() uint64 }); isBlock && had {
				if prevBlk, ok := existing.(interface{ ContentHash() uint64 }); ok && prevBlk.ContentHash() == blk.ContentHash() {
					continue
				}
			}
			merged[k] = v
			changed = true
		}
	}

	if !changed {
		return nil
	}

	node.Props = merged
	node.Version++
	if blk, ok := props["block"]; ok {
		node.Block = blk
	}

	return nil
}

func (s *Store) reorder(at patch.At, from, to, count int) error {
	parent, ok := s.nodes[s.parentID(at)]
	if !ok {
		return fmt.Errorf("store: reorder target %q not found", s.parentID(at))
	}
	if count < 1 {
		return fmt.Errorf("store: reorder count must be >= 1, got %d", count)
	}
	if from < 0 || from+count > len(parent.Children) || to < 0 || to > len(parent.Children)-count {
		return fmt.Errorf("store: reorder range out of bounds for %q", parent.ID)
	}

	run := append([]string{}, parent.Children[from:from+count]...)
	rest := append(append([]string{}, parent.Children[:from]...), parent.Children[from+count:]...)

	result := append([]string{}, rest[:to]...)
	result = append(result, run...)
	result = append(result, rest[to:]...)

	if !sameMultiset(result, parent.Children) {
		return fmt.Errorf("store: reorder produced a different child set for %q", parent.ID)
	}

	parent.Children = result
	parent.Version++
	s.renormalizeListDepths(parent.ID)

	return nil
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}

	return true
}

// appendLines enforces the code-line normalization invariant: line
// children are named "<parent>::line:<index>" and kept contiguous from
// 0. AppendLines may only extend the sequence or overwrite trailing
// lines already present, never leave a gap.
func (s *Store) appendLines(at patch.At, startIndex int, lines []patch.CodeLine) error {
	id := at.NodeID
	if id == "" {
		id = at.BlockID
	}
	parent, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("store: appendLines target %q not found", id)
	}
	if startIndex > len(parent.Children) {
		return fmt.Errorf("store: appendLines startIndex %d leaves a gap after %d existing lines", startIndex, len(parent.Children))
	}

	for i, ln := range lines {
		index := startIndex + i
		lineID := patch.LineID(parent.ID, index)
		html := ln.HTML
		if html == "" {
			html = escapeHTML(ln.Text)
		}
		props := map[string]any{"index": index, "text": ln.Text, "html": html}

		if index < len(parent.Children) {
			existing, ok := s.nodes[parent.Children[index]]
			if ok && existing.ID == lineID {
				_ = s.setProps(patch.At{NodeID: lineID}, props)

				continue
			}
		}

		node := &Node{ID: lineID, Type: "code-line", Props: props, ParentID: parent.ID}
		s.nodes[lineID] = node
		if index < len(parent.Children) {
			parent.Children[index] = lineID
		} else {
			parent.Children = append(parent.Children, lineID)
		}
	}
	parent.Version++

	return nil
}

// escapeHTML is the fallback used when a code line has no pre-highlighted
// HTML supplied, mirroring internal/highlight's escapeFallback.
func escapeHTML(line string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	return r.Replace(line)
}

func (s *Store) setHTML(at patch.At, payload *patch.SetHTMLPayload) error {
	id := at.NodeID
	if id == "" {
		id = at.BlockID
	}

	return s.setProps(patch.At{NodeID: id}, map[string]any{
		"html":      payload.HTML,
		"sanitized": payload.Sanitized,
		"policy":    payload.Policy,
	})
}

// CheckInvariants walks the graph from root and returns every
// violation it can detect of the children-uniqueness, code-line,
// table-row and list-depth invariants. Intended
// for tests and diagnostics, not the hot Apply path.
func (s *Store) CheckInvariants() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []error
	s.checkNode(s.rootID, &errs)

	return errs
}

func (s *Store) checkNode(id string, errs *[]error) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}

	seen := map[string]bool{}
	for _, c := range node.Children {
		if seen[c] {
			*errs = append(*errs, fmt.Errorf("store: duplicate child %q under %q", c, id))
		}
		seen[c] = true
	}

	if node.Type == "code-fence" || strings.HasSuffix(node.Type, "code-block") {
		for i, c := range node.Children {
			want := patch.LineID(node.ID, i)
			if c != want {
				*errs = append(*errs, fmt.Errorf("store: code-line normalization broken under %q at index %d: got %q want %q", id, i, c, want))

				continue
			}
			if child, ok := s.nodes[c]; ok {
				if idx, _ := child.Props["index"].(int); idx != i {
					*errs = append(*errs, fmt.Errorf("store: code-line index prop broken under %q at index %d: got %v want %d", id, i, child.Props["index"], i))
				}
			}
		}
	}

	if node.Type == "table-body" {
		for i, c := range node.Children {
			want := patch.TableRowID(node.ParentID, i)
			if c != want {
				*errs = append(*errs, fmt.Errorf("store: table-row normalization broken under %q at index %d: got %q want %q", id, i, c, want))
			}
		}
	}

	if node.Type == "list" || node.Type == "list-item" {
		want := s.depthOfLocked(id)
		got, _ := node.Props["depth"].(int)
		if got != want {
			*errs = append(*errs, fmt.Errorf("store: list-depth invariant broken at %q: got %d want %d", id, got, want))
		}
	}

	for _, c := range node.Children {
		s.checkNode(c, errs)
	}
}

// SortedNodeIDs returns every node id in the graph, sorted, for
// deterministic test output and Document.Snapshot JSON rendering.
func (s *Store) SortedNodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// DepthOf returns a list or list-item node's nesting depth among lists:
// a top-level list is 0, a list nested inside one of its items' lists
// is 1, and so on. A list-item shares its parent list's depth.
func (s *Store) DepthOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.depthOfLocked(id)
}

func (s *Store) depthOfLocked(id string) int {
	node, ok := s.nodes[id]
	if !ok {
		return 0
	}
	if node.Type == "list-item" {
		return s.depthOfLocked(node.ParentID)
	}

	depth := 0
	cur := node.ParentID
	for cur != "" && cur != s.rootID {
		anc, ok := s.nodes[cur]
		if !ok {
			break
		}
		if anc.Type == "list" {
			depth++
		}
		cur = anc.ParentID
	}

	return depth
}

// renormalizeListDepths recomputes the "depth" prop of id and every
// list/list-item descendant after a structural change, bumping each
// changed node's version. Called after insertChild/deleteChild/reorder
// on the mutated parent so the list-depth invariant never drifts.
func (s *Store) renormalizeListDepths(id string) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}

	if node.Type == "list" || node.Type == "list-item" {
		depth := s.depthOfLocked(id)
		if existing, had := node.Props["depth"].(int); !had || existing != depth {
			props := make(map[string]any, len(node.Props)+1)
			for k, v := range node.Props {
				props[k] = v
			}
			props["depth"] = depth
			node.Props = props
			node.Version++
		}
	}

	for _, c := range node.Children {
		s.renormalizeListDepths(c)
	}
}
