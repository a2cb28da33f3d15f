// Package patch defines the typed mutation vocabulary shared by the
// diff engine, the coalescer, and the renderer store. A Patch is the
// atomic unit of change crossing the parser/store boundary: the diff
// engine produces patches, the coalescer merges them, and the store
// applies them. All three agree on exactly this vocabulary and nothing
// else.
package patch

// Kind identifies which variant of Patch is populated.
type Kind uint8

const (
	// InsertChild inserts a subtree at an index under a parent.
	InsertChild Kind = iota
	// DeleteChild removes the child at an index under a parent.
	DeleteChild
	// ReplaceChild removes then inserts at the same index, atomically.
	ReplaceChild
	// SetProps shallow-merges a props record onto a node.
	SetProps
	// SetPropsBatch applies an ordered vector of SetProps.
	SetPropsBatch
	// Reorder moves a contiguous run of siblings.
	Reorder
	// Finalize marks a block finalized.
	Finalize
	// AppendLines inserts or overwrites code-line children.
	AppendLines
	// SetHTML replaces a raw-HTML block's inner HTML.
	SetHTML
)

// String returns a human-readable name for the patch kind.
func (k Kind) String() string {
	switch k {
	case InsertChild:
		return "insertChild"
	case DeleteChild:
		return "deleteChild"
	case ReplaceChild:
		return "replaceChild"
	case SetProps:
		return "setProps"
	case SetPropsBatch:
		return "setPropsBatch"
	case Reorder:
		return "reorder"
	case Finalize:
		return "finalize"
	case AppendLines:
		return "appendLines"
	case SetHTML:
		return "setHTML"
	default:
		return "unknown"
	}
}

// Undefined is the sentinel value used in a props record to mean
// "delete this key" rather than "set this key to nil". Go's nil already
// means "absent from the map", so props maps must use Undefined
// explicitly to request deletion of a previously-set key.
var Undefined = &struct{ undefined byte }{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	return v == Undefined
}

// At addresses the target of a patch. BlockID is always present.
// NodeID addresses a node below the block (sub-block targeting, e.g. a
// code-line or an inline segment). IndexPath addresses siblings
// positionally when a patch must be applied before ids are assigned
// (e.g. a fresh insertChild's own id is inside Node, not At).
type At struct {
	BlockID   string
	NodeID    string
	IndexPath []int
}

// NodeSnapshot is the payload carried by InsertChild/ReplaceChild: a
// whole subtree to graft into the store. Block, when non-nil, is a
// *block.Block (kept as `any` here so the patch vocabulary stays a leaf
// package with no dependency on the block parser's types).
type NodeSnapshot struct {
	ID       string
	Type     string
	Props    map[string]any
	Children []NodeSnapshot
	Range    *Range
	Block    any
}

// Range is an optional byte-offset span associated with a node.
type Range struct {
	Start int
	End   int
}

// InsertChildPayload is the payload for Kind == InsertChild.
type InsertChildPayload struct {
	Index int
	Node  NodeSnapshot
}

// DeleteChildPayload is the payload for Kind == DeleteChild.
type DeleteChildPayload struct {
	Index int
}

// ReplaceChildPayload is the payload for Kind == ReplaceChild.
type ReplaceChildPayload struct {
	Index int
	Node  NodeSnapshot
}

// SetPropsPayload is the payload for Kind == SetProps. Props is a
// shallow-merge record; a value equal to Undefined deletes that key.
// The reserved key "block" carries a whole block.Block snapshot (again
// typed `any` to avoid an import cycle) and triggers derived-metadata
// re-extraction in the store.
type SetPropsPayload struct {
	Props map[string]any
}

// ReorderPayload is the payload for Kind == Reorder. Count must be >= 1.
type ReorderPayload struct {
	From  int
	To    int
	Count int
}

// FinalizePayload is the payload for Kind == Finalize.
type FinalizePayload struct{}

// CodeLine is one line of an appendLines/setProps payload.
type CodeLine struct {
	Index int
	Text  string
	HTML  string // optional pre-highlighted HTML; empty means "not yet highlighted"
}

// AppendLinesPayload is the payload for Kind == AppendLines. StartIndex
// is the 0-based index of the first line in Lines; line ids are derived
// as "<parent>::line:<index>".
type AppendLinesPayload struct {
	StartIndex int
	Lines      []CodeLine
}

// SetHTMLPayload is the payload for Kind == SetHTML.
type SetHTMLPayload struct {
	HTML      string
	Sanitized string
	Policy    string
	Meta      map[string]any
	Block     any
}

// Patch is the tagged union of all mutation variants. Exactly one of
// the payload pointers (or SetPropsBatch) is non-nil, selected by Kind.
type Patch struct {
	Kind Kind
	At   At

	Insert        *InsertChildPayload
	Delete        *DeleteChildPayload
	Replace       *ReplaceChildPayload
	Props         *SetPropsPayload
	PropsBatch    []BatchEntry
	ReorderOp     *ReorderPayload
	FinalizeOp    *FinalizePayload
	AppendLinesOp *AppendLinesPayload
	SetHTMLOp     *SetHTMLPayload
}

// BatchEntry pairs a target with its SetProps payload inside a
// SetPropsBatch patch.
type BatchEntry struct {
	At    At
	Props SetPropsPayload
}

// Record is the neutral, serializable representation of a Patch used
// for framing across the parser/store message boundary (spec: "every
// variant is serializable to a neutral record").
type Record struct {
	Kind string         `json:"kind"`
	At   RecordAt       `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// RecordAt is the neutral representation of At.
type RecordAt struct {
	BlockID   string `json:"blockId"`
	NodeID    string `json:"nodeId,omitempty"`
	IndexPath []int  `json:"indexPath,omitempty"`
}

// ToRecord converts a Patch into its neutral, serializable form.
func (p Patch) ToRecord() Record {
	rec := Record{
		Kind: p.Kind.String(),
		At: RecordAt{
			BlockID:   p.At.BlockID,
			NodeID:    p.At.NodeID,
			IndexPath: p.At.IndexPath,
		},
	}

	switch p.Kind {
	case InsertChild:
		if p.Insert != nil {
			rec.Data = map[string]any{"index": p.Insert.Index, "node": p.Insert.Node}
		}
	case DeleteChild:
		if p.Delete != nil {
			rec.Data = map[string]any{"index": p.Delete.Index}
		}
	case ReplaceChild:
		if p.Replace != nil {
			rec.Data = map[string]any{"index": p.Replace.Index, "node": p.Replace.Node}
		}
	case SetProps:
		if p.Props != nil {
			rec.Data = map[string]any{"props": p.Props.Props}
		}
	case SetPropsBatch:
		rec.Data = map[string]any{"entries": p.PropsBatch}
	case Reorder:
		if p.ReorderOp != nil {
			rec.Data = map[string]any{
				"from":  p.ReorderOp.From,
				"to":    p.ReorderOp.To,
				"count": p.ReorderOp.Count,
			}
		}
	case Finalize:
		// no payload
	case AppendLines:
		if p.AppendLinesOp != nil {
			rec.Data = map[string]any{
				"startIndex": p.AppendLinesOp.StartIndex,
				"lines":      p.AppendLinesOp.Lines,
			}
		}
	case SetHTML:
		if p.SetHTMLOp != nil {
			rec.Data = map[string]any{
				"html":      p.SetHTMLOp.HTML,
				"sanitized": p.SetHTMLOp.Sanitized,
				"policy":    p.SetHTMLOp.Policy,
				"meta":      p.SetHTMLOp.Meta,
			}
		}
	}

	return rec
}

// NewSetProps builds a SetProps patch targeting a block.
func NewSetProps(at At, props map[string]any) Patch {
	return Patch{Kind: SetProps, At: at, Props: &SetPropsPayload{Props: props}}
}

// NewFinalize builds a Finalize patch targeting a block.
func NewFinalize(at At) Patch {
	return Patch{Kind: Finalize, At: at, FinalizeOp: &FinalizePayload{}}
}

// NewInsertChild builds an InsertChild patch.
func NewInsertChild(at At, index int, node NodeSnapshot) Patch {
	return Patch{Kind: InsertChild, At: at, Insert: &InsertChildPayload{Index: index, Node: node}}
}

// NewDeleteChild builds a DeleteChild patch.
func NewDeleteChild(at At, index int) Patch {
	return Patch{Kind: DeleteChild, At: at, Delete: &DeleteChildPayload{Index: index}}
}

// NewReplaceChild builds a ReplaceChild patch.
func NewReplaceChild(at At, index int, node NodeSnapshot) Patch {
	return Patch{Kind: ReplaceChild, At: at, Replace: &ReplaceChildPayload{Index: index, Node: node}}
}

// NewReorder builds a Reorder patch. Panics if count < 1, matching the
// spec invariant "reorder count >= 1" being a programmer error to
// violate from within this module.
func NewReorder(at At, from, to, count int) Patch {
	if count < 1 {
		panic("patch: reorder count must be >= 1")
	}

	return Patch{Kind: Reorder, At: at, ReorderOp: &ReorderPayload{From: from, To: to, Count: count}}
}

// NewAppendLines builds an AppendLines patch.
func NewAppendLines(at At, startIndex int, lines []CodeLine) Patch {
	return Patch{
		Kind: AppendLines,
		At:   at,
		AppendLinesOp: &AppendLinesPayload{
			StartIndex: startIndex,
			Lines:      lines,
		},
	}
}

// NewSetHTML builds a SetHTML patch.
func NewSetHTML(at At, html, sanitized, policy string, meta map[string]any, block any) Patch {
	return Patch{
		Kind: SetHTML,
		At:   at,
		SetHTMLOp: &SetHTMLPayload{
			HTML:      html,
			Sanitized: sanitized,
			Policy:    policy,
			Meta:      meta,
			Block:     block,
		},
	}
}

// NewSetPropsBatch builds a SetPropsBatch patch from an ordered vector
// of (At, props) entries.
func NewSetPropsBatch(entries []BatchEntry) Patch {
	return Patch{Kind: SetPropsBatch, PropsBatch: entries}
}

// LineID returns the id of the i-th code-line child of parentID, using
// the "<parent>::line:<index>" convention.
func LineID(parentID string, index int) string {
	return parentID + "::line:" + itoa(index)
}

// TableHeaderID returns the id of a table block's header row sub-node.
func TableHeaderID(tableID string) string {
	return tableID + "::header"
}

// TableHeaderCellID returns the id of the i-th cell of a table's header row.
func TableHeaderCellID(tableID string, index int) string {
	return TableHeaderID(tableID) + ":cell:" + itoa(index)
}

// TableBodyID returns the id of a table block's body sub-node, the
// parent of its row sub-nodes.
func TableBodyID(tableID string) string {
	return tableID + "::body"
}

// TableRowID returns the id of the i-th body row of a table.
func TableRowID(tableID string, index int) string {
	return TableBodyID(tableID) + ":row:" + itoa(index)
}

// TableCellID returns the id of the j-th cell of the i-th body row of a
// table.
func TableCellID(tableID string, row, col int) string {
	return TableRowID(tableID, row) + ":cell:" + itoa(col)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
