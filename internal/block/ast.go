// Package block implements the streaming block-level parser: it turns
// an append-only byte stream into a sequence of typed Block values,
// speculatively closing unclosed inline delimiters ("format
// anticipation") and retracting that speculation when it turns out
// wrong.
package block

import "hash/fnv"

// Kind identifies a block's structural role.
type Kind uint8

const (
	KindParagraph Kind = iota
	KindHeading
	KindCodeFence
	KindBlockquote
	KindList
	KindListItem
	KindTable
	KindFootnoteDef
	KindFootnotes
	KindCallout
	KindHTML
	KindMDXComponent
	KindThematicBreak
)

// String names a block kind.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindCodeFence:
		return "code-fence"
	case KindBlockquote:
		return "blockquote"
	case KindList:
		return "list"
	case KindListItem:
		return "list-item"
	case KindTable:
		return "table"
	case KindFootnoteDef:
		return "footnote-def"
	case KindFootnotes:
		return "footnotes"
	case KindCallout:
		return "callout"
	case KindHTML:
		return "html"
	case KindMDXComponent:
		return "mdx-component"
	case KindThematicBreak:
		return "thematic-break"
	default:
		return "unknown"
	}
}

// SegmentKind distinguishes the explicit mixed-segment kinds a run of
// inline content may contain.
type SegmentKind uint8

const (
	// SegmentText is plain run of inline text, possibly with marks.
	SegmentText SegmentKind = iota
	// SegmentCode is an inline code span.
	SegmentCode
	// SegmentLink is a link or autolink.
	SegmentLink
	// SegmentImage is an image reference.
	SegmentImage
	// SegmentFootnoteRef is a footnote reference (e.g. "[^1]").
	SegmentFootnoteRef
	// SegmentRawHTML is an inline raw HTML span.
	SegmentRawHTML
	// SegmentMDXExpression is an inline "{expr}" MDX expression.
	SegmentMDXExpression
	// SegmentMathInline is an inline "$...$" math span.
	SegmentMathInline
	// SegmentMathDisplay is a "$$...$$" display math span.
	SegmentMathDisplay
)

// Mark is a bitset of active inline emphasis/decoration marks.
type Mark uint8

const (
	MarkNone       Mark = 0
	MarkItalic     Mark = 1 << 0
	MarkBold       Mark = 1 << 1
	MarkStrike     Mark = 1 << 2
	MarkAnticipated Mark = 1 << 3 // this mark's closing delimiter has not actually been seen yet
)

// Segment is one mixed-content run within a block's inline sequence.
type Segment struct {
	Kind SegmentKind
	Text string
	Mark Mark

	// Link/Image fields.
	Href string
	Alt  string

	// FootnoteRef field.
	FootnoteLabel string
	// Number is the 1-based appearance-order number assigned to a
	// footnote-ref segment once the footnotes block is synthesized on
	// Finalize. Zero until then.
	Number int

	// RawHTML/MDXExpression/math field.
	Raw string

	// Anticipated is true when this segment's closing delimiter was
	// speculatively synthesized rather than actually observed in the
	// source text.
	Anticipated bool
}

// InlineNode is a parsed run of Segments belonging to one block.
type InlineNode struct {
	Segments []Segment
}

// CodeLine is one physical line inside a code fence block.
type CodeLine struct {
	Text string
	HTML string // set once internal/highlight has processed this line
}

// TableRow is one row of a table block.
type TableRow struct {
	Cells []InlineNode
}

// FootnoteItem is one entry of a synthesized footnotes block, in
// appearance order.
type FootnoteItem struct {
	Number int
	Label  string
}

// Block is one top-level (or nested, via Children) structural unit
// produced by the parser.
type Block struct {
	ID   string
	Kind Kind

	// Heading fields.
	Level int

	// Paragraph/Heading/Callout inline content.
	Inline InlineNode

	// CodeFence fields.
	Lang      string
	Meta      string
	Lines     []CodeLine
	Highlight bool

	// Table fields.
	Header    TableRow
	Alignment []string
	Rows      []TableRow

	// FootnoteDef fields.
	FootnoteLabel string

	// Footnotes fields (KindFootnotes, synthesized on Finalize).
	FootnoteItems []FootnoteItem

	// Callout fields.
	CalloutKind string // e.g. "note", "warning", "tip"

	// HTML fields.
	RawHTML string

	// MDXComponent fields.
	ComponentName string
	Props         map[string]string
	ModuleID      string // set once internal/mdxsvc resolves this component

	// Children holds nested blocks (list items, blockquote contents).
	Children []*Block

	// Finalized is true once no further mutation of this block is
	// expected absent an explicit Reset.
	Finalized bool

	// Start/End are byte offsets into the document's accumulated source.
	Start int
	End   int
}

// ContentHash returns an FNV-1a hash over the block's observable
// content plus its finalized state, used by the diff engine and the
// store to detect unchanged blocks across parses (mirrors Node.Hash()). A
// block that only transitions Finalized therefore hashes differently,
// so the diff engine never misses a finalize-only change.
func (b *Block) ContentHash() uint64 {
	h := fnv.New64a()
	b.writePayload(h)
	if b.Finalized {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}

	return h.Sum64()
}

// PayloadHash returns an FNV-1a hash over the block's observable
// content only, excluding Finalized. The diff engine uses this to
// decide whether a setProps patch is needed, independently of whether
// a finalize patch is also needed.
func (b *Block) PayloadHash() uint64 {
	h := fnv.New64a()
	b.writePayload(h)

	return h.Sum64()
}

func (b *Block) writePayload(h interface{ Write([]byte) (int, error) }) {
	_, _ = h.Write([]byte(b.Kind.String()))
	_, _ = h.Write([]byte{0})
	writeInline(h, b.Inline)
	for _, ln := range b.Lines {
		_, _ = h.Write([]byte(ln.Text))
		_, _ = h.Write([]byte{'\n'})
	}
	for _, cell := range b.Header.Cells {
		writeInline(h, cell)
	}
	for _, row := range b.Rows {
		for _, cell := range row.Cells {
			writeInline(h, cell)
		}
	}
	_, _ = h.Write([]byte(b.RawHTML))
	_, _ = h.Write([]byte(b.ComponentName))
	for _, item := range b.FootnoteItems {
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(item.Number >> (8 * i))
		}
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(item.Label))
	}
	for _, child := range b.Children {
		var buf [8]byte
		ch := child.ContentHash()
		for i := range buf {
			buf[i] = byte(ch >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
}

func writeInline(h interface{ Write([]byte) (int, error) }, in InlineNode) {
	for _, seg := range in.Segments {
		_, _ = h.Write([]byte{byte(seg.Kind), byte(seg.Mark)})
		_, _ = h.Write([]byte(seg.Text))
		_, _ = h.Write([]byte(seg.Raw))
		_, _ = h.Write([]byte(seg.Href))
		_, _ = h.Write([]byte(seg.Alt))
		_, _ = h.Write([]byte(seg.FootnoteLabel))
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(seg.Number >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
}
