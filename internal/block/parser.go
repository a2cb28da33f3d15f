package block

import (
	"strconv"
	"strings"
)

// Parser is a streaming block-level parser. Call Init once, Append as
// new bytes arrive, and Finalize when the source stream ends. Blocks
// returns the current, possibly-provisional, block sequence at any
// point — including mid-stream, before Finalize.
//
// The parser re-derives its block sequence from the full accumulated
// source on every Append. This is deliberately simple (mirrors the
// full-reparse-by-default mdparser.Parser): finalized leading blocks
// are re-parsed too, and the helpers in incremental.go are not called
// from this path.
type Parser struct {
	source    strings.Builder
	blocks    []*Block
	nextID    int
	finalized bool
}

// Init resets the parser to a fresh, empty state.
func (p *Parser) Init() {
	p.source.Reset()
	p.blocks = nil
	p.nextID = 0
	p.finalized = false
}

// Reset is an alias for Init, kept as its own named operation for
// callers that want to signal intent explicitly.
func (p *Parser) Reset() { p.Init() }

// Append adds a chunk of raw Markdown/MDX text to the stream and
// re-derives the block sequence. It is a no-op after Finalize.
func (p *Parser) Append(chunk string) {
	if p.finalized {
		return
	}
	p.source.WriteString(chunk)
	p.reparse(false)
}

// Finalize marks the stream complete: any still-open code fence is
// closed as-is, and any anticipated (speculatively closed) inline
// delimiter that never received a real closer is retracted back to
// plain text. A footnotes block enumerating every referenced
// definition, in appearance order, is synthesized and appended; this
// synthesis happens once, on the first Finalize after Init/Reset.
func (p *Parser) Finalize() {
	p.reparse(true)
	p.finalized = true
	for _, b := range p.blocks {
		finalizeBlock(b)
	}
	p.synthesizeFootnotes()
}

func finalizeBlock(b *Block) {
	b.Finalized = true
	retractAnticipated(&b.Inline)
	for i := range b.Rows {
		for j := range b.Rows[i].Cells {
			retractAnticipated(&b.Rows[i].Cells[j])
		}
	}
	for _, child := range b.Children {
		finalizeBlock(child)
	}
}

func retractAnticipated(in *InlineNode) {
	out := in.Segments[:0]
	for _, seg := range in.Segments {
		if seg.Anticipated {
			seg.Mark &^= MarkAnticipated
			seg.Anticipated = false
		}
		out = append(out, seg)
	}
	in.Segments = out
}

// Blocks returns the current block sequence. The slice and its
// elements must not be mutated by callers; the diff engine compares
// this sequence against the previous call's sequence to produce
// patches.
func (p *Parser) Blocks() []*Block {
	return p.blocks
}

// Finalized reports whether Finalize has been called.
func (p *Parser) Finalized() bool {
	return p.finalized
}

func (p *Parser) reparse(final bool) {
	src := p.source.String()
	lex := newLineLexer(src)
	lines := lex.lexAll()
	p.nextID = 0
	p.blocks = p.buildBlocks(lines, final)
}

// buildBlocks groups classified Lines into Block values. It is a
// single linear pass with small lookahead for multi-line constructs
// (code fences, tables, lists).
func (p *Parser) buildBlocks(lines []Line, final bool) []*Block {
	var blocks []*Block

	i := 0
	for i < len(lines) {
		ln := lines[i]

		switch ln.Kind {
		case LineBlank:
			i++
		case LineHeading:
			blocks = append(blocks, p.newBlock(KindHeading, func(b *Block) {
				b.Level = ln.Level
				b.Inline = p.parseInline(ln.Text)
			}))
			i++
		case LineThematicBreak:
			blocks = append(blocks, p.newBlock(KindThematicBreak, nil))
			i++
		case LineCodeFence:
			j := i + 1
			var lines2 []CodeLine
			langText := strings.TrimSpace(strings.TrimPrefix(ln.Text, "```"))
			langText = strings.TrimPrefix(langText, "~~~")
			lang := strings.TrimSpace(langText)
			closed := false
			for j < len(lines) {
				if lines[j].Kind == LineCodeFence {
					closed = true

					break
				}
				lines2 = append(lines2, CodeLine{Text: lines[j].Text})
				j++
			}
			end := j
			if closed {
				end = j + 1
			}
			blocks = append(blocks, p.newBlock(KindCodeFence, func(b *Block) {
				b.Lang = lang
				b.Lines = lines2
			}))
			i = end
		case LineFootnoteDef:
			blocks = append(blocks, p.newBlock(KindFootnoteDef, func(b *Block) {
				b.FootnoteLabel = ln.Marker
				b.Inline = p.parseInline(ln.Text)
			}))
			i++
		case LineCalloutStart:
			j := i + 1
			var body []string
			body = append(body, ln.Text)
			for j < len(lines) && lines[j].Kind == LineBlockquote {
				body = append(body, lines[j].Text)
				j++
			}
			blocks = append(blocks, p.newBlock(KindCallout, func(b *Block) {
				b.CalloutKind = calloutKindFor(lines[i].Marker)
				b.Inline = p.parseInline(strings.Join(body, " "))
			}))
			i = j
		case LineBlockquote:
			j := i
			var body []string
			for j < len(lines) && lines[j].Kind == LineBlockquote {
				body = append(body, lines[j].Text)
				j++
			}
			blocks = append(blocks, p.newBlock(KindBlockquote, func(b *Block) {
				b.Inline = p.parseInline(strings.Join(body, " "))
			}))
			i = j
		case LineListItem:
			j := i
			var items []*Block
			for j < len(lines) && lines[j].Kind == LineListItem {
				text := lines[j].Text
				ordered := lines[j].Ordered
				items = append(items, p.newBlock(KindListItem, func(b *Block) {
					b.Inline = p.parseInline(text)
				}))
				_ = ordered
				j++
			}
			ordered := ln.Ordered
			blocks = append(blocks, p.newBlock(KindList, func(b *Block) {
				b.Children = items
				if ordered {
					b.Meta = "ordered"
				} else {
					b.Meta = "unordered"
				}
			}))
			i = j
		case LineTableRow:
			j := i
			header := parseTableRow(ln.Text, p)
			j++
			var alignment []string
			if j < len(lines) && lines[j].Kind == LineTableSeparator {
				alignment = parseTableAlignment(lines[j].Text)
				j++
			}
			var rows []TableRow
			for j < len(lines) && lines[j].Kind == LineTableRow {
				rows = append(rows, TableRow{Cells: parseTableRowCells(lines[j].Text, p)})
				j++
			}
			blocks = append(blocks, p.newBlock(KindTable, func(b *Block) {
				b.Header = TableRow{Cells: header}
				b.Alignment = alignment
				b.Rows = rows
			}))
			i = j
		case LineMDXOpenTag:
			name, props := parseMDXOpenTag(ln.Text)
			blocks = append(blocks, p.newBlock(KindMDXComponent, func(b *Block) {
				b.ComponentName = name
				b.Props = props
			}))
			i++
		case LineHTML:
			j := i + 1
			raw := []string{ln.Text}
			for j < len(lines) && lines[j].Kind == LineText {
				raw = append(raw, lines[j].Text)
				j++
			}
			blocks = append(blocks, p.newBlock(KindHTML, func(b *Block) {
				b.RawHTML = strings.Join(raw, "\n")
			}))
			i = j
		default: // LineText and anything else starts/continues a paragraph
			j := i
			var text []string
			for j < len(lines) && (lines[j].Kind == LineText) {
				text = append(text, lines[j].Text)
				j++
			}
			if len(text) == 0 {
				text = append(text, ln.Text)
				j = i + 1
			}
			blocks = append(blocks, p.newBlock(KindParagraph, func(b *Block) {
				b.Inline = p.parseInline(strings.Join(text, " "))
			}))
			i = j
		}
	}

	return blocks
}

func calloutKindFor(tag string) string {
	switch tag {
	case "warning", "caution", "danger":
		return tag
	case "tip", "note", "important":
		return tag
	default:
		return "note"
	}
}

func parseTableRow(text string, p *Parser) []InlineNode {
	return parseTableRowCells(text, p)
}

func parseTableRowCells(text string, p *Parser) []InlineNode {
	t := strings.Trim(strings.TrimSpace(text), "|")
	parts := strings.Split(t, "|")
	cells := make([]InlineNode, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, p.parseInline(strings.TrimSpace(part)))
	}

	return cells
}

func parseTableAlignment(text string) []string {
	t := strings.Trim(strings.TrimSpace(text), "|")
	parts := strings.Split(t, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		left := strings.HasPrefix(part, ":")
		right := strings.HasSuffix(part, ":")
		switch {
		case left && right:
			out = append(out, "center")
		case right:
			out = append(out, "right")
		case left:
			out = append(out, "left")
		default:
			out = append(out, "")
		}
	}

	return out
}

func parseMDXOpenTag(text string) (name string, props map[string]string) {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "<")
	t = strings.TrimSuffix(t, "/>")
	t = strings.TrimSuffix(t, ">")
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return "", nil
	}
	name = fields[0]
	props = map[string]string{}
	for _, f := range fields[1:] {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) == 2 {
			props[kv[0]] = strings.Trim(kv[1], `"`)
		} else {
			props[kv[0]] = "true"
		}
	}

	return name, props
}

func (p *Parser) newBlock(kind Kind, fill func(*Block)) *Block {
	b := &Block{ID: p.allocID(kind), Kind: kind}
	if fill != nil {
		fill(b)
	}

	return b
}

func (p *Parser) allocID(kind Kind) string {
	id := kind.String() + "-" + strconv.Itoa(p.nextID)
	p.nextID++

	return id
}
