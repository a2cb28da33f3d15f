package block

// synthesizeFootnotes walks the finalized block sequence, numbers every
// footnote-ref segment in appearance order against a matching
// footnote-def, and appends a KindFootnotes block enumerating those
// definitions. Refs with no matching def are left unnumbered.
func (p *Parser) synthesizeFootnotes() {
	defs := collectFootnoteDefs(p.blocks)
	if len(defs) == 0 {
		return
	}

	order := collectFootnoteRefOrder(p.blocks)
	if len(order) == 0 {
		return
	}

	numbers := map[string]int{}
	var items []FootnoteItem
	for _, label := range order {
		if _, ok := defs[label]; !ok {
			continue
		}
		if _, seen := numbers[label]; seen {
			continue
		}
		n := len(items) + 1
		numbers[label] = n
		items = append(items, FootnoteItem{Number: n, Label: label})
	}
	if len(items) == 0 {
		return
	}

	for _, b := range p.blocks {
		assignFootnoteNumbers(b, numbers)
	}

	p.blocks = append(p.blocks, p.newBlock(KindFootnotes, func(b *Block) {
		b.FootnoteItems = items
		b.Finalized = true
	}))
}

func collectFootnoteDefs(blocks []*Block) map[string]*Block {
	defs := map[string]*Block{}
	for _, b := range blocks {
		if b.Kind == KindFootnoteDef {
			defs[b.FootnoteLabel] = b
		}
	}

	return defs
}

// collectFootnoteRefOrder returns every footnote-ref label in the
// document, in first-appearance order, duplicates included (numbering
// dedups them).
func collectFootnoteRefOrder(blocks []*Block) []string {
	var order []string
	for _, b := range blocks {
		order = append(order, inlineFootnoteLabels(b.Inline)...)
		for _, cell := range b.Header.Cells {
			order = append(order, inlineFootnoteLabels(cell)...)
		}
		for _, row := range b.Rows {
			for _, cell := range row.Cells {
				order = append(order, inlineFootnoteLabels(cell)...)
			}
		}
		order = append(order, collectFootnoteRefOrder(b.Children)...)
	}

	return order
}

func inlineFootnoteLabels(in InlineNode) []string {
	var labels []string
	for _, seg := range in.Segments {
		if seg.Kind == SegmentFootnoteRef {
			labels = append(labels, seg.FootnoteLabel)
		}
	}

	return labels
}

func assignFootnoteNumbers(b *Block, numbers map[string]int) {
	assignInlineNumbers(&b.Inline, numbers)
	for i := range b.Header.Cells {
		assignInlineNumbers(&b.Header.Cells[i], numbers)
	}
	for i := range b.Rows {
		for j := range b.Rows[i].Cells {
			assignInlineNumbers(&b.Rows[i].Cells[j], numbers)
		}
	}
	for _, child := range b.Children {
		assignFootnoteNumbers(child, numbers)
	}
}

func assignInlineNumbers(in *InlineNode, numbers map[string]int) {
	for i := range in.Segments {
		seg := &in.Segments[i]
		if seg.Kind != SegmentFootnoteRef {
			continue
		}
		if n, ok := numbers[seg.FootnoteLabel]; ok {
			seg.Number = n
		}
	}
}
