package block

import "strings"

// parseInline scans plain text for inline delimiters and returns a
// Segment sequence. Unclosed delimiters at the end of the text are
// "anticipated": the parser behaves as if the closer had already
// arrived, marking the affected segment so it can be retracted later
// if the real closer never shows up (see Finalize / retractAnticipated).
func (p *Parser) parseInline(text string) InlineNode {
	segs, _ := scanInline(text, 0)

	return InlineNode{Segments: segs}
}

type delimRun struct {
	mark Mark
	open string
}

var delimiters = []delimRun{
	{MarkStrike, "~~"},
	{MarkBold, "**"},
	{MarkItalic, "*"},
	{MarkItalic, "_"},
}

func scanInline(text string, baseMark Mark) ([]Segment, int) {
	var segs []Segment
	i := 0

	for i < len(text) {
		switch {
		case text[i] == '`':
			j := strings.IndexByte(text[i+1:], '`')
			if j == -1 {
				segs = append(segs, Segment{Kind: SegmentCode, Text: text[i+1:], Mark: baseMark | MarkAnticipated, Anticipated: true})
				i = len(text)

				continue
			}
			segs = append(segs, Segment{Kind: SegmentCode, Text: text[i+1 : i+1+j], Mark: baseMark})
			i = i + 1 + j + 1
		case text[i] == '{':
			j := strings.IndexByte(text[i+1:], '}')
			if j == -1 {
				segs = append(segs, Segment{Kind: SegmentMDXExpression, Raw: text[i+1:], Mark: baseMark | MarkAnticipated, Anticipated: true})
				i = len(text)

				continue
			}
			segs = append(segs, Segment{Kind: SegmentMDXExpression, Raw: text[i+1 : i+1+j]})
			i = i + 1 + j + 1
		case text[i] == '!' && i+1 < len(text) && text[i+1] == '[':
			alt, href, consumed, ok := parseLinkLike(text[i+1:])
			if ok {
				segs = append(segs, Segment{Kind: SegmentImage, Alt: alt, Href: href, Mark: baseMark})
				i += 1 + consumed

				continue
			}
			segs = append(segs, Segment{Kind: SegmentText, Text: string(text[i]), Mark: baseMark})
			i++
		case text[i] == '[' && i+1 < len(text) && text[i+1] == '^':
			j := strings.IndexByte(text[i:], ']')
			if j != -1 {
				label := text[i+2 : i+j]
				segs = append(segs, Segment{Kind: SegmentFootnoteRef, FootnoteLabel: label, Mark: baseMark})
				i += j + 1

				continue
			}
			segs = append(segs, Segment{Kind: SegmentText, Text: string(text[i]), Mark: baseMark})
			i++
		case text[i] == '[':
			alt, href, consumed, ok := parseLinkLike(text[i:])
			if ok {
				segs = append(segs, Segment{Kind: SegmentLink, Text: alt, Href: href, Mark: baseMark})
				i += consumed

				continue
			}
			segs = append(segs, Segment{Kind: SegmentText, Text: string(text[i]), Mark: baseMark})
			i++
		case text[i] == '<':
			j := strings.IndexByte(text[i:], '>')
			if j != -1 && looksLikeRawTag(text[i:i+j+1]) {
				segs = append(segs, Segment{Kind: SegmentRawHTML, Raw: text[i : i+j+1], Mark: baseMark})
				i += j + 1

				continue
			}
			segs = append(segs, Segment{Kind: SegmentText, Text: string(text[i]), Mark: baseMark})
			i++
		case text[i] == '$' && strings.HasPrefix(text[i:], "$$"):
			closeIdx := strings.Index(text[i+2:], "$$")
			if closeIdx == -1 {
				// Math has no format-anticipation support: an unclosed
				// delimiter stays plain text rather than speculatively
				// closing, unlike the other inline marks.
				segs = append(segs, Segment{Kind: SegmentText, Text: text[i:], Mark: baseMark})
				i = len(text)

				continue
			}
			segs = append(segs, Segment{Kind: SegmentMathDisplay, Raw: text[i+2 : i+2+closeIdx], Mark: baseMark})
			i = i + 2 + closeIdx + 2
		case text[i] == '$':
			closeIdx := strings.IndexByte(text[i+1:], '$')
			if closeIdx == -1 {
				segs = append(segs, Segment{Kind: SegmentText, Text: text[i:], Mark: baseMark})
				i = len(text)

				continue
			}
			segs = append(segs, Segment{Kind: SegmentMathInline, Raw: text[i+1 : i+1+closeIdx], Mark: baseMark})
			i = i + 1 + closeIdx + 1
		default:
			matched := false
			for _, d := range delimiters {
				if baseMark&d.mark != 0 {
					continue // already inside this mark, avoid re-opening
				}
				if !strings.HasPrefix(text[i:], d.open) {
					continue
				}
				closeIdx := strings.Index(text[i+len(d.open):], d.open)
				if closeIdx == -1 {
					inner, _ := scanInline(text[i+len(d.open):], baseMark|d.mark|MarkAnticipated)
					markAnticipated(inner)
					segs = append(segs, inner...)
					i = len(text)
					matched = true

					break
				}
				inner, _ := scanInline(text[i+len(d.open):i+len(d.open)+closeIdx], baseMark|d.mark)
				segs = append(segs, inner...)
				i = i + len(d.open) + closeIdx + len(d.open)
				matched = true

				break
			}
			if matched {
				continue
			}

			textStart := i
			for i < len(text) && !isInlineSpecial(text[i]) {
				i++
			}
			if i == textStart {
				i++
			}
			segs = append(segs, Segment{Kind: SegmentText, Text: text[textStart:i], Mark: baseMark})
		}
	}

	return coalesceText(segs), i
}

func markAnticipated(segs []Segment) {
	for i := range segs {
		segs[i].Mark |= MarkAnticipated
		segs[i].Anticipated = true
	}
}

func isInlineSpecial(c byte) bool {
	switch c {
	case '`', '*', '_', '~', '[', ']', '!', '<', '{', '}', '$':
		return true
	default:
		return false
	}
}

func looksLikeRawTag(s string) bool {
	if len(s) < 3 {
		return false
	}
	inner := s[1 : len(s)-1]
	inner = strings.TrimPrefix(inner, "/")

	return len(inner) > 0 && (inner[0] == '/' || isASCIILetter(inner[0]))
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseLinkLike parses "[text](href)" starting at s[0]=='['. Returns
// the consumed length relative to s.
func parseLinkLike(s string) (text, href string, consumed int, ok bool) {
	if len(s) == 0 || s[0] != '[' {
		return "", "", 0, false
	}
	closeBracket := strings.IndexByte(s, ']')
	if closeBracket == -1 || closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return "", "", 0, false
	}
	parenClose := strings.IndexByte(s[closeBracket+2:], ')')
	if parenClose == -1 {
		return "", "", 0, false
	}
	text = s[1:closeBracket]
	href = s[closeBracket+2 : closeBracket+2+parenClose]
	consumed = closeBracket + 2 + parenClose + 1

	return text, href, consumed, true
}

// coalesceText merges adjacent plain-text segments with identical
// marks, which scanInline's delimiter-by-delimiter loop tends to
// fragment.
func coalesceText(segs []Segment) []Segment {
	if len(segs) == 0 {
		return segs
	}

	out := segs[:1]
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if last.Kind == SegmentText && s.Kind == SegmentText && last.Mark == s.Mark {
			last.Text += s.Text

			continue
		}
		out = append(out, s)
	}

	return out
}
