// Package view renders a document's live renderer store to a terminal
// using a bubbletea program that continuously re-renders streamed
// Markdown.
package view

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

// RenderBlock renders one top-level block (and its children) to a
// plain-text, lipgloss-styled string, as shown in the live watch view.
func RenderBlock(b *block.Block, th *theme.Theme, selected bool) string {
	var sb strings.Builder
	renderBlock(&sb, b, th, 0)

	out := sb.String()
	if selected {
		out = lipgloss.NewStyle().Background(th.Highlight).Render(out)
	}

	return out
}

func renderBlock(sb *strings.Builder, b *block.Block, th *theme.Theme, depth int) {
	indent := strings.Repeat("  ", depth)

	switch b.Kind {
	case block.KindHeading:
		style := lipgloss.NewStyle().Bold(true).Foreground(th.Primary)
		prefix := strings.Repeat("#", maxInt(1, b.Level)) + " "
		sb.WriteString(indent + style.Render(prefix+renderInline(b.Inline, th)) + "\n")

	case block.KindParagraph:
		sb.WriteString(indent + renderInline(b.Inline, th) + "\n")

	case block.KindCodeFence:
		fenceStyle := lipgloss.NewStyle().Background(th.CodeFence)
		lang := b.Lang
		if lang == "" {
			lang = "text"
		}
		sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Muted).Render("```"+lang) + "\n")
		for _, line := range b.Lines {
			sb.WriteString(indent + fenceStyle.Render(line.Text) + "\n")
		}
		sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Muted).Render("```") + "\n")

	case block.KindBlockquote:
		barStyle := lipgloss.NewStyle().Foreground(th.Border)
		textStyle := lipgloss.NewStyle().Foreground(th.Muted)
		for _, child := range b.Children {
			var inner strings.Builder
			renderBlock(&inner, child, th, 0)
			for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
				sb.WriteString(indent + barStyle.Render("| ") + textStyle.Render(line) + "\n")
			}
		}

	case block.KindList:
		for _, child := range b.Children {
			renderBlock(sb, child, th, depth)
		}

	case block.KindListItem:
		sb.WriteString(indent + "- " + renderInline(b.Inline, th) + "\n")
		for _, child := range b.Children {
			renderBlock(sb, child, th, depth+1)
		}

	case block.KindTable:
		renderTable(sb, b, th, indent)

	case block.KindFootnoteDef:
		sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Muted).Render("[^"+b.FootnoteLabel+"]: ") + renderInline(b.Inline, th) + "\n")

	case block.KindFootnotes:
		renderFootnotes(sb, b, th, indent)

	case block.KindCallout:
		label := strings.ToUpper(b.CalloutKind)
		color := th.Primary
		switch b.CalloutKind {
		case "warning", "caution":
			color = th.Warning
		case "tip", "success":
			color = th.Success
		case "danger", "error":
			color = th.Error
		}
		style := lipgloss.NewStyle().Bold(true).Foreground(color)
		sb.WriteString(indent + style.Render("["+label+"] ") + renderInline(b.Inline, th) + "\n")

	case block.KindHTML:
		sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Muted).Render(b.RawHTML) + "\n")

	case block.KindMDXComponent:
		style := lipgloss.NewStyle().Foreground(th.Secondary).Bold(true)
		sb.WriteString(indent + style.Render("<"+b.ComponentName+"/>") + "\n")

	case block.KindThematicBreak:
		sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Border).Render(strings.Repeat("─", 40)) + "\n")

	default:
		sb.WriteString(indent + renderInline(b.Inline, th) + "\n")
	}
}

func renderFootnotes(sb *strings.Builder, b *block.Block, th *theme.Theme, indent string) {
	sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Border).Render(strings.Repeat("─", 20)) + "\n")
	numStyle := lipgloss.NewStyle().Foreground(th.Muted)
	for _, item := range b.FootnoteItems {
		var def *block.Block
		for _, child := range b.Children {
			if child.Kind == block.KindFootnoteDef && child.FootnoteLabel == item.Label {
				def = child

				break
			}
		}
		num := numStyle.Render(strconv.Itoa(item.Number) + ". ")
		if def == nil {
			sb.WriteString(indent + num + "\n")

			continue
		}
		sb.WriteString(indent + num + renderInline(def.Inline, th) + "\n")
	}
}

func renderTable(sb *strings.Builder, b *block.Block, th *theme.Theme, indent string) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(th.Header)
	cells := make([]string, 0, len(b.Header.Cells))
	for _, c := range b.Header.Cells {
		cells = append(cells, headerStyle.Render(renderInline(c, th)))
	}
	sb.WriteString(indent + strings.Join(cells, " | ") + "\n")
	sb.WriteString(indent + lipgloss.NewStyle().Foreground(th.Border).Render(strings.Repeat("-", 40)) + "\n")

	for _, row := range b.Rows {
		rowCells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			rowCells = append(rowCells, renderInline(c, th))
		}
		sb.WriteString(indent + strings.Join(rowCells, " | ") + "\n")
	}
}

func renderInline(in block.InlineNode, th *theme.Theme) string {
	var sb strings.Builder
	for _, seg := range in.Segments {
		sb.WriteString(renderSegment(seg, th))
	}

	return sb.String()
}

func renderSegment(seg block.Segment, th *theme.Theme) string {
	style := lipgloss.NewStyle()
	if seg.Mark&block.MarkBold != 0 {
		style = style.Bold(true)
	}
	if seg.Mark&block.MarkItalic != 0 {
		style = style.Italic(true)
	}
	if seg.Mark&block.MarkStrike != 0 {
		style = style.Strikethrough(true)
	}
	if seg.Anticipated {
		style = style.Faint(true)
	}

	switch seg.Kind {
	case block.SegmentCode:
		return lipgloss.NewStyle().Background(th.CodeFence).Render(seg.Text)
	case block.SegmentLink:
		return lipgloss.NewStyle().Foreground(th.Link).Underline(true).Render(seg.Text)
	case block.SegmentImage:
		return lipgloss.NewStyle().Foreground(th.Link).Render("![" + seg.Alt + "]")
	case block.SegmentFootnoteRef:
		label := seg.FootnoteLabel
		if seg.Number > 0 {
			label = strconv.Itoa(seg.Number)
		}

		return lipgloss.NewStyle().Foreground(th.Muted).Render("[^" + label + "]")
	case block.SegmentRawHTML:
		return lipgloss.NewStyle().Foreground(th.Muted).Render(seg.Raw)
	case block.SegmentMDXExpression:
		return lipgloss.NewStyle().Foreground(th.Secondary).Render("{" + seg.Raw + "}")
	case block.SegmentMathInline:
		return lipgloss.NewStyle().Foreground(th.Secondary).Render("$" + seg.Raw + "$")
	case block.SegmentMathDisplay:
		return lipgloss.NewStyle().Foreground(th.Secondary).Bold(true).Render("$$" + seg.Raw + "$$")
	default:
		return style.Render(seg.Text)
	}
}
