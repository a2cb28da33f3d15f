package view

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

func TestRenderBlockHeading(t *testing.T) {
	th, err := theme.Get("default")
	assert.NoError(t, err)

	b := &block.Block{
		Kind:   block.KindHeading,
		Level:  2,
		Inline: block.InlineNode{Segments: []block.Segment{{Kind: block.SegmentText, Text: "Title"}}},
	}

	out := RenderBlock(b, th, false)
	assert.True(t, strings.Contains(out, "Title"))
	assert.True(t, strings.Contains(out, "##"))
}

func TestRenderBlockCodeFenceIncludesLines(t *testing.T) {
	th, _ := theme.Get("default")
	b := &block.Block{
		Kind: block.KindCodeFence,
		Lang: "go",
		Lines: []block.CodeLine{
			{Text: "func main() {}"},
		},
	}

	out := RenderBlock(b, th, false)
	assert.True(t, strings.Contains(out, "func main() {}"))
	assert.True(t, strings.Contains(out, "```go"))
}

func TestRenderBlockSelectedAppliesBackground(t *testing.T) {
	th, _ := theme.Get("default")
	b := &block.Block{
		Kind:   block.KindParagraph,
		Inline: block.InlineNode{Segments: []block.Segment{{Kind: block.SegmentText, Text: "hello"}}},
	}

	plain := RenderBlock(b, th, false)
	selected := RenderBlock(b, th, true)
	assert.NotEqual(t, plain, selected)
	assert.True(t, strings.Contains(selected, "hello"))
}
