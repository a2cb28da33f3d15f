package coalesce

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/connerohnesorge/mdstream/internal/patch"
)

func TestCoalesceMergesSetProps(t *testing.T) {
	at := patch.At{BlockID: "b1", NodeID: "n1"}
	in := []patch.Patch{
		patch.NewSetProps(at, map[string]any{"a": 1}),
		patch.NewSetProps(at, map[string]any{"b": 2}),
		patch.NewSetProps(at, map[string]any{"a": patch.Undefined}),
	}

	res := Coalesce(in)
	assert.Equal(t, 1, len(res.Patches))
	props := res.Patches[0].Props.Props
	assert.True(t, patch.IsUndefined(props["a"]))
	assert.Equal(t, 2, props["b"])
}

func TestCoalesceMergesAppendLines(t *testing.T) {
	at := patch.At{BlockID: "c1"}
	in := []patch.Patch{
		patch.NewAppendLines(at, 0, []patch.CodeLine{{Index: 0, Text: "a"}}),
		patch.NewAppendLines(at, 1, []patch.CodeLine{{Index: 1, Text: "b"}}),
	}

	res := Coalesce(in)
	assert.Equal(t, 1, len(res.Patches))
	assert.Equal(t, 2, len(res.Patches[0].AppendLinesOp.Lines))
}

func TestCoalesceSetPropsThenFinalizeMerges(t *testing.T) {
	at := patch.At{BlockID: "b1"}
	in := []patch.Patch{
		patch.NewSetProps(at, map[string]any{"text": "hello"}),
		patch.NewFinalize(at),
	}

	res := Coalesce(in)
	assert.Equal(t, 1, len(res.Patches))
	assert.Equal(t, patch.SetProps, res.Patches[0].Kind)
	props := res.Patches[0].Props.Props
	assert.Equal(t, "hello", props["text"])
	assert.Equal(t, true, props["finalized"])
}

func TestCoalesceInsertThenSetPropsFolds(t *testing.T) {
	at := patch.At{BlockID: "b1"}
	in := []patch.Patch{
		patch.NewInsertChild(at, 0, patch.NodeSnapshot{ID: "x", Props: map[string]any{"a": 1}}),
		patch.NewSetProps(patch.At{BlockID: "x"}, map[string]any{"b": 2}),
	}

	res := Coalesce(in)
	assert.Equal(t, 1, len(res.Patches))
	assert.Equal(t, patch.InsertChild, res.Patches[0].Kind)
	assert.Equal(t, 1, res.Patches[0].Insert.Node.Props["a"])
	assert.Equal(t, 2, res.Patches[0].Insert.Node.Props["b"])
}

func TestCoalesceBatchesUnrelatedSetProps(t *testing.T) {
	in := []patch.Patch{
		patch.NewSetProps(patch.At{BlockID: "b1", NodeID: "n1"}, map[string]any{"a": 1}),
		patch.NewSetProps(patch.At{BlockID: "b1", NodeID: "n2"}, map[string]any{"b": 2}),
		patch.NewSetProps(patch.At{BlockID: "b1", NodeID: "n3"}, map[string]any{"c": 3}),
	}

	res := Coalesce(in)
	assert.Equal(t, 1, len(res.Patches))
	assert.Equal(t, patch.SetPropsBatch, res.Patches[0].Kind)
	assert.Equal(t, 3, len(res.Patches[0].PropsBatch))
}

func TestCoalescePreservesUnrelatedOrder(t *testing.T) {
	a := patch.NewFinalize(patch.At{BlockID: "b1"})
	b := patch.NewFinalize(patch.At{BlockID: "b2"})

	res := Coalesce([]patch.Patch{a, b})
	assert.Equal(t, 2, len(res.Patches))
	assert.Equal(t, "b1", res.Patches[0].At.BlockID)
	assert.Equal(t, "b2", res.Patches[1].At.BlockID)
}
