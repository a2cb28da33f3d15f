package patch

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{InsertChild, "insertChild"},
		{DeleteChild, "deleteChild"},
		{ReplaceChild, "replaceChild"},
		{SetProps, "setProps"},
		{SetPropsBatch, "setPropsBatch"},
		{Reorder, "reorder"},
		{Finalize, "finalize"},
		{AppendLines, "appendLines"},
		{SetHTML, "setHTML"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.kind.String())
	}
}

func TestIsUndefined(t *testing.T) {
	assert.True(t, IsUndefined(Undefined))
	assert.False(t, IsUndefined(nil))
	assert.False(t, IsUndefined("x"))
}

func TestNewReorderPanicsOnZeroCount(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for count < 1")
		}
	}()
	NewReorder(At{BlockID: "b1"}, 0, 1, 0)
}

func TestToRecordInsertChild(t *testing.T) {
	p := NewInsertChild(At{BlockID: "b1"}, 2, NodeSnapshot{ID: "n1", Type: "paragraph"})
	rec := p.ToRecord()
	assert.Equal(t, "insertChild", rec.Kind)
	assert.Equal(t, "b1", rec.At.BlockID)
	assert.Equal(t, 2, rec.Data["index"])
}

func TestToRecordSetProps(t *testing.T) {
	p := NewSetProps(At{BlockID: "b1", NodeID: "n1"}, map[string]any{"text": "hi"})
	rec := p.ToRecord()
	assert.Equal(t, "setProps", rec.Kind)
	assert.Equal(t, "n1", rec.At.NodeID)
	props, ok := rec.Data["props"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "hi", props["text"])
}

func TestLineID(t *testing.T) {
	assert.Equal(t, "b1::line:0", LineID("b1", 0))
	assert.Equal(t, "b1::line:12", LineID("b1", 12))
}

func TestNewAppendLinesAndSetHTML(t *testing.T) {
	p := NewAppendLines(At{BlockID: "b1"}, 3, []CodeLine{{Index: 3, Text: "x"}})
	assert.Equal(t, AppendLines, p.Kind)
	assert.Equal(t, 3, p.AppendLinesOp.StartIndex)

	h := NewSetHTML(At{BlockID: "b2"}, "<b>hi</b>", "<b>hi</b>", "strict", nil, nil)
	assert.Equal(t, SetHTML, h.Kind)
	assert.Equal(t, "strict", h.SetHTMLOp.Policy)
}

func TestNewSetPropsBatch(t *testing.T) {
	entries := []BatchEntry{
		{At: At{BlockID: "b1", NodeID: "n1"}, Props: SetPropsPayload{Props: map[string]any{"a": 1}}},
		{At: At{BlockID: "b1", NodeID: "n2"}, Props: SetPropsPayload{Props: map[string]any{"b": 2}}},
	}
	p := NewSetPropsBatch(entries)
	assert.Equal(t, SetPropsBatch, p.Kind)
	assert.Equal(t, 2, len(p.PropsBatch))
}
