// Package coalesce merges redundant or adjacent patches within a batch
// before they reach the renderer store, while preserving every
// observable effect of the uncoalesced sequence. It also times its own
// work, since that duration feeds the commit scheduler's adaptive
// budget. Patterned after track.CommitResult, which folds several
// small git operations into one observable result.
package coalesce

import (
	"time"

	"github.com/connerohnesorge/mdstream/internal/patch"
)

// Result is the outcome of coalescing one patch batch.
type Result struct {
	Patches  []patch.Patch
	Duration time.Duration
	Dropped  int // number of input patches absorbed into a merged patch
}

// Coalesce applies the five merge rules, in priority order, to in and
// returns the reduced patch sequence plus the wall-clock time spent.
//
// Rules, most to least aggressive:
//  1. Consecutive setProps to the same target collapse into one, later
//     keys overriding earlier ones; a patch.Undefined value is kept so
//     the store still deletes that key.
//  2. Consecutive appendLines to the same target with contiguous
//     StartIndex ranges merge into one appendLines.
//  3. A setProps immediately followed by a finalize on the same target
//     merges into one setProps carrying {"finalized": true}.
//  4. An insertChild immediately followed by a setProps on the node it
//     just inserted folds the props into the inserted node snapshot.
//  5. A run of two or more consecutive standalone setProps patches
//     sharing a parent block but targeting distinct nodes, with no
//     structural patch interleaved, converts to one setPropsBatch.
func Coalesce(in []patch.Patch) Result {
	start := time.Now()

	out := mergeSetProps(in)
	out = mergeAppendLines(out)
	out = mergeSetPropsFinalize(out)
	out = foldInsertThenSetProps(out)
	out = batchSetPropsRuns(out)
	out = mergeBatchEntries(out)

	return Result{
		Patches:  out,
		Duration: time.Since(start),
		Dropped:  len(in) - len(out),
	}
}

func targetKey(at patch.At) string {
	return at.BlockID + "\x00" + at.NodeID
}

// mergeSetProps folds consecutive SetProps patches sharing a target
// into one, keeping patch.Undefined markers so the store still deletes
// those keys.
func mergeSetProps(in []patch.Patch) []patch.Patch {
	out := make([]patch.Patch, 0, len(in))

	for _, p := range in {
		if p.Kind == patch.SetProps && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == patch.SetProps && targetKey(last.At) == targetKey(p.At) {
				merged := mergeProps(last.Props.Props, p.Props.Props)
				last.Props = &patch.SetPropsPayload{Props: merged}

				continue
			}
		}
		out = append(out, p)
	}

	return out
}

func mergeProps(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}

	return merged
}

// mergeAppendLines folds a run of AppendLines patches to the same
// target into one, provided each continues where the last left off.
func mergeAppendLines(in []patch.Patch) []patch.Patch {
	out := make([]patch.Patch, 0, len(in))

	for _, p := range in {
		if p.Kind == patch.AppendLines && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == patch.AppendLines &&
				targetKey(last.At) == targetKey(p.At) &&
				p.AppendLinesOp.StartIndex == last.AppendLinesOp.StartIndex+len(last.AppendLinesOp.Lines) {
				last.AppendLinesOp = &patch.AppendLinesPayload{
					StartIndex: last.AppendLinesOp.StartIndex,
					Lines:      append(append([]patch.CodeLine{}, last.AppendLinesOp.Lines...), p.AppendLinesOp.Lines...),
				}

				continue
			}
		}
		out = append(out, p)
	}

	return out
}

// mergeSetPropsFinalize merges a setProps immediately followed by a
// finalize targeting the same node into a single setProps carrying an
// added "finalized": true key, since the store applies Finalize as
// exactly that setProps under the hood.
func mergeSetPropsFinalize(in []patch.Patch) []patch.Patch {
	out := make([]patch.Patch, 0, len(in))

	for _, p := range in {
		if p.Kind == patch.Finalize && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == patch.SetProps && targetKey(last.At) == targetKey(p.At) {
				merged := mergeProps(last.Props.Props, map[string]any{"finalized": true})
				last.Props = &patch.SetPropsPayload{Props: merged}

				continue
			}
		}
		out = append(out, p)
	}

	return out
}

// foldInsertThenSetProps folds a setProps immediately following an
// insertChild for the node it just inserted into the insert's own node
// snapshot, so the store materializes the node with its final props in
// one structural edit instead of two.
func foldInsertThenSetProps(in []patch.Patch) []patch.Patch {
	out := make([]patch.Patch, 0, len(in))

	for _, p := range in {
		if p.Kind == patch.SetProps && len(out) > 0 {
			last := &out[len(out)-1]
			nodeID := p.At.NodeID
			if nodeID == "" {
				nodeID = p.At.BlockID
			}
			if last.Kind == patch.InsertChild && last.Insert.Node.ID == nodeID {
				node := last.Insert.Node
				props := make(map[string]any, len(node.Props)+len(p.Props.Props))
				for k, v := range node.Props {
					props[k] = v
				}
				for k, v := range p.Props.Props {
					if patch.IsUndefined(v) {
						delete(props, k)

						continue
					}
					props[k] = v
				}
				node.Props = props
				last.Insert = &patch.InsertChildPayload{Index: last.Insert.Index, Node: node}

				continue
			}
		}
		out = append(out, p)
	}

	return out
}

// batchSetPropsRuns converts a run of two or more consecutive
// standalone setProps patches that share a parent block but target
// distinct nodes into a single setPropsBatch, stopping the run at the
// first patch that isn't a setProps under the same parent or that
// repeats an already-seen target.
func batchSetPropsRuns(in []patch.Patch) []patch.Patch {
	var out []patch.Patch

	i := 0
	for i < len(in) {
		if in[i].Kind != patch.SetProps {
			out = append(out, in[i])
			i++

			continue
		}

		j := i + 1
		seen := map[string]bool{targetKey(in[i].At): true}
		blockID := in[i].At.BlockID
		for j < len(in) && in[j].Kind == patch.SetProps && in[j].At.BlockID == blockID {
			key := targetKey(in[j].At)
			if seen[key] {
				break
			}
			seen[key] = true
			j++
		}

		if j-i < 2 {
			out = append(out, in[i])
			i++

			continue
		}

		entries := make([]patch.BatchEntry, 0, j-i)
		for k := i; k < j; k++ {
			entries = append(entries, patch.BatchEntry{At: in[k].At, Props: *in[k].Props})
		}
		out = append(out, patch.NewSetPropsBatch(entries))
		i = j
	}

	return out
}

// mergeBatchEntries folds each SetPropsBatch into an immediately
// preceding one: an entry whose target the earlier batch already has
// merges into that entry by rule 1's logic, any other entry is appended.
func mergeBatchEntries(in []patch.Patch) []patch.Patch {
	out := make([]patch.Patch, 0, len(in))

	for _, p := range in {
		if p.Kind == patch.SetPropsBatch && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == patch.SetPropsBatch {
				last.PropsBatch = mergeEntries(last.PropsBatch, p.PropsBatch)

				continue
			}
		}
		out = append(out, p)
	}

	return out
}

func mergeEntries(base, overlay []patch.BatchEntry) []patch.BatchEntry {
	index := map[string]int{}
	merged := append([]patch.BatchEntry{}, base...)
	for i, e := range merged {
		index[targetKey(e.At)] = i
	}
	for _, e := range overlay {
		key := targetKey(e.At)
		if i, ok := index[key]; ok {
			merged[i].Props = patch.SetPropsPayload{Props: mergeProps(merged[i].Props.Props, e.Props.Props)}

			continue
		}
		index[key] = len(merged)
		merged = append(merged, e)
	}

	return merged
}
