package merge

import (
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// Join combines preds into a single BStore for a block with the given
// reachability status, per the four-step algorithm: dedupe identical
// predecessors, seed from the first, fold the rest in pairwise, then —
// if the destination is Certain with no outstanding clobber — commit
// straight into base and drop the local map.
func Join(base *block.Base, status block.Status, preds []*block.BStore) *block.BStore {
	preds = dedupeByIdentity(preds)

	if len(preds) == 0 {
		return block.New(base, status)
	}
	if len(preds) == 1 {
		return preds[0]
	}

	result := block.New(base, status)
	seed := preds[0]
	seed.Each(func(id ir.AId, h *heap.HStore) bool {
		result.PutLocal(id, h.Retain())
		return true
	})
	result.SetClobbered(seed.AllOthersClobbered())

	for _, p := range preds[1:] {
		result = mergeTwo(base, status, result, p)
	}

	if status == block.Certain && !result.AllOthersClobbered() {
		result.Each(func(id ir.AId, h *heap.HStore) bool {
			base.Commit(id, h)
			return true
		})
		result.ClearLocal()
	}
	return result
}

// dedupeByIdentity drops predecessors that are pointer-identical to one
// already kept (trivially merge-equal).
func dedupeByIdentity(preds []*block.BStore) []*block.BStore {
	out := make([]*block.BStore, 0, len(preds))
	for _, p := range preds {
		dup := false
		for _, o := range out {
			if o == p {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func mergeTwo(base *block.Base, status block.Status, dst, src *block.BStore) *block.BStore {
	result := block.New(base, status)
	eitherClobbered := dst.AllOthersClobbered() || src.AllOthersClobbered()

	if eitherClobbered {
		dst.Each(func(id ir.AId, h *heap.HStore) bool {
			if sh, ok := src.Local(id); ok {
				result.PutLocal(id, mergeHStore(h, sh))
			}
			return true
		})
		result.SetClobbered(true)
		return result
	}

	seen := make(map[ir.AId]bool)
	dst.Each(func(id ir.AId, h *heap.HStore) bool {
		seen[id] = true
		if sh, ok := src.Local(id); ok {
			result.PutLocal(id, mergeHStore(h, sh))
		} else {
			result.PutLocal(id, h.Retain())
		}
		return true
	})
	src.Each(func(id ir.AId, h *heap.HStore) bool {
		if !seen[id] {
			result.PutLocal(id, h.Retain())
		}
		return true
	})
	return result
}
