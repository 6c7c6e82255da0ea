// Package merge implements the join algorithm at CFG basic-block
// boundaries: combining N predecessor BStores into one, walking
// shared baseline delegation chains to their common ancestor so only
// each side's genuinely private writes need reconciling.
package merge

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// commonAncestor walks a's baseline chain, then b's, returning the
// first HStore reachable from both. Termination is guaranteed: baseline
// chains are finite DAGs and the search marks every node it visits.
func commonAncestor(a, b *heap.HStore) *heap.HStore {
	visited := make(map[*heap.HStore]bool)
	for n := a; n != nil; n = n.Baseline() {
		visited[n] = true
	}
	for n := b; n != nil; n = n.Baseline() {
		if visited[n] {
			return n
		}
	}
	return nil
}

// mergeHStore combines a and b into a fresh HStore. Both-Single merges
// their Vals directly; otherwise each side's writes since the common
// ancestor are reconciled byte-range by byte-range and built into a new
// Multi baselined on that ancestor.
func mergeHStore(a, b *heap.HStore) *heap.HStore {
	if a.Variant() == heap.VariantSingle {
		if va := heap.ReadRange(a, 0, a.Size()); va.IsOverdefined() {
			return a // already top; merging can't add information
		}
	}
	if b.Variant() == heap.VariantSingle {
		if vb := heap.ReadRange(b, 0, b.Size()); vb.IsOverdefined() {
			return b
		}
	}

	size := a.Size()
	if size == ir.UnknownSize {
		size = b.Size()
	}

	if a.Variant() == heap.VariantSingle && b.Variant() == heap.VariantSingle {
		va := heap.ReadRange(a, 0, size)
		vb := heap.ReadRange(b, 0, size)
		return heap.NewSingle(av.Merge(va, vb), a.TypeHint())
	}

	ancestor := commonAncestor(a, b)
	aExt := heap.ReadRangeMultiStopAt(a, 0, size, ancestor)
	bExt := heap.ReadRangeMultiStopAt(b, 0, size, ancestor)
	merged := mergeExtentLists(aExt, bExt, ancestor, size)

	nh := heap.NewMulti(ancestor)
	return heap.ReplaceRangeWithPBs(nh, merged, 0, size)
}

// mergeExtentLists reconciles two disjoint, sorted extent lists
// (each already stopped at ancestor) over [0, size): bytes both sides
// privately wrote merge directly; bytes only one side wrote merge
// against the ancestor's own contents for that range; bytes neither
// side wrote are left as a gap, deferring to the new Multi's ancestor
// baseline.
func mergeExtentLists(aExt, bExt []heap.Extent, ancestor *heap.HStore, size ir.ByteSize) []heap.Extent {
	bounds := map[ir.ByteSize]bool{0: true, size: true}
	for _, e := range aExt {
		bounds[e.Lo] = true
		bounds[e.Hi] = true
	}
	for _, e := range bExt {
		bounds[e.Lo] = true
		bounds[e.Hi] = true
	}
	pts := sortedBounds(bounds)

	var out []heap.Extent
	for i := 0; i+1 < len(pts); i++ {
		lo, hi := pts[i], pts[i+1]
		if lo >= hi {
			continue
		}
		aVal, aHas := coveringVal(aExt, lo, hi)
		bVal, bHas := coveringVal(bExt, lo, hi)
		switch {
		case aHas && bHas:
			out = append(out, heap.Extent{Lo: lo, Hi: hi, Val: av.Merge(aVal, bVal)})
		case aHas:
			out = append(out, heap.Extent{Lo: lo, Hi: hi, Val: av.Merge(aVal, ancestorVal(ancestor, lo, hi))})
		case bHas:
			out = append(out, heap.Extent{Lo: lo, Hi: hi, Val: av.Merge(bVal, ancestorVal(ancestor, lo, hi))})
		default:
			// neither side touched this range since the ancestor: no
			// extent at all, so reads fall through to the new baseline.
		}
	}
	return out
}

func coveringVal(ext []heap.Extent, lo, hi ir.ByteSize) (av.Val, bool) {
	for _, e := range ext {
		if e.Lo <= lo && hi <= e.Hi {
			return av.Slice(e.Val, lo-e.Lo, hi-lo), true
		}
	}
	return av.Empty(), false
}

func ancestorVal(ancestor *heap.HStore, lo, hi ir.ByteSize) av.Val {
	if ancestor == nil {
		return av.Empty()
	}
	return heap.ReadRange(ancestor, lo, hi-lo)
}

func sortedBounds(m map[ir.ByteSize]bool) []ir.ByteSize {
	out := make([]ir.ByteSize, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
