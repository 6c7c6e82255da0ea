package heap

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

// WritePB punches [off, off+length) and inserts val. A fully-covering
// write to a Single replaces its scalar in place; any other write to a
// Single promotes it to a Multi with the old Single as baseline. h must
// already be privately owned (not IsShared); promotion/punching mutate
// in place and WritePB's return value is the store the caller should
// keep using (identical to h except after Single→Multi promotion).
func WritePB(h *HStore, off, length ir.ByteSize, val av.Val) *HStore {
	switch h.variant {
	case VariantSingle:
		if off == 0 && length == h.typ.Size() {
			h.val = val
			h.trace("writePB: single replace")
			return h
		}
		nh := promoteToMulti(h)
		nh.intervals = append(punchRange(nil, off, length), Interval{Off: off, Len: length, Val: val})
		nh.intervals = sortIntervals(nh.intervals)
		nh.trace("writePB: promoted single to multi")
		return nh

	case VariantMulti:
		h.intervals = append(punchRange(h.intervals, off, length), Interval{Off: off, Len: length, Val: val})
		h.intervals = sortIntervals(h.intervals)
		return h
	}
	return h
}

// ReplaceRangeWithPBs bulk-replaces [baseOff, baseOff+length) with the
// given absolutely-offset extents, used by package merge to install a
// merged extent list. symexec's memcpy writes one loaded value through
// WritePB instead, and its va_start clobbers the block store.
func ReplaceRangeWithPBs(h *HStore, extents []Extent, baseOff, length ir.ByteSize) *HStore {
	target := h
	if h.variant == VariantSingle {
		target = promoteToMulti(h)
	}
	target.intervals = punchRange(target.intervals, baseOff, length)
	for _, e := range extents {
		target.intervals = append(target.intervals, Interval{Off: e.Lo, Len: e.Hi - e.Lo, Val: e.Val})
	}
	target.intervals = sortIntervals(target.intervals)
	return target
}

// Clone produces a private copy of a shared Multi store: same
// baseline (retained once more, since it now has an additional owner)
// and a copied intervals slice, starting at refcount 1. Used by
// package block to COW-break a shared store before writing into it.
func (h *HStore) Clone() *HStore {
	if h.baseline != nil {
		h.baseline.Retain()
	}
	nh := &HStore{
		variant:     VariantMulti,
		refs:        1,
		baseline:    h.baseline,
		ignoreBelow: h.ignoreBelow,
		log:         h.log,
	}
	nh.intervals = append([]Interval(nil), h.intervals...)
	return nh
}

// promoteToMulti demotes h's existing Single value to serve as the
// baseline of a brand-new, empty Multi. The baseline is exclusively
// owned by the new Multi, so it starts (and stays) at refcount 1 —
// unlike NewMulti, which bumps an already-shared baseline's refcount.
func promoteToMulti(h *HStore) *HStore {
	baseline := &HStore{variant: VariantSingle, refs: 1, val: h.val, typ: h.typ}
	return &HStore{variant: VariantMulti, refs: 1, baseline: baseline}
}

// punchRange splits/trims every existing interval against the write
// window [wOff, wOff+wLen): intervals wholly inside the window are
// dropped, intervals straddling either boundary are split, and the
// window itself is left uninserted (callers append their own entry).
func punchRange(ivs []Interval, wOff, wLen ir.ByteSize) []Interval {
	wLo, wHi := wOff, wOff+wLen
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		ivLo, ivHi := iv.Off, iv.hi()
		if ivHi <= wLo || ivLo >= wHi {
			out = append(out, iv) // untouched
			continue
		}
		if ivLo < wLo {
			out = append(out, Interval{Off: ivLo, Len: wLo - ivLo, Val: av.Slice(iv.Val, 0, wLo-ivLo)})
		}
		if ivHi > wHi {
			out = append(out, Interval{Off: wHi, Len: ivHi - wHi, Val: av.Slice(iv.Val, wHi-ivLo, ivHi-wHi)})
		}
		// the portion inside [wLo, wHi) is fully overwritten and dropped.
	}
	return out
}
