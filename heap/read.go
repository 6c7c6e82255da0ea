package heap

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
	"github.com/bftjoe/llpe/pv"
)

// Extent is one byte-range chunk of a ReadRangeMulti result: bytes
// [Lo, Hi) are covered by Val, possibly after recursive baseline
// descent. Gaps (no entry at all covering some sub-range) mean no
// store in the delegation chain had an opinion, either because the
// allocation is genuinely uninitialised there or because an
// ignoreBelow threshold stopped descent early.
type Extent struct {
	Lo, Hi ir.ByteSize
	Val    av.Val
}

// ReadRange reads [off, off+length) from h. A single covering interval
// (or the whole Single value) is returned directly; otherwise the
// overlapping extents are accumulated through a partial value and
// reinterpreted at the end.
func ReadRange(h *HStore, off, length ir.ByteSize) av.Val {
	if h == nil {
		return av.Overdefined(av.ReasonLoadVague)
	}
	if h.variant == VariantSingle {
		if off == 0 && length == h.typ.Size() {
			return h.val
		}
		return av.Slice(h.val, off, length)
	}

	for _, iv := range h.intervals {
		if iv.Off <= off && off+length <= iv.hi() {
			if iv.Off == off && iv.Len == length {
				return iv.Val
			}
			return av.Slice(iv.Val, off-iv.Off, length)
		}
	}

	extents := ReadRangeMulti(h, off, length)
	if len(extents) == 0 {
		return av.Overdefined(av.ReasonLoadVague)
	}
	p := pv.Empty()
	for _, e := range extents {
		p = p.Combine(pv.Total(e.Val), e.Lo-off, e.Hi-off, length)
	}
	return p.ToValue(length)
}

// ReadRangeMulti returns the extent list covering [off, off+length),
// descending into baselines for any sub-range h itself doesn't cover,
// and leaving gaps wherever an ignoreBelow threshold forbids descent.
func ReadRangeMulti(h *HStore, off, length ir.ByteSize) []Extent {
	return readRangeMulti(h, off, off+length)
}

func readRangeMulti(h *HStore, lo, hi ir.ByteSize) []Extent {
	if h == nil || lo >= hi {
		return nil
	}
	if h.variant == VariantSingle {
		return []Extent{{Lo: lo, Hi: hi, Val: av.Slice(h.val, lo, hi-lo)}}
	}

	var out []Extent
	cursor := lo
	for _, iv := range h.sortedIntervals() {
		ivLo, ivHi := iv.Off, iv.hi()
		if ivHi <= lo || ivLo >= hi {
			continue
		}
		clampLo := maxSize(ivLo, lo)
		clampHi := minSize(ivHi, hi)
		if clampLo > cursor {
			out = append(out, h.descendBaseline(cursor, clampLo)...)
		}
		out = append(out, Extent{Lo: clampLo, Hi: clampHi, Val: av.Slice(iv.Val, clampLo-ivLo, clampHi-clampLo)})
		cursor = clampHi
	}
	if cursor < hi {
		out = append(out, h.descendBaseline(cursor, hi)...)
	}
	return out
}

func (h *HStore) descendBaseline(lo, hi ir.ByteSize) []Extent {
	if h.baseline == nil || h.ignoreBelow >= hi {
		return nil
	}
	if lo < h.ignoreBelow {
		lo = h.ignoreBelow
	}
	return readRangeMulti(h.baseline, lo, hi)
}

// ReadRangeMultiStopAt behaves like ReadRangeMulti but stops descent
// exactly at stop (exclusive): bytes only available from stop or
// beyond are left as gaps, rather than being read through. Used by
// merge to separate "what this side privately wrote since the common
// ancestor" from the ancestor's own contents.
func ReadRangeMultiStopAt(h *HStore, off, length ir.ByteSize, stop *HStore) []Extent {
	return readRangeMultiStopAt(h, off, off+length, stop)
}

func readRangeMultiStopAt(h *HStore, lo, hi ir.ByteSize, stop *HStore) []Extent {
	if h == nil || h == stop || lo >= hi {
		return nil
	}
	if h.variant == VariantSingle {
		return []Extent{{Lo: lo, Hi: hi, Val: av.Slice(h.val, lo, hi-lo)}}
	}

	var out []Extent
	cursor := lo
	for _, iv := range h.sortedIntervals() {
		ivLo, ivHi := iv.Off, iv.hi()
		if ivHi <= lo || ivLo >= hi {
			continue
		}
		clampLo := maxSize(ivLo, lo)
		clampHi := minSize(ivHi, hi)
		if clampLo > cursor {
			out = append(out, readRangeMultiStopAt(h.baseline, cursor, clampLo, stop)...)
		}
		out = append(out, Extent{Lo: clampLo, Hi: clampHi, Val: av.Slice(iv.Val, clampLo-ivLo, clampHi-clampLo)})
		cursor = clampHi
	}
	if cursor < hi {
		out = append(out, readRangeMultiStopAt(h.baseline, cursor, hi, stop)...)
	}
	return out
}
