package av

import "github.com/bftjoe/llpe/ir"

// Slice extracts the sub-range [off, off+length) of v: structural on
// Scalar (shift-and-mask the bit pattern), identity on ScalarSplat (a
// sub-range of a uniform byte fill is the same fill, shortened),
// overdefined otherwise. Aggregate-constant member extraction lives in
// package pv, which holds the byte-array representation Slice doesn't
// see here.
func Slice(v Val, off, length ir.ByteSize) Val {
	if v.IsOverdefined() || v.IsEmpty() {
		return v
	}
	switch v.Class() {
	case ClassScalar:
		out := Empty()
		for _, s := range v.Scalars() {
			if s.IsFunc {
				return Overdefined(ReasonRDFG)
			}
			bits := (s.Bits >> (uint(off) * 8)) & maskFor(length)
			out = Merge(out, Scalar(bits, s.Type))
		}
		return out

	case ClassSplat:
		out := Empty()
		for _, s := range v.Splats() {
			if off < 0 || length < 0 || off+length > s.Len {
				return Overdefined(ReasonRDFG)
			}
			out = Merge(out, Splat(s.Byte, length))
		}
		return out

	default:
		return Overdefined(ReasonRDFG)
	}
}

func maskFor(length ir.ByteSize) uint64 {
	if length <= 0 || length >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (uint(length) * 8)) - 1
}
