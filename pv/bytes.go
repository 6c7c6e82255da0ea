package pv

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

// bytesOf renders v as length bytes, little-endian, failing with
// NonConstBOps if v is not a single concrete scalar or splat member —
// the "bytify a non-constant total" failure mode.
func bytesOf(v av.Val, length ir.ByteSize) ([]byte, av.Reason) {
	if length < 0 {
		length = 0
	}
	if v.IsOverdefined() || v.IsEmpty() {
		return nil, av.ReasonNonConstBOps
	}
	switch v.Class() {
	case av.ClassScalar:
		scalars := v.Scalars()
		if len(scalars) != 1 || scalars[0].IsFunc {
			return nil, av.ReasonNonConstBOps
		}
		return bytesFromBits(scalars[0].Bits, length), ""

	case av.ClassSplat:
		splats := v.Splats()
		if len(splats) != 1 {
			return nil, av.ReasonNonConstBOps
		}
		out := make([]byte, length)
		for i := range out {
			out[i] = splats[0].Byte
		}
		return out, ""

	default:
		return nil, av.ReasonNonConstBOps
	}
}

// extractAggregateBytes slices [off, off+length) out of agg's constant
// byte buffer, failing with RDFG ("extracting bytes from an aggregate
// constant failed") if the range runs off the end.
func extractAggregateBytes(agg *ir.AggregateConst, off, length ir.ByteSize) ([]byte, av.Reason) {
	if agg == nil || off < 0 || length < 0 || off+length > ir.ByteSize(len(agg.Bytes)) {
		return nil, av.ReasonRDFG
	}
	out := make([]byte, length)
	copy(out, agg.Bytes[off:off+length])
	return out, ""
}

func bytesFromBits(bits uint64, length ir.ByteSize) []byte {
	out := make([]byte, length)
	for i := ir.ByteSize(0); i < length && i < 8; i++ {
		out[i] = byte(bits >> (uint(i) * 8))
	}
	return out
}

func bitsFromBytes(b []byte) uint64 {
	var bits uint64
	for i := 0; i < len(b) && i < 8; i++ {
		bits |= uint64(b[i]) << (uint(i) * 8)
	}
	return bits
}
