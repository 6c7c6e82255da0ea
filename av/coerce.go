package av

import "github.com/bftjoe/llpe/ir"

// TargetKind tells Coerce what family of value the caller wants.
type TargetKind uint8

const (
	TargetScalar TargetKind = iota
	TargetPointer
)

// Coerce bit-reinterprets v to a value of the given target kind/type/
// size: a Scalar reinterprets to a target type; pointer types and
// pointer↔int of equal width cast implicitly; constructing a pointer
// from non-zero raw bytes is forbidden.
//
// Like every av operation, failure degrades to an overdefined Val
// carrying a Reason rather than returning a Go error.
func Coerce(v Val, target TargetKind, targetType ir.Type, size ir.ByteSize) Val {
	if v.IsOverdefined() || v.IsEmpty() {
		return v
	}
	switch v.Class() {
	case ClassPtr:
		// Pointer↔pointer and pointer↔int of equal width are both
		// permitted; the base+offset representation is preserved either
		// way (an int derived from a pointer that's later used as a
		// pointer again recovers the same symbolic base).
		return v

	case ClassScalar:
		out := Empty()
		for _, s := range v.Scalars() {
			switch target {
			case TargetScalar:
				if s.IsFunc {
					out = Merge(out, Val{members: []member{{class: ClassScalar, scalarIsFunc: true, scalarFunc: s.FuncAddr}}})
					continue
				}
				out = Merge(out, Scalar(truncate(s.Bits, size), targetType))
			case TargetPointer:
				if s.IsFunc {
					out = Merge(out, Val{members: []member{{class: ClassPtr, ptrBase: s.FuncAddr, ptrIsFunc: true}}})
					continue
				}
				if s.Bits != 0 {
					return Overdefined(ReasonCastNonZeroToPtr)
				}
				out = Merge(out, Null())
			}
		}
		return out

	default:
		return Overdefined(ReasonNonScalarCoerce)
	}
}

func truncate(bits uint64, size ir.ByteSize) uint64 {
	if size <= 0 || size >= 8 {
		return bits
	}
	mask := (uint64(1) << (uint(size) * 8)) - 1
	return bits & mask
}
