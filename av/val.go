// Package av implements the symbolic abstract-value lattice: a bounded
// set of disjoint-by-class members, plus an overdefined (top) flag. It
// generalises SCCP's {top, const, bottom} lattice with pointer-base+
// offset, file-descriptor tokens, vararg cookies, and a bounded value
// set with widening at K_MAX members.
package av

import "github.com/bftjoe/llpe/ir"

// KMax bounds the member-set size (k ≤ K_MAX ≈ 16) before widening
// collapses it.
const KMax = 16

// Class discriminates the disjoint value kinds a Val's members belong
// to. All members of a non-overdefined Val share one Class.
type Class uint8

const (
	// ClassNone marks the empty (bottom) Val: no members, not overdefined.
	ClassNone Class = iota
	ClassScalar
	ClassSplat
	ClassPtr
	ClassFd
	ClassVaArg
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassScalar:
		return "scalar"
	case ClassSplat:
		return "splat"
	case ClassPtr:
		return "ptr"
	case ClassFd:
		return "fd"
	case ClassVaArg:
		return "vaarg"
	default:
		return "invalid"
	}
}

// VaArgKind distinguishes the varargs cookie flavours.
type VaArgKind uint8

const (
	VaBasePtr VaArgKind = iota
	VaFirstNonFPArg
	VaFirstFPArg
)

// member is one element of a Val's bounded set. Exactly the fields for
// its class are meaningful; the rest are zero.
type member struct {
	class Class

	// ClassScalar: either a concrete constant bit pattern, or an opaque
	// reference to a function's address, permitted as part of a
	// pointer-class generalisation with null; we realise that
	// generalisation by letting a Scalar member stand for a function
	// address whose bits are not known to us.
	scalarBits   uint64
	scalarType   ir.Type
	scalarIsFunc bool
	scalarFunc   ir.AId

	// ClassSplat
	splatByte byte
	splatLen  ir.ByteSize

	// ClassPtr
	ptrBase    ir.AId
	ptrOffset  int64
	ptrUnknown bool
	ptrIsFunc  bool // this Ptr denotes a function's address (offset always 0)

	// ClassFd
	fd uint64

	// ClassVaArg
	vaBase ir.AId
	vaKind VaArgKind
}

func (m member) equal(o member) bool {
	if m.class != o.class {
		return false
	}
	switch m.class {
	case ClassScalar:
		if m.scalarIsFunc != o.scalarIsFunc {
			return false
		}
		if m.scalarIsFunc {
			return m.scalarFunc.Equal(o.scalarFunc)
		}
		return m.scalarBits == o.scalarBits && m.scalarType == o.scalarType
	case ClassSplat:
		return m.splatByte == o.splatByte && m.splatLen == o.splatLen
	case ClassPtr:
		if m.ptrUnknown != o.ptrUnknown {
			return false
		}
		if m.ptrUnknown {
			return m.ptrBase.Equal(o.ptrBase)
		}
		return m.ptrBase.Equal(o.ptrBase) && m.ptrOffset == o.ptrOffset
	case ClassFd:
		return m.fd == o.fd
	case ClassVaArg:
		return m.vaBase.Equal(o.vaBase) && m.vaKind == o.vaKind
	}
	return false
}

// Val is a lattice element: a bounded, deduplicated set of same-class
// members, or the overdefined top.
type Val struct {
	members     []member
	overdefined bool
	reason      Reason
}

// Empty returns the bottom element (no information yet).
func Empty() Val { return Val{} }

// Overdefined returns the top element, carrying a stable diagnostic
// reason token.
func Overdefined(reason Reason) Val { return Val{overdefined: true, reason: reason} }

// IsOverdefined reports whether v is the lattice top.
func (v Val) IsOverdefined() bool { return v.overdefined }

// Reason returns the diagnostic token attached to an overdefined Val,
// or "" if v is not overdefined.
func (v Val) Reason() Reason { return v.reason }

// IsEmpty reports whether v is the lattice bottom (no members, not
// overdefined).
func (v Val) IsEmpty() bool { return !v.overdefined && len(v.members) == 0 }

// Len returns the member-set size, or 0 for overdefined/empty.
func (v Val) Len() int { return len(v.members) }

// Class returns the shared class of v's members, or ClassNone if v is
// empty or overdefined.
func (v Val) Class() Class {
	if v.overdefined || len(v.members) == 0 {
		return ClassNone
	}
	return v.members[0].class
}

// Scalar constructs a single-member constant-bits scalar value.
func Scalar(bits uint64, typ ir.Type) Val {
	return Val{members: []member{{class: ClassScalar, scalarBits: bits, scalarType: typ}}}
}

// FuncAddr constructs a function-address value, realised as a Ptr
// member so it is naturally disjoint from ordinary scalars and
// participates in the null-absorption merge rule.
func FuncAddr(fn ir.AId) Val {
	return Val{members: []member{{class: ClassPtr, ptrBase: fn, ptrIsFunc: true}}}
}

// Splat constructs a ScalarSplat(byte, len) value — the result shape
// of a memset.
func Splat(b byte, length ir.ByteSize) Val {
	return Val{members: []member{{class: ClassSplat, splatByte: b, splatLen: length}}}
}

// Ptr constructs a single precise Ptr(base, offset) value.
func Ptr(base ir.AId, offset int64) Val {
	return Val{members: []member{{class: ClassPtr, ptrBase: base, ptrOffset: offset}}}
}

// PtrUnknown constructs a Ptr(base, UNKNOWN) value: any offset into base.
func PtrUnknown(base ir.AId) Val {
	return Val{members: []member{{class: ClassPtr, ptrBase: base, ptrUnknown: true}}}
}

// Null constructs the distinguished null pointer, Ptr(null_alloc, 0).
func Null() Val {
	return Ptr(ir.NullAId, 0)
}

// Fd constructs an opaque file-descriptor token value.
func Fd(id uint64) Val {
	return Val{members: []member{{class: ClassFd, fd: id}}}
}

// VaArg constructs a vararg-cookie value.
func VaArg(base ir.AId, kind VaArgKind) Val {
	return Val{members: []member{{class: ClassVaArg, vaBase: base, vaKind: kind}}}
}

// ScalarMember is the exported view of a ClassScalar member.
type ScalarMember struct {
	Bits     uint64
	Type     ir.Type
	IsFunc   bool
	FuncAddr ir.AId
}

// Scalars returns v's scalar members; empty if Class() != ClassScalar.
func (v Val) Scalars() []ScalarMember {
	if v.Class() != ClassScalar {
		return nil
	}
	out := make([]ScalarMember, len(v.members))
	for i, m := range v.members {
		out[i] = ScalarMember{Bits: m.scalarBits, Type: m.scalarType, IsFunc: m.scalarIsFunc, FuncAddr: m.scalarFunc}
	}
	return out
}

// SplatMember is the exported view of a ClassSplat member.
type SplatMember struct {
	Byte byte
	Len  ir.ByteSize
}

// Splats returns v's splat members; empty if Class() != ClassSplat.
func (v Val) Splats() []SplatMember {
	if v.Class() != ClassSplat {
		return nil
	}
	out := make([]SplatMember, len(v.members))
	for i, m := range v.members {
		out[i] = SplatMember{Byte: m.splatByte, Len: m.splatLen}
	}
	return out
}

// PtrMember is the exported view of a ClassPtr member.
type PtrMember struct {
	Base    ir.AId
	Offset  int64
	Unknown bool
	IsFunc  bool
}

// Ptrs returns v's pointer members; empty if Class() != ClassPtr.
func (v Val) Ptrs() []PtrMember {
	if v.Class() != ClassPtr {
		return nil
	}
	out := make([]PtrMember, len(v.members))
	for i, m := range v.members {
		out[i] = PtrMember{Base: m.ptrBase, Offset: m.ptrOffset, Unknown: m.ptrUnknown, IsFunc: m.ptrIsFunc}
	}
	return out
}

// FdMember is the exported view of a ClassFd member.
type FdMember struct{ ID uint64 }

// Fds returns v's file-descriptor members; empty if Class() != ClassFd.
func (v Val) Fds() []FdMember {
	if v.Class() != ClassFd {
		return nil
	}
	out := make([]FdMember, len(v.members))
	for i, m := range v.members {
		out[i] = FdMember{ID: m.fd}
	}
	return out
}

// VaArgMember is the exported view of a ClassVaArg member.
type VaArgMember struct {
	Base ir.AId
	Kind VaArgKind
}

// VaArgs returns v's vararg-cookie members; empty if Class() != ClassVaArg.
func (v Val) VaArgs() []VaArgMember {
	if v.Class() != ClassVaArg {
		return nil
	}
	out := make([]VaArgMember, len(v.members))
	for i, m := range v.members {
		out[i] = VaArgMember{Base: m.vaBase, Kind: m.vaKind}
	}
	return out
}

// SinglePrecisePtr returns v's sole pointer member if v is exactly one
// precise (non-UNKNOWN-offset), non-function Ptr, per the "exactly one
// precise pointer" case used throughout symexec and alias.
func (v Val) SinglePrecisePtr() (PtrMember, bool) {
	ptrs := v.Ptrs()
	if len(ptrs) != 1 || ptrs[0].Unknown || ptrs[0].IsFunc {
		return PtrMember{}, false
	}
	return ptrs[0], true
}

// AllNull reports whether v is non-empty, non-overdefined, and every
// member is the null pointer.
func (v Val) AllNull() bool {
	ptrs := v.Ptrs()
	if len(ptrs) == 0 {
		return false
	}
	for _, p := range ptrs {
		if !p.Base.IsNull() || p.Offset != 0 || p.Unknown {
			return false
		}
	}
	return true
}

// HasUnknownOffset reports whether any member of v is a Ptr with an
// UNKNOWN offset.
func (v Val) HasUnknownOffset() bool {
	for _, p := range v.Ptrs() {
		if p.Unknown {
			return true
		}
	}
	return false
}
