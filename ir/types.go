// Package ir defines the boundary types this core consumes from the
// (external) IR loader: function/block/instruction inventory, a byte-size
// oracle for types, and allocation identities. None of the types here
// build or parse IR text; that is the loader's job.
package ir

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// ByteSize is a byte count, or UnknownSize when the loader could not
// statically determine it (e.g. a VLA, or a malloc with a non-constant
// size argument).
type ByteSize int64

// UnknownSize marks a size the loader could not resolve statically.
const UnknownSize ByteSize = -1

// Type is the byte-size oracle boundary: an allocation carries a byte
// size and a type hint, and the core never computes sizes itself — it
// asks Type.Size().
type Type interface {
	Size() ByteSize
	String() string
}

// BasicType is the loader's simplest Type implementation: a named
// scalar of a fixed byte width (int8/32/64, float64, pointer, ...).
type BasicType struct {
	Name string
	Bits ByteSize
}

func (t BasicType) Size() ByteSize { return t.Bits }
func (t BasicType) String() string { return t.Name }

// AllocKind distinguishes the four allocation-identity origins: a
// function argument, a global, a specific stack allocation instance in
// a specific call context, or a specific heap allocation instance.
type AllocKind uint8

const (
	KindArg AllocKind = iota
	KindGlobal
	KindStack
	KindHeap
	KindNull // the distinguished allocation backing Ptr(null_alloc, 0)
)

func (k AllocKind) String() string {
	switch k {
	case KindArg:
		return "arg"
	case KindGlobal:
		return "global"
	case KindStack:
		return "stack"
	case KindHeap:
		return "heap"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// CallContext is an opaque, totally-ordered token supplied by the
// (external) driver to distinguish call-context instances of the same
// stack/heap allocation site. The core only compares and orders it; it
// never manufactures one.
type CallContext uint64

// NoContext is the context-insensitive / shared-contour token.
const NoContext CallContext = 0

// AId is a stable allocation identity: equality-comparable and totally
// ordered.
type AId struct {
	Kind AllocKind
	Fn   *Function // nil for KindNull and for context-free globals
	Ctx  CallContext
	Site int // the defining instruction's InstrID, or a global/arg index
	size ByteSize
	typ  Type
}

// NullAId is the distinguished allocation underlying every null pointer.
var NullAId = AId{Kind: KindNull}

// NewAId constructs an allocation identity for the given site.
func NewAId(kind AllocKind, fn *Function, ctx CallContext, site int, size ByteSize, typ Type) AId {
	return AId{Kind: kind, Fn: fn, Ctx: ctx, Site: site, size: size, typ: typ}
}

// Size returns the allocation's byte size, or UnknownSize.
func (a AId) Size() ByteSize { return a.size }

// Type returns the allocation's type hint.
func (a AId) Type() Type { return a.typ }

// IsNull reports whether a is the distinguished null allocation.
func (a AId) IsNull() bool { return a.Kind == KindNull }

// Equal compares identity fields only (kind, function, context, site),
// ignoring the size/type hints, which are always a deterministic
// function of the identity for a well-formed loader.
func (a AId) Equal(b AId) bool {
	return a.Kind == b.Kind && a.Fn == b.Fn && a.Ctx == b.Ctx && a.Site == b.Site
}

// Less imposes a total order over AIds. Ordering is by kind, then
// function identity, then call context, then site — it need not be
// meaningful, only stable and total.
func (a AId) Less(b AId) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Fn != b.Fn {
		return uintptr(fnAddr(a.Fn)) < uintptr(fnAddr(b.Fn))
	}
	if a.Ctx != b.Ctx {
		return a.Ctx < b.Ctx
	}
	return a.Site < b.Site
}

func fnAddr(f *Function) uintptr {
	// A stable-within-process ordering key; the loader never moves
	// Functions once built, so the address is fine to compare (we never
	// dereference it for identity outside this file).
	return uintptr(unsafe.Pointer(f))
}

// Hash returns a fast, stable-within-process digest of a's Kind, Fn,
// Ctx and Site; nothing in this module calls it. It is not required
// for AId's use as a key in a swiss.Map (AId is a comparable struct
// and hashes natively there).
func (a AId) Hash() uint64 {
	var buf [25]byte
	buf[0] = byte(a.Kind)
	putU64(buf[1:9], uint64(fnAddr(a.Fn)))
	putU64(buf[9:17], uint64(a.Ctx))
	putU64(buf[17:25], uint64(a.Site))
	return xxhash.Sum64(buf[:])
}

func putU64(b []byte, v uint64) {
	for i := 0; i < len(b) && i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
