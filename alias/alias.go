// Package alias answers Must/May/No/Partial alias queries between two
// pointer Vals, resolved from symbolic (base, offset) pointer sets
// rather than concrete addresses.
package alias

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

// Result is the outcome of an alias query.
type Result uint8

const (
	Must Result = iota
	May
	No
	Partial
)

func (r Result) String() string {
	switch r {
	case Must:
		return "must"
	case May:
		return "may"
	case No:
		return "no"
	case Partial:
		return "partial"
	default:
		return "invalid"
	}
}

// Alias resolves whether (p1, size1) and (p2, size2) can overlap in
// memory, given p1/p2 as already-evaluated pointer Vals.
func Alias(p1 av.Val, size1 int64, p2 av.Val, size2 int64) Result {
	if p1.IsOverdefined() || p2.IsOverdefined() {
		return May
	}
	if p1.Class() != av.ClassPtr || p2.Class() != av.ClassPtr {
		return May
	}

	ptrs1 := p1.Ptrs()
	ptrs2 := p2.Ptrs()

	if a, ok1 := p1.SinglePrecisePtr(); ok1 {
		if b, ok2 := p2.SinglePrecisePtr(); ok2 {
			if basesAlias(a.Base, b.Base) {
				if a.Offset == b.Offset && size1 == size2 {
					return Must
				}
				if !intervalsOverlap(a.Offset, size1, b.Offset, size2) {
					return No
				}
				return Partial
			}
			return No
		}
	}

	if !anyBasesAlias(ptrs1, ptrs2) {
		return No
	}
	if p1.HasUnknownOffset() || p2.HasUnknownOffset() {
		return Partial
	}
	return May
}

func intervalsOverlap(off1, size1, off2, size2 int64) bool {
	return off1 < off2+size2 && off2 < off1+size1
}

// anyBasesAlias reports whether any member of ptrs1 shares a base with
// any member of ptrs2.
func anyBasesAlias(ptrs1, ptrs2 []av.PtrMember) bool {
	for _, a := range ptrs1 {
		for _, b := range ptrs2 {
			if basesAlias(a.Base, b.Base) {
				return true
			}
		}
	}
	return false
}

// basesAlias compares two allocation identities structurally: equal
// identity fields mean the same allocation; a context-free base
// (NoContext) additionally aliases any base rooted at the same site in
// the same function, since a context-insensitive view must assume
// every context-sensitive instance of that site is a possible alias.
func basesAlias(a, b ir.AId) bool {
	if a.Equal(b) {
		return true
	}
	if a.Kind != b.Kind || a.Fn != b.Fn || a.Site != b.Site {
		return false
	}
	return a.Ctx == ir.NoContext || b.Ctx == ir.NoContext
}
