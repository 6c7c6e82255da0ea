package av

import "github.com/bftjoe/llpe/ir"

// Merge combines a and b: commutative, associative, idempotent on
// equal inputs, with overdefined as top and empty as bottom.
func Merge(a, b Val) Val {
	if a.overdefined {
		return a
	}
	if b.overdefined {
		return b
	}
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	if a.Class() == b.Class() {
		all := make([]member, 0, len(a.members)+len(b.members))
		all = append(all, a.members...)
		all = append(all, b.members...)
		return fromMembers(all)
	}
	if v, ok := absorbNullAsScalar(a, b); ok {
		return v
	}
	if v, ok := absorbNullAsScalar(b, a); ok {
		return v
	}
	return Overdefined(ReasonMixedClasses)
}

// Insert adds a single member-equivalent value v into a, applying the
// same generalisation rules as Merge (Insert is Merge against a
// singleton).
func Insert(a, v Val) Val { return Merge(a, v) }

// absorbNullAsScalar implements a narrow generalisation: a pointer
// class containing only function addresses may absorb a null-pointer
// value by reclassifying as scalar. ptrSide must be
// ClassPtr with every member a function address; scalarSide must be
// ClassScalar with every member the plain zero bit pattern (the
// pre-typing representation of a null literal). On success, the
// function-address members are reclassified as Scalar members carrying
// the function's AId, unioned with the zero scalar(s).
func absorbNullAsScalar(ptrSide, scalarSide Val) (Val, bool) {
	if ptrSide.Class() != ClassPtr || scalarSide.Class() != ClassScalar {
		return Val{}, false
	}
	for _, m := range ptrSide.members {
		if !m.ptrIsFunc {
			return Val{}, false
		}
	}
	for _, m := range scalarSide.members {
		if m.scalarIsFunc || m.scalarBits != 0 {
			return Val{}, false
		}
	}
	all := make([]member, 0, len(ptrSide.members)+len(scalarSide.members))
	for _, m := range ptrSide.members {
		all = append(all, member{class: ClassScalar, scalarIsFunc: true, scalarFunc: m.ptrBase})
	}
	all = append(all, scalarSide.members...)
	return fromMembers(all), true
}

// fromMembers dedupes ms (all the same class, by construction of every
// caller) and applies the Ptr-specific UNKNOWN-absorption and K_MAX
// widening rules.
func fromMembers(ms []member) Val {
	if len(ms) == 0 {
		return Empty()
	}
	class := ms[0].class

	if class == ClassPtr {
		ms = normalizePtrUnknown(ms)
	}

	out := make([]member, 0, len(ms))
	for _, m := range ms {
		dup := false
		for _, o := range out {
			if o.equal(m) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}

	if len(out) > KMax && class == ClassPtr {
		out = collapsePtrBases(out)
	}
	if len(out) > KMax {
		return Overdefined(ReasonWidened)
	}
	return Val{members: out}
}

// normalizePtrUnknown drops every precise Ptr(A,*) once a Ptr(A,UNKNOWN)
// is present for the same base A.
func normalizePtrUnknown(ms []member) []member {
	vague := make(map[ir.AId]bool)
	for _, m := range ms {
		if m.ptrUnknown {
			vague[m.ptrBase] = true
		}
	}
	if len(vague) == 0 {
		return ms
	}
	out := make([]member, 0, len(ms))
	for _, m := range ms {
		if !m.ptrUnknown && vague[m.ptrBase] {
			continue // precise member superseded by a vague one for the same base
		}
		out = append(out, m)
	}
	return out
}

// collapsePtrBases implements the oversize-collapse rule: any base
// with ≥2 distinct precise offsets becomes a single Ptr(A,UNKNOWN)
// member, reducing the set size before falling back to overdefined.
func collapsePtrBases(ms []member) []member {
	counts := make(map[ir.AId]int)
	for _, m := range ms {
		if !m.ptrUnknown {
			counts[m.ptrBase]++
		}
	}
	collapse := make(map[ir.AId]bool)
	for k, n := range counts {
		if n >= 2 {
			collapse[k] = true
		}
	}
	if len(collapse) == 0 {
		return ms
	}
	out := make([]member, 0, len(ms))
	seen := make(map[ir.AId]bool)
	for _, m := range ms {
		k := m.ptrBase
		if !m.ptrUnknown && collapse[k] {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, member{class: ClassPtr, ptrBase: m.ptrBase, ptrUnknown: true})
			continue
		}
		out = append(out, m)
	}
	return out
}
