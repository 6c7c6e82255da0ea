// Package pv implements partial values: scratch buffers that bridge a
// single load straddling writes of mixed granularity. A PV starts as
// nothing (empty), a single Val (total), or a constant aggregate plus
// a read offset (partial), and is promoted to an explicit byte array
// with per-byte valid bits the first time a sub-word contribution
// forces byte-level bookkeeping.
package pv

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

type kind uint8

const (
	kindEmpty kind = iota
	kindTotal
	kindPartial
	kindBytes
)

// PV is one partial value under construction by a caller assembling a
// single load out of possibly several overlapping contributions.
type PV struct {
	k kind

	total av.Val

	aggregate *ir.AggregateConst
	readOff   ir.ByteSize

	bytes        []byte
	valid        []bool
	loadFinished bool
	reason       av.Reason
}

// Empty returns the bottom PV: no bytes known yet.
func Empty() PV { return PV{k: kindEmpty} }

// Total wraps a single Val covering the whole read range.
func Total(v av.Val) PV { return PV{k: kindTotal, total: v} }

// Partial wraps a constant aggregate plus the byte offset a read
// starts at within it.
func Partial(agg *ir.AggregateConst, off ir.ByteSize) PV {
	return PV{k: kindPartial, aggregate: agg, readOff: off}
}

// LoadFinished reports whether every byte in [0, loadSize) contributed
// to the most recent Combine call is now valid.
func (p PV) LoadFinished() bool { return p.k == kindBytes && p.loadFinished }

func newBytes(n ir.ByteSize) PV {
	if n < 0 {
		n = 0
	}
	return PV{k: kindBytes, bytes: make([]byte, n), valid: make([]bool, n)}
}

// Combine contributes bytes [firstDef, firstNotDef) from other into p,
// against a load of loadSize bytes total. Writing a byte that is
// already valid is a no-op: the first writer of a byte wins. After
// every combine, loadFinished is recomputed from scratch.
func (p PV) Combine(other PV, firstDef, firstNotDef, loadSize ir.ByteSize) PV {
	if p.k != kindBytes {
		p = p.bytify(loadSize)
	}
	if p.reason != "" {
		return p
	}

	n := firstNotDef - firstDef
	src, validSrc, reason := other.bytesInRange(n)
	if reason != "" {
		p.reason = reason
		return p
	}

	for i := ir.ByteSize(0); i < n; i++ {
		idx := int(firstDef + i)
		if idx < 0 || idx >= len(p.bytes) || !validSrc[i] {
			continue
		}
		if p.valid[idx] {
			continue // first writer wins
		}
		p.bytes[idx] = src[i]
		p.valid[idx] = true
	}

	end := int(loadSize)
	if end > len(p.valid) {
		end = len(p.valid)
	}
	p.loadFinished = allValid(p.valid[:end])
	return p
}

// bytesInRange returns n bytes (and their per-byte validity) that
// other contributes, regardless of other's own representation.
func (p PV) bytesInRange(n ir.ByteSize) ([]byte, []bool, av.Reason) {
	switch p.k {
	case kindEmpty:
		return make([]byte, n), make([]bool, n), ""

	case kindTotal:
		b, reason := bytesOf(p.total, n)
		if reason != "" {
			return nil, nil, reason
		}
		valid := make([]bool, n)
		for i := range valid {
			valid[i] = true
		}
		return b, valid, ""

	case kindPartial:
		b, reason := extractAggregateBytes(p.aggregate, p.readOff, n)
		if reason != "" {
			return nil, nil, reason
		}
		valid := make([]bool, n)
		for i := range valid {
			valid[i] = true
		}
		return b, valid, ""

	case kindBytes:
		if p.reason != "" {
			return nil, nil, p.reason
		}
		out := make([]byte, n)
		validOut := make([]bool, n)
		copy(out, p.bytes)
		copy(validOut, p.valid)
		return out, validOut, ""
	}
	return nil, nil, av.ReasonNonConstBOps
}

// bytify converts p to the byte-array representation sized loadSize,
// the shape every further Combine call operates on.
func (p PV) bytify(loadSize ir.ByteSize) PV {
	np := newBytes(loadSize)
	switch p.k {
	case kindEmpty:
		return np
	case kindTotal:
		b, reason := bytesOf(p.total, loadSize)
		if reason != "" {
			np.reason = reason
			return np
		}
		copy(np.bytes, b)
		for i := range np.valid {
			np.valid[i] = true
		}
	case kindPartial:
		b, reason := extractAggregateBytes(p.aggregate, p.readOff, loadSize)
		if reason != "" {
			np.reason = reason
			return np
		}
		copy(np.bytes, b)
		for i := range np.valid {
			np.valid[i] = true
		}
	case kindBytes:
		return p
	}
	np.loadFinished = allValid(np.valid)
	return np
}

// ToValue reinterprets p as a size-byte Val: when total/partial and a
// covering aggregate extraction works, that extraction wins directly;
// otherwise p falls through to the byte-array path and the result is
// overdefined unless every byte of size is valid.
func (p PV) ToValue(size ir.ByteSize) av.Val {
	switch p.k {
	case kindEmpty:
		return av.Empty()

	case kindTotal:
		return p.total

	case kindPartial:
		b, reason := extractAggregateBytes(p.aggregate, p.readOff, size)
		if reason == "" {
			return av.Scalar(bitsFromBytes(b), p.aggregate.Typ)
		}
		return p.bytify(size).ToValue(size)

	case kindBytes:
		if p.reason != "" {
			return av.Overdefined(p.reason)
		}
		end := int(size)
		if end > len(p.valid) {
			return av.Overdefined(av.ReasonPVToPB)
		}
		if !allValid(p.valid[:end]) {
			return av.Overdefined(av.ReasonPVToPB)
		}
		return av.Scalar(bitsFromBytes(p.bytes[:end]), nil)
	}
	return av.Overdefined(av.ReasonPVToPB)
}

func allValid(bs []bool) bool {
	for _, b := range bs {
		if !b {
			return false
		}
	}
	return true
}
