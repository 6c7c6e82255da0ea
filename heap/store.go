// Package heap implements the copy-on-write, reference-counted byte
// store backing a single allocation. An HStore is either Single (one
// Val spanning the whole allocation) or Multi (a sorted list of byte
// intervals plus a baseline HStore to delegate gaps to).
package heap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

// Variant discriminates the two HStore representations.
type Variant uint8

const (
	VariantSingle Variant = iota
	VariantMulti
)

// Interval is one byte-range entry of a Multi store.
type Interval struct {
	Off ir.ByteSize
	Len ir.ByteSize
	Val av.Val
}

func (iv Interval) hi() ir.ByteSize { return iv.Off + iv.Len }

// HStore is one allocation's byte store. Mutation always goes through
// WritePB/ReplaceRangeWithPBs on an already-private (non-shared) store;
// callers (package block) are responsible for the COW-break decision
// before calling into heap.
type HStore struct {
	variant Variant
	refs    int

	val av.Val
	typ ir.Type

	intervals []Interval
	baseline  *HStore

	// ignoreBelow forbids descent into baseline below this offset; set
	// by merge when a Multi's baseline chain should stop short of the
	// true origin store.
	ignoreBelow ir.ByteSize

	log *zap.Logger
}

// NewSingle constructs a fresh Single store holding v, typed typ.
func NewSingle(v av.Val, typ ir.Type) *HStore {
	return &HStore{variant: VariantSingle, refs: 1, val: v, typ: typ}
}

// NewMulti constructs a fresh Multi store with no intervals, delegating
// to baseline for every byte. baseline's refcount is bumped since it is
// now shared by the new store — callers handing over a baseline they
// built exclusively for this Multi (and intend to never reference
// directly again) should construct it without going through Retain,
// the way promoteToMulti does, to avoid stranding a reference nobody
// will ever drop.
func NewMulti(baseline *HStore) *HStore {
	if baseline != nil {
		baseline.Retain()
	}
	return &HStore{variant: VariantMulti, refs: 1, baseline: baseline}
}

// SetLogger attaches a trace logger; nil disables tracing (the default).
func (h *HStore) SetLogger(l *zap.Logger) { h.log = l }

func (h *HStore) trace(msg string, fields ...zap.Field) {
	if h.log == nil {
		return
	}
	h.log.Debug(msg, fields...)
}

// Variant reports whether h is Single or Multi.
func (h *HStore) Variant() Variant { return h.variant }

// Refs returns the current reference count.
func (h *HStore) Refs() int { return h.refs }

// IsShared reports whether more than one BStore entry points at h,
// meaning a write must COW-break rather than mutate in place.
func (h *HStore) IsShared() bool { return h.refs > 1 }

// Retain increments h's reference count, for a new owner that now
// shares this store without copying it (getReadableCopy).
func (h *HStore) Retain() *HStore {
	h.refs++
	return h
}

// DropReference decrements h's reference count. When it reaches zero,
// h's own intervals are released (returned to the caller) and the
// baseline chain is released transitively. Package dse keeps its own
// byte accounting and does not consume the returned intervals.
func (h *HStore) DropReference() []Interval {
	h.refs--
	if h.refs > 0 {
		return nil
	}
	released := h.intervals
	h.intervals = nil
	if h.baseline != nil {
		h.baseline.DropReference()
	}
	return released
}

// Baseline returns h's delegation target, or nil if h is Single or a
// root Multi.
func (h *HStore) Baseline() *HStore { return h.baseline }

// Size returns the allocation's total byte size, found by walking the
// baseline chain down to the root Single.
func (h *HStore) Size() ir.ByteSize {
	for h.variant == VariantMulti {
		if h.baseline == nil {
			return ir.UnknownSize
		}
		h = h.baseline
	}
	return h.typ.Size()
}

// TypeHint returns the allocation's type, found the same way as Size.
func (h *HStore) TypeHint() ir.Type {
	for h.variant == VariantMulti {
		if h.baseline == nil {
			return nil
		}
		h = h.baseline
	}
	return h.typ
}

// SetIgnoreBelow sets the threshold below which reads must not descend
// into h's baseline (used by merge to cap common-ancestor walks).
func (h *HStore) SetIgnoreBelow(off ir.ByteSize) { h.ignoreBelow = off }

func (h *HStore) sortedIntervals() []Interval {
	out := make([]Interval, len(h.intervals))
	copy(out, h.intervals)
	sort.Slice(out, func(i, j int) bool { return out[i].Off < out[j].Off })
	return out
}

func sortIntervals(ivs []Interval) []Interval {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Off < ivs[j].Off })
	return ivs
}

func maxSize(a, b ir.ByteSize) ir.ByteSize {
	if a > b {
		return a
	}
	return b
}

func minSize(a, b ir.ByteSize) ir.ByteSize {
	if a < b {
		return a
	}
	return b
}
