// Package dse tracks dead stores: a parallel, byte-level accounting
// pass that rides alongside the symbolic executor and decides, once
// the whole traversal settles, which store instructions (and which
// allocations) were never observably read and can be removed.
package dse

import (
	"github.com/dolthub/swiss"
	"go.uber.org/zap"

	"github.com/bftjoe/llpe/ir"
)

// Entry is one byte range of a DSE map, owned by every TS whose store
// still has outstanding bytes somewhere in [Off, Off+Len).
type Entry struct {
	Off, Len ir.ByteSize
	Owners   []*TS
}

func (e Entry) hi() ir.ByteSize { return e.Off + e.Len }

func cloneOwners(owners []*TS) []*TS {
	out := make([]*TS, len(owners))
	copy(out, owners)
	return out
}

// AllocMap is the DSE map for one allocation: a disjoint, sorted list
// of byte-range entries plus the allocation's own tracked-alloc
// record. It is reference-counted the same way heap.HStore is: a
// mutation first calls a writable-copy helper, which clones only when
// shared.
type AllocMap struct {
	refs    int
	entries []Entry
	ta      *TA
}

func newAllocMap() *AllocMap {
	return &AllocMap{refs: 1, ta: NewTA()}
}

// Retain adds one reference and returns the receiver, for chained use
// at sharing points (State.Clone).
func (m *AllocMap) Retain() *AllocMap {
	m.refs++
	return m
}

func (m *AllocMap) clone() *AllocMap {
	entries := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		entries[i] = Entry{Off: e.Off, Len: e.Len, Owners: cloneOwners(e.Owners)}
	}
	m.ta.Retain()
	return &AllocMap{refs: 1, entries: entries, ta: m.ta}
}

// TA returns the allocation's tracked-alloc record.
func (m *AllocMap) TA() *TA { return m.ta }

// Entries returns the map's current byte ranges. Callers must not
// mutate the returned slice or its Owners.
func (m *AllocMap) Entries() []Entry { return m.entries }

// State is the DSE state threaded alongside one BStore: a per-block
// map from allocation identity to that allocation's DSE map. reg, if
// set, is notified of every TS/TA created through this state so a
// post-pass can later sweep the whole traversal's accounting rather
// than just what one state still references.
type State struct {
	m   *swiss.Map[ir.AId, *AllocMap]
	reg *Registry
	log *zap.Logger
}

// NewState returns an empty DSE state reporting new TS/TA creation to
// reg. reg may be nil, in which case nothing is tracked for sweeping.
func NewState(reg *Registry) *State {
	return &State{m: swiss.NewMap[ir.AId, *AllocMap](8), reg: reg}
}

// SetLogger attaches a trace logger; nil disables tracing (the default).
func (s *State) SetLogger(l *zap.Logger) { s.log = l }

func (s *State) trace(msg string, fields ...zap.Field) {
	if s.log == nil {
		return
	}
	s.log.Debug(msg, fields...)
}

// Lookup returns the allocation's DSE map, or nil if untracked.
func (s *State) Lookup(id ir.AId) *AllocMap {
	am, ok := s.m.Get(id)
	if !ok {
		return nil
	}
	return am
}

// Count returns the number of allocations currently tracked.
func (s *State) Count() int { return s.m.Count() }

// Each calls fn for every tracked allocation; fn returning false stops
// the traversal early. Traversal order is whatever swiss.Map.Iter
// provides; callers that need determinism should sort ids themselves.
func (s *State) Each(fn func(id ir.AId, m *AllocMap) bool) {
	s.m.Iter(fn)
}

// Ids returns every tracked allocation identity.
func (s *State) Ids() []ir.AId {
	ids := make([]ir.AId, 0, s.m.Count())
	s.m.Iter(func(id ir.AId, _ *AllocMap) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

func (s *State) getOrCreate(id ir.AId) *AllocMap {
	if am, ok := s.m.Get(id); ok {
		return am
	}
	am := newAllocMap()
	if s.reg != nil {
		s.reg.trackTA(id, am.ta)
	}
	s.m.Put(id, am)
	return am
}

// getWritable returns a mutable AllocMap for id: the existing map if
// it is privately owned (refs == 1), else a fresh copy with refs
// reset to 1. A not-yet-tracked allocation gets a fresh empty map.
func (s *State) getWritable(id ir.AId) *AllocMap {
	am := s.getOrCreate(id)
	if am.refs > 1 {
		am.refs--
		cp := am.clone()
		s.m.Put(id, cp)
		return cp
	}
	return am
}

// Clone returns a copy-on-read snapshot of s: a fresh State sharing
// every AllocMap with s (each retained), deferring the actual copy to
// the first write through getWritable. This mirrors getReadableCopy's
// clone-and-retain discipline used for heap stores.
func (s *State) Clone() *State {
	ns := NewState(s.reg)
	ns.log = s.log
	s.m.Iter(func(id ir.AId, am *AllocMap) bool {
		ns.m.Put(id, am.Retain())
		return true
	})
	return ns
}

// Delete drops id from the state outright, without adjusting any
// owner's outstanding byte count. Callers that want the byte-dropping
// behaviour described for Free should call Free instead.
func (s *State) Delete(id ir.AId) {
	s.m.Delete(id)
}
