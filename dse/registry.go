package dse

import "github.com/bftjoe/llpe/ir"

type allocEntry struct {
	id ir.AId
	ta *TA
}

// Registry accumulates every TS/TA created across an entire traversal
// so a final sweep can find stores and allocations that were never
// observably read, even after their DSE map entries have long since
// been erased (by a Read, a Free, or the GC pass).
type Registry struct {
	stores []*TS
	allocs []allocEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) trackTS(t *TS) {
	r.stores = append(r.stores, t)
}

func (r *Registry) trackTA(id ir.AId, a *TA) {
	r.allocs = append(r.allocs, allocEntry{id: id, ta: a})
}

// DeadStores returns the instruction ids of every TS with zero
// outstanding bytes that was never marked needed, in registration
// order (deterministic, since Store calls happen in traversal order).
func (r *Registry) DeadStores() []int {
	var out []int
	for _, t := range r.stores {
		if t.Dead() {
			out = append(out, t.Instr)
		}
	}
	return out
}

// DeadAllocs returns the identities of every tracked allocation with
// zero outstanding references that was never marked needed.
func (r *Registry) DeadAllocs() []ir.AId {
	var out []ir.AId
	for _, e := range r.allocs {
		if e.ta.Dead() {
			out = append(out, e.id)
		}
	}
	return out
}
