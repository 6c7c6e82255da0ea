// Package block implements the per-block store map: a COW-on-write
// AId→HStore map layered over a shared Base, plus the allOthersClobbered
// flag that marks every AId not explicitly listed as overdefined.
package block

import (
	"github.com/dolthub/swiss"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// Base is the committed, program-wide store that a CERTAIN block with
// no outstanding private writes reads and writes straight through to.
type Base struct {
	m *swiss.Map[ir.AId, *heap.HStore]
}

// NewBase constructs an empty base store.
func NewBase() *Base {
	return &Base{m: swiss.NewMap[ir.AId, *heap.HStore](64)}
}

// Lookup returns the base store for id, or nil if id has never been
// written at this point in the program.
func (b *Base) Lookup(id ir.AId) *heap.HStore {
	h, ok := b.m.Get(id)
	if !ok {
		return nil
	}
	return h
}

// GetOrCreate returns id's base store, creating an uninitialised
// Single the first time id is touched.
func (b *Base) GetOrCreate(id ir.AId) *heap.HStore {
	if h, ok := b.m.Get(id); ok {
		return h
	}
	h := heap.NewSingle(av.Empty(), id.Type())
	b.m.Put(id, h)
	return h
}

// Commit installs h as id's base store, called by merge when a CERTAIN
// block's merged map has no outstanding clobber.
func (b *Base) Commit(id ir.AId, h *heap.HStore) { b.m.Put(id, h) }
