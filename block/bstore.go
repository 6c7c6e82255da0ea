package block

import (
	"github.com/dolthub/swiss"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// Status is a block's reachability certainty, set by the driver.
type Status uint8

const (
	// Uncertain means the block may also be reached by an
	// unspecialised fallback path; writes must stay local.
	Uncertain Status = iota
	// Certain means every reaching path is accounted for by this
	// specialisation, so a write with no other outstanding clobber may
	// go straight through to the base store.
	Certain
)

func (s Status) String() string {
	if s == Certain {
		return "certain"
	}
	return "uncertain"
}

// BStore is one basic block's private view of the heap: a COW map of
// AId to HStore layered over a shared Base.
type BStore struct {
	base               *Base
	status             Status
	allOthersClobbered bool
	local              *swiss.Map[ir.AId, *heap.HStore]
}

// New constructs a BStore over base with the given reachability status.
func New(base *Base, status Status) *BStore {
	return &BStore{base: base, status: status, local: swiss.NewMap[ir.AId, *heap.HStore](8)}
}

// Status returns b's reachability status.
func (b *BStore) Status() Status { return b.status }

// SetStatus updates b's reachability status (the driver demotes a
// block from Certain to Uncertain when an unspecialised fallback can
// also reach it).
func (b *BStore) SetStatus(s Status) { b.status = s }

// AllOthersClobbered reports whether every AId not explicitly present
// in b's local map must be treated as overdefined.
func (b *BStore) AllOthersClobbered() bool { return b.allOthersClobbered }

// ClobberAll marks every AId as overdefined and drops the local map,
// so no earlier local entry survives (the state left behind after an
// opaque call or a write through an unknown pointer).
func (b *BStore) ClobberAll() {
	b.allOthersClobbered = true
	b.local = swiss.NewMap[ir.AId, *heap.HStore](0)
}

// Base returns b's shared base store.
func (b *BStore) Base() *Base { return b.base }

// Local returns b's private AId→HStore entry, if any.
func (b *BStore) Local(id ir.AId) (*heap.HStore, bool) { return b.local.Get(id) }

// PutLocal installs h as id's private entry, for use by package merge
// when assembling a joined BStore.
func (b *BStore) PutLocal(id ir.AId, h *heap.HStore) { b.local.Put(id, h) }

// SetClobbered sets the allOthersClobbered flag directly, for use by
// package merge (ClobberAll additionally clears the local map, which
// merge does not always want).
func (b *BStore) SetClobbered(v bool) { b.allOthersClobbered = v }

// ClearLocal drops every private entry without touching allOthersClobbered.
func (b *BStore) ClearLocal() { b.local = swiss.NewMap[ir.AId, *heap.HStore](0) }

// DeleteLocal drops id's private entry, used after a free: the
// allocation no longer exists, so neither base nor local should answer
// further reads for it.
func (b *BStore) DeleteLocal(id ir.AId) { b.local.Delete(id) }

// Each iterates b's private entries.
func (b *BStore) Each(fn func(id ir.AId, h *heap.HStore) bool) { b.local.Iter(fn) }

// Count returns the number of private entries.
func (b *BStore) Count() int { return b.local.Count() }

// Read resolves id's value at [off, off+length); an explicit local
// entry wins, then base, then — if allOthersClobbered — overdefined.
func Read(b *BStore, id ir.AId, off, length ir.ByteSize) av.Val {
	if h, ok := b.local.Get(id); ok {
		return heap.ReadRange(h, off, length)
	}
	if b.allOthersClobbered {
		return av.Overdefined(av.ReasonLoadVague)
	}
	h := b.base.Lookup(id)
	if h == nil {
		return av.Empty()
	}
	return heap.ReadRange(h, off, length)
}

// GetWritableStoreFor is the sole mutation entry point: it resolves
// id's store to one this BStore may write into without disturbing any
// other owner, per the decision table:
//
//	none, CERTAIN and !allOthersClobbered  -> write through to base
//	none, willCoverWhole                   -> new Single
//	none, otherwise                         -> new Multi over base's store
//	Single                                  -> keep (heap.WritePB promotes lazily)
//	Multi, shared                           -> COW-break: clone
//	Multi, private                          -> mutate in place
func GetWritableStoreFor(b *BStore, id ir.AId, willCoverWhole bool) *heap.HStore {
	if existing, ok := b.local.Get(id); ok {
		if existing.Variant() == heap.VariantMulti && existing.IsShared() {
			nh := existing.Clone()
			existing.DropReference()
			b.local.Put(id, nh)
			return nh
		}
		return existing
	}

	if b.status == Certain && !b.allOthersClobbered {
		h := b.base.GetOrCreate(id)
		b.local.Put(id, h)
		return h
	}

	var h *heap.HStore
	if willCoverWhole {
		h = heap.NewSingle(av.Empty(), id.Type())
	} else {
		h = heap.NewMulti(b.base.GetOrCreate(id))
	}
	b.local.Put(id, h)
	return h
}
