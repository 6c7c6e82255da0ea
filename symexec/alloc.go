package symexec

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// mallocType stands in for a heap allocation's element type: Malloc
// carries only a raw byte count, no structural type, so a BasicType
// named "malloc" records just enough for Type.Size() to answer
// correctly downstream.
func mallocType(size ir.ByteSize) ir.Type {
	return ir.BasicType{Name: "malloc", Bits: size}
}

// doAlloca steps an Alloca: GetWritableStoreFor's own "none,
// willCoverWhole" case already constructs a fresh Single store holding
// the empty (uninitialised) Val, so there is nothing more to do beyond
// producing the pointer.
func doAlloca(bs *block.BStore, id ir.AId) av.Val {
	block.GetWritableStoreFor(bs, id, true)
	return av.Ptr(id, 0)
}

// doMalloc steps a Malloc: an unresolved size operand yields
// UnknownSize, which still gets an allocation identity (its bytes are
// simply unreadable until narrowed) rather than an overdefined Val,
// since the pointer itself is precise even when its extent is not.
func doMalloc(ctx *Context, bs *block.BStore, id ir.AId, size ir.ByteSize) av.Val {
	block.GetWritableStoreFor(bs, id, size != ir.UnknownSize)
	return av.Ptr(id, 0)
}

// doRealloc steps a Realloc: resolves the old pointer, allocates a new
// identity, and copies min(oldSize, newSize) bytes across. A
// non-single old pointer (overdefined, empty, or multiple candidates)
// skips the copy — the new allocation starts uninitialised — since
// there is no single source extent to copy from.
func doRealloc(ctx *Context, bs *block.BStore, ds *dse.State, oldPtr av.Val, newID ir.AId, newSize ir.ByteSize, instrID int) av.Val {
	h := block.GetWritableStoreFor(bs, newID, newSize != ir.UnknownSize)

	p, ok := oldPtr.SinglePrecisePtr()
	if !ok || p.Offset != 0 {
		return av.Ptr(newID, 0)
	}
	oldSize := p.Base.Size()
	if oldSize == ir.UnknownSize || newSize == ir.UnknownSize {
		return av.Ptr(newID, 0)
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	if n <= 0 {
		return av.Ptr(newID, 0)
	}

	dse.Read(ds, p.Base, 0, n)
	old := block.Read(bs, p.Base, 0, n)
	h = heap.WritePB(h, 0, n, old)
	bs.PutLocal(newID, h)
	dse.Store(ds, newID, instrID, 0, n)
	return av.Ptr(newID, 0)
}

// doFree steps a Free: every precise candidate the pointer resolves to
// is released from both the DSE allocation tracker and the block
// store's local view. An overdefined or unknown-offset pointer can
// free an unbounded set of allocations, so it conservatively clobbers
// the whole block store instead of naming a specific set.
func doFree(bs *block.BStore, ds *dse.State, ptr av.Val) {
	if ptr.IsOverdefined() || ptr.Class() != av.ClassPtr {
		bs.ClobberAll()
		return
	}
	for _, p := range ptr.Ptrs() {
		if p.Unknown || p.IsFunc {
			bs.ClobberAll()
			continue
		}
		dse.Free(ds, p.Base)
		bs.DeleteLocal(p.Base)
	}
}
