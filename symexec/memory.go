package symexec

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
	"github.com/bftjoe/llpe/pv"
)

// load reads size bytes through ptr: overdefined or non-pointer input
// is overdefined; all-null candidates yield null; any unknown-offset
// candidate forces an imprecise DSE read and an overdefined result;
// otherwise every precise candidate's bytes are read and merged. A
// candidate rooted on a registered constant global whose base store
// has never been written folds against the global's initializer
// instead of coming back empty.
func load(ctx *Context, bs *block.BStore, ds *dse.State, ptr av.Val, size ir.ByteSize) av.Val {
	if ptr.IsOverdefined() || ptr.Class() != av.ClassPtr {
		return av.Overdefined(av.ReasonLoadVague)
	}
	ptrs := ptr.Ptrs()
	if len(ptrs) == 0 {
		return av.Empty()
	}
	if ptr.AllNull() {
		return av.Null()
	}
	if ptr.HasUnknownOffset() {
		dse.ImpreciseRead(ds)
		return av.Overdefined(av.ReasonLoadVague)
	}

	result := av.Empty()
	for _, p := range ptrs {
		if p.IsFunc {
			result = av.Merge(result, av.FuncAddr(p.Base))
			continue
		}
		dse.Read(ds, p.Base, ir.ByteSize(p.Offset), size)
		v := block.Read(bs, p.Base, ir.ByteSize(p.Offset), size)
		if v.IsEmpty() {
			if agg, ok := ctx.GlobalInit(p.Base); ok {
				v = pv.Partial(agg, ir.ByteSize(p.Offset)).ToValue(size)
			}
		}
		result = av.Merge(result, v)
	}
	return result
}

// store writes rhs (size bytes) through ptr. Overdefined/non-pointer
// ptr clobbers the whole block store (nothing is known about where the
// write landed). Exactly one precise candidate writes directly; an
// unknown-offset candidate forces an imprecise DSE read (the range the
// write might have hit is now unknowable, so any future elimination of
// the store it's overwriting is unsound) and clobbers; two or more
// precise candidates read-modify-merge each one, since any one of them
// might be the actual target.
func store(ctx *Context, bs *block.BStore, ds *dse.State, ptr, rhs av.Val, size ir.ByteSize, instrID int) {
	if ptr.IsOverdefined() || ptr.Class() != av.ClassPtr {
		bs.ClobberAll()
		return
	}
	ptrs := ptr.Ptrs()
	if len(ptrs) == 0 {
		return
	}

	if p, ok := ptr.SinglePrecisePtr(); ok {
		willCoverWhole := p.Offset == 0 && size == p.Base.Size()
		h := block.GetWritableStoreFor(bs, p.Base, willCoverWhole)
		h = heap.WritePB(h, ir.ByteSize(p.Offset), size, rhs)
		bs.PutLocal(p.Base, h)
		dse.Store(ds, p.Base, instrID, ir.ByteSize(p.Offset), size)
		return
	}

	for _, p := range ptrs {
		if p.Unknown {
			dse.ImpreciseRead(ds)
			bs.ClobberAll()
			continue
		}
		existing := block.Read(bs, p.Base, ir.ByteSize(p.Offset), size)
		merged := av.Merge(existing, rhs)
		h := block.GetWritableStoreFor(bs, p.Base, false)
		h = heap.WritePB(h, ir.ByteSize(p.Offset), size, merged)
		bs.PutLocal(p.Base, h)
		dse.Store(ds, p.Base, instrID, ir.ByteSize(p.Offset), size)
	}
}
