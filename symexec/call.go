package symexec

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

// stepCall is the transfer function for a call the driver chose not to
// inline: the inline/model/clobber trichotomy's last two branches.
// Inlining itself is the driver's concern (a driver.Inliner decision
// followed by recursive descent into the callee), never symexec's — by
// the time Step reaches a *ir.Call, that decision has already gone the
// other way.
func stepCall(ctx *Context, bs *block.BStore, ds *dse.State, x *ir.Call) av.Val {
	model := x.Annotated
	if model == nil && ctx.Specials != nil {
		model = ctx.Specials.ModelFor(x.Callee)
	}
	if model == nil {
		return opaqueCall(bs, ds, x)
	}
	return modelledCall(ctx, bs, ds, x, model)
}

// opaqueCall is the conservative fallback for an unrecognised,
// uninlined call: every allocation not already pinned down locally
// might have been read or written, so the block store clobbers and
// every tracked DSE store becomes needed.
func opaqueCall(bs *block.BStore, ds *dse.State, x *ir.Call) av.Val {
	bs.ClobberAll()
	dse.CallOpaque(ds)
	if x.ValueType() == nil {
		return av.Empty()
	}
	return av.Overdefined(av.ReasonOpaqueCall)
}

// modelledCall applies an annotated library model's mod/ref summary:
// a read-only model touches no store at all; an allocator returns a
// fresh, unaliased allocation; a freer releases the allocation named
// by argument 0; otherwise every declared Mod or Ref location is
// marked read for DSE purposes (so a prior store into it survives as
// needed even though this call never writes it), and in addition each
// Mod location is clobbered, since its precise extent isn't known
// without a richer per-argument shape.
func modelledCall(ctx *Context, bs *block.BStore, ds *dse.State, x *ir.Call, model *ir.LibraryModel) av.Val {
	if model.ReadOnly {
		return resultVal(x)
	}
	if model.Allocator {
		id := allocID(ir.KindHeap, x, ir.UnknownSize, mallocType(ir.UnknownSize))
		block.GetWritableStoreFor(bs, id, false)
		return av.Ptr(id, 0)
	}
	if model.Freer {
		if len(x.Args) > 0 {
			doFree(bs, ds, Eval(ctx, x.Args[0]))
		}
		return av.Empty()
	}

	for _, eff := range model.Effects {
		if (!eff.Mod && !eff.Ref) || eff.ArgIndex >= len(x.Args) {
			continue
		}
		ptr := Eval(ctx, x.Args[eff.ArgIndex])
		if ptr.IsOverdefined() || ptr.Class() != av.ClassPtr {
			if eff.Mod {
				bs.ClobberAll()
			}
			continue
		}
		for _, p := range ptr.Ptrs() {
			if p.Unknown || p.IsFunc || eff.Size == ir.UnknownSize {
				dse.ImpreciseRead(ds)
				if eff.Mod {
					bs.ClobberAll()
				}
				continue
			}
			dse.CallReadArgs(ds, p.Base, ir.ByteSize(p.Offset), eff.Size)
			if !eff.Mod {
				continue
			}
			h := block.GetWritableStoreFor(bs, p.Base, false)
			h = heap.WritePB(h, ir.ByteSize(p.Offset), eff.Size, av.Overdefined(av.ReasonOpaqueCall))
			bs.PutLocal(p.Base, h)
		}
	}
	return resultVal(x)
}

func resultVal(x *ir.Call) av.Val {
	if x.ValueType() == nil {
		return av.Empty()
	}
	return av.Overdefined(av.ReasonOpaqueCall)
}
