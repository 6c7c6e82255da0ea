package symexec

import (
	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/ir"
)

// Step computes (and caches) one instruction's Val and applies its
// store effects, dispatching on the closed Instruction set. bb is the
// block currently executing instr, used to resolve Phi's live
// predecessor edge.
func Step(ctx *Context, bs *block.BStore, ds *dse.State, bb *ir.BasicBlock, instr ir.Instruction) {
	switch x := instr.(type) {
	case *ir.Alloca:
		ctx.SetCached(x, doAlloca(bs, allocID(ir.KindStack, x, x.ElemSize, x.ElemType)))

	case *ir.Malloc:
		size := resolveSize(ctx, x.SizeOperand, x.SizeConst)
		ctx.SetCached(x, doMalloc(ctx, bs, allocID(ir.KindHeap, x, size, mallocType(size)), size))

	case *ir.Realloc:
		oldPtr := Eval(ctx, x.Ptr)
		size := resolveSize(ctx, x.SizeOperand, x.SizeConst)
		ctx.SetCached(x, doRealloc(ctx, bs, ds, oldPtr, allocID(ir.KindHeap, x, size, mallocType(size)), size, x.InstrID()))

	case *ir.Free:
		doFree(bs, ds, Eval(ctx, x.Ptr))

	case *ir.Store:
		size := x.Val.ValueType().Size()
		store(ctx, bs, ds, Eval(ctx, x.Addr), Eval(ctx, x.Val), size, x.InstrID())

	case *ir.Load:
		ctx.SetCached(x, load(ctx, bs, ds, Eval(ctx, x.Addr), x.ValueType().Size()))

	case *ir.Memcpy:
		doMemcpy(ctx, bs, ds, Eval(ctx, x.Dst), Eval(ctx, x.Src), x.BoundedLen, x.InstrID())

	case *ir.Memset:
		doMemset(ctx, bs, ds, Eval(ctx, x.Dst), Eval(ctx, x.Byte), x.BoundedLen, x.InstrID())

	case *ir.Phi:
		ctx.SetCached(x, stepPhi(ctx, bb, x))

	case *ir.Cast:
		ctx.SetCached(x, stepCast(ctx, x))

	case *ir.GEP:
		ctx.SetCached(x, stepGEP(ctx, x))

	case *ir.Call:
		v := stepCall(ctx, bs, ds, x)
		if x.ValueType() != nil {
			ctx.SetCached(x, v)
		}

	case *ir.VAStart:
		bs.ClobberAll()

	case *ir.VACopy:
		bs.ClobberAll()
	}
}

// allocID builds the allocation identity for instr's own result,
// context-insensitively (the core never manufactures a CallContext —
// that is the driver's job, so every site here uses NoContext).
func allocID(kind ir.AllocKind, instr ir.Instruction, size ir.ByteSize, typ ir.Type) ir.AId {
	return ir.NewAId(kind, instr.InstrBlock().Func, ir.NoContext, instr.InstrID(), size, typ)
}

// resolveSize returns constant's value if the size operand is nil (a
// compile-time constant already folded by the loader), otherwise
// evaluates operand and takes its scalar bit pattern as a byte count —
// UnknownSize if operand didn't resolve to a single scalar.
func resolveSize(ctx *Context, operand ir.Value, constant ir.ByteSize) ir.ByteSize {
	if operand == nil {
		return constant
	}
	v := Eval(ctx, operand)
	for _, s := range v.Scalars() {
		return ir.ByteSize(s.Bits)
	}
	return ir.UnknownSize
}

// doMemcpy copies BoundedLen bytes from Src to Dst. An unbounded
// length clobbers the whole block store, since there is no byte
// count to bound a precise write to.
func doMemcpy(ctx *Context, bs *block.BStore, ds *dse.State, dst, src av.Val, length ir.ByteSize, instrID int) {
	if length == ir.UnknownSize {
		bs.ClobberAll()
		return
	}
	v := load(ctx, bs, ds, src, length)
	store(ctx, bs, ds, dst, v, length, instrID)
}

// doMemset fills BoundedLen bytes at Dst with the low byte of Byte. An
// unbounded length, or a non-constant fill byte, clobbers the whole
// block store.
func doMemset(ctx *Context, bs *block.BStore, ds *dse.State, dst, fillByte av.Val, length ir.ByteSize, instrID int) {
	if length == ir.UnknownSize {
		bs.ClobberAll()
		return
	}
	scalars := fillByte.Scalars()
	if len(scalars) != 1 {
		bs.ClobberAll()
		return
	}
	v := av.Splat(byte(scalars[0].Bits), length)
	store(ctx, bs, ds, dst, v, length, instrID)
}

// stepPhi merges the values along every predecessor edge that
// actually reached bb; an edge from a block not in bb.Preds (dead
// under the current specialisation) is skipped.
func stepPhi(ctx *Context, bb *ir.BasicBlock, x *ir.Phi) av.Val {
	live := make(map[ir.BlockID]bool, len(bb.Preds))
	for _, p := range bb.Preds {
		live[p] = true
	}
	result := av.Empty()
	for i, from := range x.FromBlocks {
		if !live[from] {
			continue
		}
		result = av.Merge(result, Eval(ctx, x.Edges[i]))
	}
	return result
}

func stepCast(ctx *Context, x *ir.Cast) av.Val {
	v := Eval(ctx, x.X)
	return av.Coerce(v, classifyTarget(x.ValueType()), x.ValueType(), x.ValueType().Size())
}

// classifyTarget picks Coerce's TargetKind from the destination type's
// name, the only signal BasicType exposes; the loader is expected to
// name pointer types "ptr" so this is an equality check, not a
// heuristic over arbitrary text.
func classifyTarget(t ir.Type) av.TargetKind {
	if bt, ok := t.(ir.BasicType); ok && bt.Name == "ptr" {
		return av.TargetPointer
	}
	return av.TargetScalar
}

// stepGEP advances every candidate base pointer by Offset bytes. An
// UnknownSize offset (a non-constant index) degrades every precise
// candidate to Ptr(base, UNKNOWN); an already-unknown candidate stays
// unknown regardless.
func stepGEP(ctx *Context, x *ir.GEP) av.Val {
	base := Eval(ctx, x.X)
	if base.IsOverdefined() || base.Class() != av.ClassPtr {
		return base
	}
	result := av.Empty()
	for _, p := range base.Ptrs() {
		switch {
		case p.IsFunc:
			result = av.Merge(result, av.FuncAddr(p.Base))
		case p.Unknown || x.Offset == ir.UnknownSize:
			result = av.Merge(result, av.PtrUnknown(p.Base))
		default:
			result = av.Merge(result, av.Ptr(p.Base, p.Offset+int64(x.Offset)))
		}
	}
	return result
}
