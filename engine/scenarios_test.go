package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/ir"
)

func i32() ir.Type { return ir.BasicType{Name: "i32", Bits: 4} }
func i8() ir.Type  { return ir.BasicType{Name: "i8", Bits: 1} }
func ptrTy() ir.Type { return ir.BasicType{Name: "ptr", Bits: 8} }

func instr(bb *ir.BasicBlock, id int, typ ir.Type) ir.InstrBase {
	return ir.NewInstrBase(id, bb, typ, "")
}

// fixedPeeler always peels a loop exactly n times.
type fixedPeeler struct{ n int }

func (p fixedPeeler) PeelBound(*ir.Loop) int { return p.n }

// neverInline never inlines a call site, so every Call is either
// modelled (via an Annotated LibraryModel) or treated opaquely.
type neverInline struct{}

func (neverInline) ShouldInline(ir.CallSite) bool { return false }

func newContext() *Context {
	return NewContext(Config{Specials: &ir.SpecialFuncTable{}})
}

// Scenario 1: a straight-line block stores a folded constant and
// immediately loads it back. The core has no arithmetic instruction —
// constant folding of "z = x + y" happens upstream, before this IR is
// built — so the fold shows up here as a plain Const operand.
func TestScenarioStraightLineConstantFold(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "straight_line"}
	bb := &ir.BasicBlock{ID: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{bb}

	p := &ir.Alloca{InstrBase: instr(bb, 0, i32()), ElemType: i32(), ElemSize: 4}
	st := &ir.Store{InstrBase: instr(bb, 1, nil), Addr: p, Val: &ir.Const{Typ: i32(), Bits: 5}}
	ld := &ir.Load{InstrBase: instr(bb, 2, i32()), Addr: p}
	bb.Instrs = []ir.Instruction{p, st, ld}

	res, err := ctx.Run(fn, nil, neverInline{})
	require.NoError(t, err)
	require.NotNil(t, res)

	got := ctx.Symbols.Cached(ld)
	require.Len(t, got.Scalars(), 1)
	assert.Equal(t, uint64(5), got.Scalars()[0].Bits)

	// A store immediately followed by a read of the same bytes is
	// needed, not dead: dse.Read marks every overlapping owner needed
	// on any read, precise or not. Only a store with no read at all
	// reaching it becomes eligible for removal.
	assert.NotContains(t, ctx.Registry.DeadStores(), st.InstrID())
}

// Scenario 2: two sibling blocks store different bytes to the same
// pointer through a shared predecessor, then a join block reads it
// back. Since ir carries no branch condition, the reference driver
// runs both arms unconditionally and must not let one arm's write
// leak into the other's — the merge result should see both values.
func TestScenarioBranchMergeAtPointerOffset(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "branch_merge"}
	b0 := &ir.BasicBlock{ID: 0, Func: fn, Succs: []ir.BlockID{1, 2}}
	b1 := &ir.BasicBlock{ID: 1, Func: fn, Preds: []ir.BlockID{0}, Succs: []ir.BlockID{3}}
	b2 := &ir.BasicBlock{ID: 2, Func: fn, Preds: []ir.BlockID{0}, Succs: []ir.BlockID{3}}
	b3 := &ir.BasicBlock{ID: 3, Func: fn, Preds: []ir.BlockID{1, 2}}
	fn.Blocks = []*ir.BasicBlock{b0, b1, b2, b3}

	p := &ir.Alloca{InstrBase: instr(b0, 0, i8()), ElemType: i8(), ElemSize: 1}
	b0.Instrs = []ir.Instruction{p}

	stA := &ir.Store{InstrBase: instr(b1, 1, nil), Addr: p, Val: &ir.Const{Typ: i8(), Bits: 0xAA}}
	b1.Instrs = []ir.Instruction{stA}

	stB := &ir.Store{InstrBase: instr(b2, 2, nil), Addr: p, Val: &ir.Const{Typ: i8(), Bits: 0xBB}}
	b2.Instrs = []ir.Instruction{stB}

	ld := &ir.Load{InstrBase: instr(b3, 3, i8()), Addr: p}
	b3.Instrs = []ir.Instruction{ld}

	res, err := ctx.Run(fn, nil, neverInline{})
	require.NoError(t, err)
	require.NotNil(t, res)

	got := ctx.Symbols.Cached(ld)
	require.Equal(t, av.ClassScalar, got.Class())
	var bits []uint64
	for _, s := range got.Scalars() {
		bits = append(bits, s.Bits)
	}
	assert.ElementsMatch(t, []uint64{0xAA, 0xBB}, bits)
}

// Scenario 3: a memset followed by a memcpy through known pointers —
// the fill value must round-trip byte-for-byte through both the
// intermediate buffer and the destination.
func TestScenarioMemcpyThroughKnownPointers(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "memcpy_roundtrip"}
	bb := &ir.BasicBlock{ID: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{bb}

	arrTy := ir.BasicType{Name: "arr16", Bits: 16}
	buf := &ir.Alloca{InstrBase: instr(bb, 0, arrTy), ElemType: arrTy, ElemSize: 16}
	dst := &ir.Alloca{InstrBase: instr(bb, 1, arrTy), ElemType: arrTy, ElemSize: 16}
	ms := &ir.Memset{InstrBase: instr(bb, 2, nil), Dst: buf, Byte: &ir.Const{Typ: i8(), Bits: 0}, BoundedLen: 16}
	mc := &ir.Memcpy{InstrBase: instr(bb, 3, nil), Dst: dst, Src: buf, BoundedLen: 16}
	bb.Instrs = []ir.Instruction{buf, dst, ms, mc}

	res, err := ctx.Run(fn, nil, neverInline{})
	require.NoError(t, err)

	dstID := ir.NewAId(ir.KindStack, fn, ir.NoContext, dst.InstrID(), 16, arrTy)
	got := block.Read(res.Block, dstID, 0, 16)
	require.Equal(t, av.ClassSplat, got.Class())
	splats := got.Splats()
	require.Len(t, splats, 1)
	assert.Equal(t, byte(0), splats[0].Byte)
	assert.Equal(t, ir.ByteSize(16), splats[0].Len)
}

// Scenario 4: a store whose tail half is later read through a
// pass-through block leaves only the head half outstanding — the byte
// accounting must reflect a partial kill, not an all-or-nothing one.
func TestScenarioDeadStoreEliminationThroughPassThrough(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "dse_passthrough"}
	a := &ir.BasicBlock{ID: 0, Func: fn, Succs: []ir.BlockID{1}}
	c := &ir.BasicBlock{ID: 1, Func: fn, Preds: []ir.BlockID{0}, Succs: []ir.BlockID{2}}
	b := &ir.BasicBlock{ID: 2, Func: fn, Preds: []ir.BlockID{1}}
	fn.Blocks = []*ir.BasicBlock{a, c, b}

	p := &ir.Alloca{InstrBase: instr(a, 0, ir.BasicType{Name: "i64", Bits: 8}), ElemType: ir.BasicType{Name: "i64", Bits: 8}, ElemSize: 8}
	st := &ir.Store{InstrBase: instr(a, 1, nil), Addr: p, Val: &ir.Const{Typ: ir.BasicType{Name: "i64", Bits: 8}, Bits: 0x1122334455667788}}
	a.Instrs = []ir.Instruction{p, st}

	tailPtr := &ir.GEP{InstrBase: instr(b, 2, ptrTy()), X: p, Offset: 4}
	ld := &ir.Load{InstrBase: instr(b, 3, i32()), Addr: tailPtr}
	b.Instrs = []ir.Instruction{tailPtr, ld}

	res, err := ctx.Run(fn, nil, neverInline{})
	require.NoError(t, err)

	pID := ir.NewAId(ir.KindStack, fn, ir.NoContext, p.InstrID(), 8, ir.BasicType{Name: "i64", Bits: 8})
	am := res.DSE.Lookup(pID)
	require.NotNil(t, am)
	entries := am.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ir.ByteSize(0), entries[0].Off)
	assert.Equal(t, ir.ByteSize(4), entries[0].Len)
	require.Len(t, entries[0].Owners, 1)
	owner := entries[0].Owners[0]
	assert.Equal(t, st.InstrID(), owner.Instr)
	assert.True(t, owner.IsNeeded())
	assert.Equal(t, 4, owner.OutstandingBytes())
	assert.NotContains(t, ctx.Registry.DeadStores(), st.InstrID())
}

// Scenario 5: the same static store, peeled three times by the
// driver, produces three distinct tracked stores even though the
// instruction id never changes — only the final peel's store is read,
// so the first two are eligible for removal.
func TestScenarioLoopPeelWithHeapMutation(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "loop_peel"}
	pre := &ir.BasicBlock{ID: 0, Func: fn, Succs: []ir.BlockID{1}}
	hdr := &ir.BasicBlock{ID: 1, Func: fn, Preds: []ir.BlockID{0, 1}, Succs: []ir.BlockID{1, 2}}
	after := &ir.BasicBlock{ID: 2, Func: fn, Preds: []ir.BlockID{1}}
	fn.Blocks = []*ir.BasicBlock{pre, hdr, after}
	fn.Loops = []*ir.Loop{{Header: 1}}

	arrTy := ir.BasicType{Name: "arr8", Bits: 8}
	arr := &ir.Alloca{InstrBase: instr(pre, 0, arrTy), ElemType: arrTy, ElemSize: 8}
	pre.Instrs = []ir.Instruction{arr}

	elemPtr := &ir.GEP{InstrBase: instr(hdr, 1, ptrTy()), X: arr, Offset: 4}
	st := &ir.Store{InstrBase: instr(hdr, 2, nil), Addr: elemPtr, Val: &ir.Const{Typ: i32(), Bits: 1}}
	hdr.Instrs = []ir.Instruction{elemPtr, st}

	ld := &ir.Load{InstrBase: instr(after, 3, i32()), Addr: elemPtr}
	after.Instrs = []ir.Instruction{ld}

	res, err := ctx.Run(fn, fixedPeeler{n: 3}, neverInline{})
	require.NoError(t, err)

	arrID := ir.NewAId(ir.KindStack, fn, ir.NoContext, arr.InstrID(), 8, arrTy)
	got := block.Read(res.Block, arrID, 4, 4)
	require.Len(t, got.Scalars(), 1)
	assert.Equal(t, uint64(1), got.Scalars()[0].Bits)

	dead := ctx.Registry.DeadStores()
	count := 0
	for _, id := range dead {
		if id == st.InstrID() {
			count++
		}
	}
	assert.Equal(t, 2, count, "the first two peels' stores should be dead, the third kept live by the final read")
}

// Scenario 6: an opaque call clobbers the whole block store, so a
// pointer written before the call reads back overdefined afterward,
// and the preceding store is marked needed rather than removed.
func TestScenarioOpaqueCallClobber(t *testing.T) {
	ctx := newContext()
	fn := &ir.Function{Name: "opaque_clobber"}
	bb := &ir.BasicBlock{ID: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{bb}

	p := &ir.Alloca{InstrBase: instr(bb, 0, i32()), ElemType: i32(), ElemSize: 4}
	st := &ir.Store{InstrBase: instr(bb, 1, nil), Addr: p, Val: &ir.Const{Typ: i32(), Bits: 9}}
	call := &ir.Call{InstrBase: instr(bb, 2, nil)}
	ld := &ir.Load{InstrBase: instr(bb, 3, i32()), Addr: p}
	bb.Instrs = []ir.Instruction{p, st, call, ld}

	res, err := ctx.Run(fn, nil, neverInline{})
	require.NoError(t, err)

	assert.True(t, res.Block.AllOthersClobbered())
	assert.True(t, ctx.Symbols.Cached(ld).IsOverdefined())
	assert.NotContains(t, ctx.Registry.DeadStores(), st.InstrID())
}
