package av

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/ir"
)

func intTy() ir.Type { return ir.BasicType{Name: "i64", Bits: 8} }

func TestMergeIdempotent(t *testing.T) {
	v := Scalar(42, intTy())
	require.Equal(t, v, Merge(v, v))
}

func TestMergeEmptyIsIdentity(t *testing.T) {
	v := Scalar(1, intTy())
	assert.Equal(t, v, Merge(Empty(), v))
	assert.Equal(t, v, Merge(v, Empty()))
}

func TestMergeOverdefinedIsTop(t *testing.T) {
	top := Overdefined(ReasonRDFG)
	v := Scalar(1, intTy())
	assert.True(t, Merge(top, v).IsOverdefined())
	assert.True(t, Merge(v, top).IsOverdefined())
}

func TestMergeUnionsDistinctScalars(t *testing.T) {
	a := Scalar(1, intTy())
	b := Scalar(2, intTy())
	m := Merge(a, b)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, ClassScalar, m.Class())
}

func TestMergeMixedClassesOverdefined(t *testing.T) {
	a := Scalar(1, intTy())
	b := Fd(3)
	m := Merge(a, b)
	require.True(t, m.IsOverdefined())
	assert.Equal(t, ReasonMixedClasses, m.Reason())
}

func TestMergeWidensPastKMax(t *testing.T) {
	v := Empty()
	for i := 0; i < KMax+1; i++ {
		v = Merge(v, Scalar(uint64(i), intTy()))
	}
	require.True(t, v.IsOverdefined())
	assert.Equal(t, ReasonWidened, v.Reason())
}

func TestPtrUnknownAbsorbsPrecise(t *testing.T) {
	base := ir.NewAId(ir.KindHeap, nil, ir.NoContext, 7, 16, intTy())
	precise := Ptr(base, 4)
	vague := PtrUnknown(base)
	m := Merge(precise, vague)
	require.Equal(t, 1, m.Len())
	ptrs := m.Ptrs()
	assert.True(t, ptrs[0].Unknown)
}

func TestPtrCollapsesOnOversizedPreciseSet(t *testing.T) {
	base := ir.NewAId(ir.KindHeap, nil, ir.NoContext, 9, 256, intTy())
	v := Empty()
	for i := int64(0); i < KMax+1; i++ {
		v = Merge(v, Ptr(base, i))
	}
	require.False(t, v.IsOverdefined())
	ptrs := v.Ptrs()
	require.Len(t, ptrs, 1)
	assert.True(t, ptrs[0].Unknown)
	assert.True(t, ptrs[0].Base.Equal(base))
}

func TestFuncAddrAbsorbsNullScalar(t *testing.T) {
	fn := ir.NewAId(ir.KindGlobal, nil, ir.NoContext, 1, ir.UnknownSize, nil)
	fa := FuncAddr(fn)
	null := Scalar(0, intTy())
	m := Merge(fa, null)
	require.False(t, m.IsOverdefined())
	assert.Equal(t, ClassScalar, m.Class())
	assert.Equal(t, 2, m.Len())
}

func TestFuncAddrRejectsNonZeroScalar(t *testing.T) {
	fn := ir.NewAId(ir.KindGlobal, nil, ir.NoContext, 1, ir.UnknownSize, nil)
	fa := FuncAddr(fn)
	nonzero := Scalar(7, intTy())
	m := Merge(fa, nonzero)
	require.True(t, m.IsOverdefined())
	assert.Equal(t, ReasonMixedClasses, m.Reason())
}

func TestCoerceScalarTruncates(t *testing.T) {
	v := Scalar(0x1234, intTy())
	out := Coerce(v, TargetScalar, ir.BasicType{Name: "i8", Bits: 1}, 1)
	scalars := out.Scalars()
	require.Len(t, scalars, 1)
	assert.Equal(t, uint64(0x34), scalars[0].Bits)
}

func TestCoerceNonZeroToPointerFails(t *testing.T) {
	v := Scalar(5, intTy())
	out := Coerce(v, TargetPointer, nil, 8)
	require.True(t, out.IsOverdefined())
	assert.Equal(t, ReasonCastNonZeroToPtr, out.Reason())
}

func TestCoerceZeroToPointerIsNull(t *testing.T) {
	v := Scalar(0, intTy())
	out := Coerce(v, TargetPointer, nil, 8)
	assert.True(t, out.AllNull())
}

func TestSliceScalarExtractsByteRange(t *testing.T) {
	v := Scalar(0x0102030405060708, intTy())
	out := Slice(v, 1, 1)
	scalars := out.Scalars()
	require.Len(t, scalars, 1)
	assert.Equal(t, uint64(0x07), scalars[0].Bits)
}

func TestSliceSplatIsIdentityShortened(t *testing.T) {
	v := Splat(0xAB, 16)
	out := Slice(v, 0, 4)
	splats := out.Splats()
	require.Len(t, splats, 1)
	assert.Equal(t, byte(0xAB), splats[0].Byte)
	assert.Equal(t, ir.ByteSize(4), splats[0].Len)
}

func TestSlicePointerOverdefined(t *testing.T) {
	base := ir.NewAId(ir.KindStack, nil, ir.NoContext, 2, 8, intTy())
	out := Slice(Ptr(base, 0), 0, 4)
	assert.True(t, out.IsOverdefined())
}
