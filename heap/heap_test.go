package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

func i32() ir.Type { return ir.BasicType{Name: "i32", Bits: 4} }

func TestSingleReadsWhole(t *testing.T) {
	v := av.Scalar(0xAABBCCDD, i32())
	h := NewSingle(v, i32())
	require.Equal(t, v, ReadRange(h, 0, 4))
}

func TestWritePBFullyCoveringSingleReplacesInPlace(t *testing.T) {
	h := NewSingle(av.Scalar(1, i32()), i32())
	v2 := av.Scalar(2, i32())
	out := WritePB(h, 0, 4, v2)
	assert.Equal(t, VariantSingle, out.Variant())
	assert.Equal(t, v2, ReadRange(out, 0, 4))
}

func TestWritePBPartialPromotesToMulti(t *testing.T) {
	h := NewSingle(av.Scalar(0x11223344, i32()), i32())
	out := WritePB(h, 0, 1, av.Scalar(0xFF, ir.BasicType{Name: "i8", Bits: 1}))
	require.Equal(t, VariantMulti, out.Variant())
	assert.NotNil(t, out.Baseline())
}

func TestReadRangeMultiDescendsIntoBaseline(t *testing.T) {
	baseline := NewSingle(av.Scalar(0x01020304, i32()), i32())
	h := NewMulti(baseline)
	h = WritePB(h, 0, 1, av.Scalar(0xFF, ir.BasicType{Name: "i8", Bits: 1}))
	extents := ReadRangeMulti(h, 0, 4)
	require.NotEmpty(t, extents)
	// byte 0 comes from the explicit write, bytes 1-3 from baseline.
	var sawOwn, sawBaseline bool
	for _, e := range extents {
		if e.Lo == 0 && e.Hi == 1 {
			sawOwn = true
		}
		if e.Lo >= 1 {
			sawBaseline = true
		}
	}
	assert.True(t, sawOwn)
	assert.True(t, sawBaseline)
}

func TestIgnoreBelowStopsDescent(t *testing.T) {
	baseline := NewSingle(av.Scalar(0x01020304, i32()), i32())
	h := NewMulti(baseline)
	h.SetIgnoreBelow(2)
	extents := ReadRangeMulti(h, 0, 4)
	for _, e := range extents {
		assert.False(t, e.Lo < 2, "must not descend below the ignoreBelow threshold")
	}
}

func TestDropReferenceReleasesAtZero(t *testing.T) {
	h := NewSingle(av.Scalar(1, i32()), i32())
	h.Retain()
	assert.Nil(t, h.DropReference())
	assert.NotNil(t, h) // still referenced once
	released := h.DropReference()
	assert.Equal(t, 0, h.Refs())
	_ = released
}

func TestWritePBSplitsCrossingInterval(t *testing.T) {
	baseline := NewSingle(av.Scalar(0, i32()), i32())
	h := NewMulti(baseline)
	h = WritePB(h, 0, 4, av.Scalar(0xFFFFFFFF, i32()))
	// now overwrite the middle two bytes only
	h = WritePB(h, 1, 2, av.Scalar(0x0000, ir.BasicType{Name: "i16", Bits: 2}))
	extents := ReadRangeMulti(h, 0, 4)
	require.NotEmpty(t, extents)
}
