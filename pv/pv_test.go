package pv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/ir"
)

func i64() ir.Type { return ir.BasicType{Name: "i64", Bits: 8} }

func TestTotalRoundTrips(t *testing.T) {
	v := av.Scalar(0x1122334455667788, i64())
	p := Total(v)
	require.Equal(t, v, p.ToValue(8))
}

func TestPartialExtractsAggregateSlice(t *testing.T) {
	agg := &ir.AggregateConst{Typ: i64(), Bytes: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	p := Partial(agg, 2)
	out := p.ToValue(2)
	scalars := out.Scalars()
	require.Len(t, scalars, 1)
	assert.Equal(t, uint64(0x0403), scalars[0].Bits)
}

func TestCombineFirstWriterWins(t *testing.T) {
	p := Empty()
	p = p.Combine(Total(av.Scalar(0xAA, ir.BasicType{Name: "i8", Bits: 1})), 0, 1, 4)
	p = p.Combine(Total(av.Scalar(0xBB, ir.BasicType{Name: "i8", Bits: 1})), 0, 1, 4)
	assert.False(t, p.LoadFinished())

	p = p.Combine(Total(av.Scalar(0x04030201, ir.BasicType{Name: "i32", Bits: 4})), 0, 4, 4)
	assert.True(t, p.LoadFinished())
	out := p.ToValue(4)
	scalars := out.Scalars()
	require.Len(t, scalars, 1)
	// byte 0 kept from the first contribution (0xAA); bytes 1-3 from the third.
	assert.Equal(t, uint64(0x040302AA), scalars[0].Bits)
}

func TestCombineMarksLoadFinished(t *testing.T) {
	p := Empty()
	p = p.Combine(Total(av.Scalar(0x01, ir.BasicType{Name: "i8", Bits: 1})), 0, 1, 2)
	assert.False(t, p.LoadFinished())
	p = p.Combine(Total(av.Scalar(0x02, ir.BasicType{Name: "i8", Bits: 1})), 1, 2, 2)
	assert.True(t, p.LoadFinished())
}

func TestToValueBytesOverdefinedWhenIncomplete(t *testing.T) {
	p := Empty()
	p = p.Combine(Total(av.Scalar(0x01, ir.BasicType{Name: "i8", Bits: 1})), 0, 1, 4)
	out := p.ToValue(4)
	assert.True(t, out.IsOverdefined())
	assert.Equal(t, av.ReasonPVToPB, out.Reason())
}

func TestBytesOfNonConstOverdefined(t *testing.T) {
	_, reason := bytesOf(av.Overdefined(av.ReasonRDFG), 4)
	assert.Equal(t, av.ReasonNonConstBOps, reason)
}
