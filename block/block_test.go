package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
)

func i32() ir.Type { return ir.BasicType{Name: "i32", Bits: 4} }

func heapAlloc(site int) ir.AId {
	return ir.NewAId(ir.KindHeap, nil, ir.NoContext, site, 4, i32())
}

func TestCertainWriteGoesThroughToBase(t *testing.T) {
	base := NewBase()
	b := New(base, Certain)
	id := heapAlloc(1)

	h := GetWritableStoreFor(b, id, true)
	h = heap.WritePB(h, 0, 4, av.Scalar(7, i32()))
	b.Local(id) // exercise the accessor

	assert.Equal(t, h, base.Lookup(id))
	assert.Equal(t, av.Scalar(7, i32()), Read(b, id, 0, 4))
}

func TestUncertainWriteStaysLocal(t *testing.T) {
	base := NewBase()
	b := New(base, Uncertain)
	id := heapAlloc(2)

	h := GetWritableStoreFor(b, id, true)
	heap.WritePB(h, 0, 4, av.Scalar(9, i32()))

	assert.Nil(t, base.Lookup(id))
	assert.Equal(t, av.Scalar(9, i32()), Read(b, id, 0, 4))
}

func TestClobberAllMakesUnlistedOverdefined(t *testing.T) {
	base := NewBase()
	b := New(base, Uncertain)
	id := heapAlloc(3)
	b.ClobberAll()
	assert.True(t, Read(b, id, 0, 4).IsOverdefined())
}

func TestSharedMultiCOWBreaksOnWrite(t *testing.T) {
	base := NewBase()
	baseline := heap.NewSingle(av.Scalar(0, i32()), i32())
	shared := heap.NewMulti(baseline)
	shared.Retain() // simulate a second BStore also pointing at shared

	id := heapAlloc(4)
	b := New(base, Uncertain)
	b.local.Put(id, shared)

	require.True(t, shared.IsShared())
	h := GetWritableStoreFor(b, id, false)
	assert.NotSame(t, shared, h)

	after, ok := b.Local(id)
	require.True(t, ok)
	assert.Same(t, h, after)
}

func TestDeleteLocalDropsEntry(t *testing.T) {
	base := NewBase()
	b := New(base, Uncertain)
	id := heapAlloc(6)

	GetWritableStoreFor(b, id, true)
	_, ok := b.Local(id)
	require.True(t, ok)

	b.DeleteLocal(id)
	_, ok = b.Local(id)
	assert.False(t, ok)
}

func TestPrivateMultiMutatesInPlace(t *testing.T) {
	base := NewBase()
	baseline := heap.NewSingle(av.Scalar(0, i32()), i32())
	priv := heap.NewMulti(baseline)

	id := heapAlloc(5)
	b := New(base, Uncertain)
	b.local.Put(id, priv)

	require.False(t, priv.IsShared())
	h := GetWritableStoreFor(b, id, false)
	assert.Same(t, priv, h)
}
