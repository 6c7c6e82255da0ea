package dse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bftjoe/llpe/ir"
)

func allocID(site int) ir.AId {
	return ir.NewAId(ir.KindHeap, nil, ir.NoContext, site, 8, ir.BasicType{Name: "i64", Bits: 8})
}

func TestUnreadStoreWithOutstandingBytesIsNotDead(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(1)

	// Never read, but its 8 bytes are still outstanding in the map.
	Store(s, id, 100, 0, 8)
	assert.NotContains(t, reg.DeadStores(), 100)
}

func TestStoreThenReadIsNeeded(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(2)

	Store(s, id, 200, 0, 8)
	Read(s, id, 0, 8)

	require.Len(t, reg.stores, 1)
	assert.True(t, reg.stores[0].IsNeeded())
	assert.NotContains(t, reg.DeadStores(), 200)
}

func TestSecondStoreKillsFirstFullyOverwritten(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(3)

	Store(s, id, 10, 0, 8)
	Store(s, id, 11, 0, 8) // fully punches the first store's range

	dead := reg.DeadStores()
	assert.Contains(t, dead, 10)
	assert.NotContains(t, dead, 11) // the second store still owns its 8 bytes
}

func TestPartialOverwriteLeavesRemainderLive(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(4)

	Store(s, id, 20, 0, 8)
	Store(s, id, 21, 0, 4) // only punches the low half

	am := s.Lookup(id)
	require.NotNil(t, am)

	var total int
	for _, e := range am.Entries() {
		for _, o := range e.Owners {
			if o.Instr == 20 {
				total += int(e.Len)
			}
		}
	}
	assert.Equal(t, 4, total)
}

func TestImpreciseReadMarksAllNeededAndClears(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(5)

	Store(s, id, 30, 0, 8)
	ImpreciseRead(s)

	am := s.Lookup(id)
	assert.Empty(t, am.Entries())
	assert.NotContains(t, reg.DeadStores(), 30)
}

func TestFreeReleasesAllocAndDropsBytes(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(6)

	Store(s, id, 40, 0, 8)
	Free(s, id)

	assert.Nil(t, s.Lookup(id))
	assert.Contains(t, reg.DeadAllocs(), id)
	assert.Contains(t, reg.DeadStores(), 40)
}

func TestJoinUnionsDistinctStoresAcrossPaths(t *testing.T) {
	reg := NewRegistry()
	id := allocID(7)

	a := NewState(reg)
	Store(a, id, 50, 0, 4)

	b := NewState(reg)
	Store(b, id, 51, 4, 4)

	joined := Join([]*State{a, b})
	am := joined.Lookup(id)
	require.NotNil(t, am)

	var ids []int
	for _, e := range am.Entries() {
		for _, o := range e.Owners {
			ids = append(ids, o.Instr)
		}
	}
	assert.Contains(t, ids, 50)
	assert.Contains(t, ids, 51)
}

func TestJoinSharedStoreIsNotDoubleCounted(t *testing.T) {
	reg := NewRegistry()
	id := allocID(8)

	base := NewState(reg)
	ts := Store(base, id, 60, 0, 8)

	a := base.Clone()
	b := base.Clone()

	joined := Join([]*State{a, b})
	am := joined.Lookup(id)
	require.NotNil(t, am)
	require.Len(t, am.Entries(), 1)
	assert.Equal(t, ts, am.Entries()[0].Owners[0])
	assert.Equal(t, 8, ts.OutstandingBytes())
}

func TestGCRemovesFullyNeededEntries(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(9)

	Store(s, id, 70, 0, 8)
	MarkAllNeeded(s)

	am := s.Lookup(id)
	require.NotEmpty(t, am.Entries())

	GC(s)
	am = s.Lookup(id)
	assert.Empty(t, am.Entries())
}

func TestCallOpaqueMarksNeededWithoutClearing(t *testing.T) {
	reg := NewRegistry()
	s := NewState(reg)
	id := allocID(10)

	Store(s, id, 80, 0, 8)
	CallOpaque(s)

	am := s.Lookup(id)
	assert.NotEmpty(t, am.Entries())
	assert.NotContains(t, reg.DeadStores(), 80)
}
