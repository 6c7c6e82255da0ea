package dse

import (
	"go.uber.org/zap"

	"github.com/bftjoe/llpe/ir"
)

func overlap(eOff, eHi, lo, hi ir.ByteSize) (ir.ByteSize, ir.ByteSize, bool) {
	oLo, oHi := eOff, hi
	if lo > oLo {
		oLo = lo
	}
	if eHi < oHi {
		oHi = eHi
	}
	if oLo >= oHi {
		return 0, 0, false
	}
	return oLo, oHi, true
}

// punch removes [lo, hi) from entries, decrementing every overlapping
// owner's outstanding byte count by the amount of overlap it lost, and
// keeps whatever remains of each entry outside the punched range.
func punch(entries []Entry, lo, hi ir.ByteSize) []Entry {
	var out []Entry
	for _, e := range entries {
		eHi := e.hi()
		oLo, oHi, ok := overlap(e.Off, eHi, lo, hi)
		if !ok {
			out = append(out, e)
			continue
		}
		lost := int(oHi - oLo)
		for _, owner := range e.Owners {
			owner.outstanding -= lost
		}
		if e.Off < oLo {
			out = append(out, Entry{Off: e.Off, Len: oLo - e.Off, Owners: cloneOwners(e.Owners)})
		}
		if eHi > oHi {
			out = append(out, Entry{Off: oHi, Len: eHi - oHi, Owners: cloneOwners(e.Owners)})
		}
	}
	return out
}

// Store records a len-byte store at (id, off): it punches the written
// range out of every existing entry (dereferencing whichever stores
// lost bytes there) and installs a fresh TS covering exactly that
// range. The new TS is returned so the caller (the symbolic executor)
// can associate it with the store instruction.
func Store(s *State, id ir.AId, instr int, off, length ir.ByteSize) *TS {
	am := s.getWritable(id)
	lo, hi := off, off+length
	am.entries = punch(am.entries, lo, hi)
	ts := NewTS(instr, int(length))
	if s.reg != nil {
		s.reg.trackTS(ts)
	}
	am.entries = append(am.entries, Entry{Off: lo, Len: length, Owners: []*TS{ts}})
	s.trace("store", zap.Int("instr", instr), zap.Int64("off", int64(off)), zap.Int64("len", int64(length)))
	return ts
}

// Read marks every TS overlapping [off, off+length) at id as needed
// and erases the overlapping byte ranges from the map, since those
// bytes have now been observed and can no longer be eliminated based
// on a future unread write clobbering them.
func Read(s *State, id ir.AId, off, length ir.ByteSize) {
	am := s.Lookup(id)
	if am == nil {
		return
	}
	am = s.getWritable(id)
	lo, hi := off, off+length
	var kept []Entry
	for _, e := range am.entries {
		eHi := e.hi()
		oLo, oHi, ok := overlap(e.Off, eHi, lo, hi)
		if !ok {
			kept = append(kept, e)
			continue
		}
		lost := int(oHi - oLo)
		for _, owner := range e.Owners {
			owner.MarkNeeded()
			owner.outstanding -= lost
		}
		if e.Off < oLo {
			kept = append(kept, Entry{Off: e.Off, Len: oLo - e.Off, Owners: cloneOwners(e.Owners)})
		}
		if eHi > oHi {
			kept = append(kept, Entry{Off: oHi, Len: eHi - oHi, Owners: cloneOwners(e.Owners)})
		}
	}
	am.entries = kept
}

// MarkAllNeeded flags every TS currently tracked anywhere in s as
// needed, without discarding the map itself. Used for an opaque call
// and for a runtime-check point, both of which must preserve every
// live store without otherwise disturbing tracking.
func MarkAllNeeded(s *State) {
	for _, id := range s.Ids() {
		am := s.Lookup(id)
		for _, e := range am.entries {
			for _, o := range e.Owners {
				o.MarkNeeded()
			}
		}
	}
}

// RuntimeCheck treats a point that may be entered by an unspecialised
// fallback as a read of everything currently live.
func RuntimeCheck(s *State) { MarkAllNeeded(s) }

// ImpreciseRead handles a read through a pointer with an unresolved
// base or offset: every tracked store anywhere becomes needed, then
// the whole state is reset to empty, since no further accounting can
// distinguish which allocation the read actually touched.
func ImpreciseRead(s *State) {
	MarkAllNeeded(s)
	for _, id := range s.Ids() {
		am := s.getWritable(id)
		for _, e := range am.entries {
			for _, owner := range e.Owners {
				owner.outstanding -= int(e.Len)
			}
		}
		am.entries = nil
	}
}

// Free releases the DSE map for id: every remaining entry's owners
// lose their outstanding bytes (nothing will ever read them now), and
// the allocation's tracked-alloc record loses one reference.
func Free(s *State, id ir.AId) {
	am := s.Lookup(id)
	if am == nil {
		return
	}
	for _, e := range am.entries {
		for _, owner := range e.Owners {
			owner.outstanding -= int(e.Len)
		}
	}
	am.ta.Release()
	s.Delete(id)
	s.trace("free")
}

// CallReadArgs models an annotated syscall/library call that reads
// [off, off+length) of id as one of its arguments.
func CallReadArgs(s *State, id ir.AId, off, length ir.ByteSize) {
	Read(s, id, off, length)
}

// CallFree models an annotated call that frees id.
func CallFree(s *State, id ir.AId) {
	Free(s, id)
}

// CallOpaque models a call to an unannotated external function: every
// live store becomes needed, since the callee could read anything.
func CallOpaque(s *State) {
	MarkAllNeeded(s)
}
