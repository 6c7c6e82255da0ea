package dse

import "github.com/bftjoe/llpe/ir"

// Join combines the DSE states of N predecessor blocks into one: every
// allocation tracked by any predecessor is merged byte-range by
// byte-range, unioning owners over each aligned sub-range. Each
// predecessor's own byte reference is released and replaced by
// exactly one reference from the merged map per surviving owner, so a
// TS shared by every predecessor doesn't get double-counted just
// because it used to live in more than one map.
func Join(preds []*State) *State {
	result := NewState(registryOf(preds))

	ids := map[ir.AId]bool{}
	for _, p := range preds {
		for _, id := range p.Ids() {
			ids[id] = true
		}
	}
	for id := range ids {
		ams := make([]*AllocMap, 0, len(preds))
		for _, p := range preds {
			ams = append(ams, p.Lookup(id))
		}
		if merged := joinAllocMaps(ams); merged != nil {
			result.m.Put(id, merged)
		}
	}
	return result
}

func registryOf(preds []*State) *Registry {
	for _, p := range preds {
		if p.reg != nil {
			return p.reg
		}
	}
	return nil
}

func joinAllocMaps(ams []*AllocMap) *AllocMap {
	present := make([]*AllocMap, 0, len(ams))
	for _, am := range ams {
		if am != nil {
			present = append(present, am)
		}
	}
	if len(present) == 0 {
		return nil
	}

	// Predecessors that still share the identical, un-forked AllocMap
	// (no divergent write has happened since their common Clone) are
	// really just one logical DSE map counted twice; collapse them
	// back to a single reference instead of unioning byte ranges,
	// which would otherwise double the outstanding count for every
	// owner even though nothing about the map actually diverged.
	if allIdentical(present) {
		for _, am := range present {
			am.refs--
		}
		present[0].refs++
		return present[0]
	}

	bounds := map[ir.ByteSize]bool{}
	for _, am := range present {
		for _, e := range am.entries {
			bounds[e.Off] = true
			bounds[e.hi()] = true
		}
	}
	pts := sortedByteSizes(bounds)

	var merged []Entry
	for i := 0; i+1 < len(pts); i++ {
		lo, hi := pts[i], pts[i+1]
		if lo >= hi {
			continue
		}
		ownerSet := map[*TS]bool{}
		for _, am := range present {
			for _, e := range am.entries {
				oLo, oHi, ok := overlap(e.Off, e.hi(), lo, hi)
				if !ok {
					continue
				}
				lost := int(oHi - oLo)
				for _, owner := range e.Owners {
					owner.outstanding -= lost
					ownerSet[owner] = true
				}
			}
		}
		if len(ownerSet) == 0 {
			continue
		}
		owners := make([]*TS, 0, len(ownerSet))
		for o := range ownerSet {
			o.outstanding += int(hi - lo)
			owners = append(owners, o)
		}
		merged = append(merged, Entry{Off: lo, Len: hi - lo, Owners: owners})
	}

	ta := present[0].ta
	for _, am := range present {
		am.ta.Release()
	}
	ta.Retain()

	return &AllocMap{refs: 1, entries: merged, ta: ta}
}

func allIdentical(ams []*AllocMap) bool {
	for _, am := range ams[1:] {
		if am != ams[0] {
			return false
		}
	}
	return true
}

func sortedByteSizes(m map[ir.ByteSize]bool) []ir.ByteSize {
	out := make([]ir.ByteSize, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// GC drops any entry whose every owner is already marked needed: once
// every TS in a range is guaranteed to survive, the byte-level
// accounting for that range no longer influences any keep-decision and
// can be discarded. Dropped entries release their owners' outstanding
// byte counts, since one fewer map now references those bytes.
func GC(s *State) {
	for _, id := range s.Ids() {
		am := s.getWritable(id)
		var kept []Entry
		for _, e := range am.entries {
			allNeeded := true
			for _, o := range e.Owners {
				if !o.isNeeded {
					allNeeded = false
					break
				}
			}
			if allNeeded {
				for _, o := range e.Owners {
					o.outstanding -= int(e.Len)
				}
				continue
			}
			kept = append(kept, e)
		}
		am.entries = kept
	}
}
