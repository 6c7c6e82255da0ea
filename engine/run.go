package engine

import (
	"github.com/pkg/errors"

	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/driver"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/heap"
	"github.com/bftjoe/llpe/ir"
	"github.com/bftjoe/llpe/merge"
	"github.com/bftjoe/llpe/symexec"
)

// state is the (BStore, DSE) pair threaded from one executed block to
// the next; it is the unit the reference driver joins at merge points
// and carries across an inlined call.
type state struct {
	bs *block.BStore
	ds *dse.State
}

// forkState returns a private working copy of s, safe for a block to
// mutate without corrupting the finished-state entry s was read from —
// needed because this driver runs every successor of a branch
// unconditionally (it has no runtime condition to pick one), so two
// sibling blocks routinely start from the very same finished
// predecessor state. dse.State.Clone is already COW-safe, but
// block.BStore has no such method and heap.HStore's COW-break on
// GetWritableStoreFor only covers a shared Multi — a Single is always
// mutated in place, so handing out the same Single pointer to two
// siblings would let one's write leak into the other's view. Single
// entries are therefore copied outright here; Multi entries are only
// Retained, since their first write will COW-break on its own.
func forkState(base *block.Base, s state) state {
	nb := block.New(base, s.bs.Status())
	nb.SetClobbered(s.bs.AllOthersClobbered())
	s.bs.Each(func(id ir.AId, h *heap.HStore) bool {
		if h.Variant() == heap.VariantSingle {
			nb.PutLocal(id, heap.NewSingle(heap.ReadRange(h, 0, h.Size()), h.TypeHint()))
		} else {
			nb.PutLocal(id, h.Retain())
		}
		return true
	})
	return state{bs: nb, ds: s.ds.Clone()}
}

// Run walks fn in reverse-postorder, applying symexec's transfer
// functions to every instruction, joining at blocks with more than one
// already-executed predecessor, peeling loops via peeler, and
// descending into a callee's body wherever inliner chooses to inline
// rather than let symexec treat the call opaquely/via a library model.
// This is a *reference* driver, useful for end-to-end testing; a
// production driver owns its own traversal policy and need not call
// this at all — Run never assumes one.
//
// Run's own recursion depth tracks inlining depth (Go's call stack
// backs it), while driver.Stack/driver.Cursor carry the bookkeeping a
// non-recursive, explicit-worklist driver would use instead. A
// production driver that must bound stack depth independently of
// program size should drive symexec.Step directly from its own
// worklist rather than call Run.
func (c *Context) Run(fn *ir.Function, peeler driver.Peeler, inliner driver.Inliner) (*Result, error) {
	cursor := &driver.Cursor{}
	cursor.Stack.Push(driver.Frame{Func: fn, Block: fn.Entry().ID})

	ds := dse.NewState(c.Registry)
	if c.log != nil {
		ds.SetLogger(c.log)
	}
	entry := state{bs: block.New(c.Base, block.Certain), ds: ds}
	final, err := c.walkFunction(fn, entry, cursor, peeler, inliner)
	cursor.Stack.Pop()
	if err != nil {
		return nil, errors.Wrapf(err, "running function %s", fn.Name)
	}
	return &Result{Block: final.bs, DSE: final.ds}, nil
}

// walkFunction executes fn's blocks in reverse postorder starting from
// entry's incoming state. Loop headers are intercepted and handed to
// peelLoop instead of being visited as ordinary blocks; every other
// block merges its live (already-executed) predecessors' exit states
// via merge.Join/dse.Join before running its instructions.
func (c *Context) walkFunction(fn *ir.Function, entry state, cursor *driver.Cursor, peeler driver.Peeler, inliner driver.Inliner) (state, error) {
	loopByHeader := make(map[ir.BlockID]*ir.Loop, len(fn.Loops))
	for _, lp := range fn.Loops {
		loopByHeader[lp.Header] = lp
	}

	finished := make(map[ir.BlockID]state, len(fn.Blocks))
	visited := make(map[ir.BlockID]bool, len(fn.Blocks))
	cur := entry

	for _, bb := range fn.RPO() {
		if visited[bb.ID] {
			continue
		}
		if cursor.MustBail() {
			break
		}

		if lp, ok := loopByHeader[bb.ID]; ok {
			peeled, err := c.peelLoop(fn, lp, cur, finished, visited, cursor, peeler, inliner)
			if err != nil {
				return state{}, err
			}
			cur = peeled
			continue
		}

		if in, ok := joinPreds(c.Base, bb, finished); ok {
			cur = in
		}

		work := forkState(c.Base, cur)
		if hasBranchingPred(fn, bb) {
			work.bs.SetStatus(block.Uncertain)
		}
		out, err := c.runBlock(fn, bb, work, cursor, peeler, inliner)
		if err != nil {
			return state{}, err
		}
		finished[bb.ID] = out
		visited[bb.ID] = true
		cur = out
	}
	return cur, nil
}

// hasBranchingPred reports whether any of bb's predecessors has more
// than one successor. ir carries no branch-condition value — control
// flow is Succs/Preds only — so a driver walking both arms of such a
// predecessor unconditionally can never claim Certain reachability for
// either arm: it has no way to know which successor is actually live.
func hasBranchingPred(fn *ir.Function, bb *ir.BasicBlock) bool {
	for _, p := range bb.Preds {
		if len(fn.Block(p).Succs) > 1 {
			return true
		}
	}
	return false
}

// joinPreds merges every already-finished predecessor of bb. A single
// finished predecessor is returned unchanged (no merge needed); two or
// more are joined via merge.Join/dse.Join, Certain only if every
// contributing block store is still Certain and un-clobbered. A block with
// no finished predecessor yet (the function entry, or a loop-exit
// target whose only edge is the peeled latch already folded into cur)
// reports ok=false and the caller's threaded-through state is kept.
func joinPreds(base *block.Base, bb *ir.BasicBlock, finished map[ir.BlockID]state) (state, bool) {
	var preds []state
	for _, p := range bb.Preds {
		if s, ok := finished[p]; ok {
			preds = append(preds, s)
		}
	}
	if len(preds) == 0 {
		return state{}, false
	}
	if len(preds) == 1 {
		return preds[0], true
	}

	status := block.Certain
	bstores := make([]*block.BStore, len(preds))
	dstates := make([]*dse.State, len(preds))
	for i, p := range preds {
		bstores[i] = p.bs
		dstates[i] = p.ds
		if p.bs.AllOthersClobbered() || p.bs.Status() == block.Uncertain {
			status = block.Uncertain
		}
	}
	return state{bs: merge.Join(base, status, bstores), ds: dse.Join(dstates)}, true
}

// peelLoop concretely unrolls lp peeler.PeelBound(lp) times (minimum
// one pass): each peel runs the header and body blocks once in order,
// threading the previous peel's exit state in as the next peel's entry
// state, so every peel gets its own distinct store-chain rather than a
// single abstract fixpoint value. The final peel's exit state becomes
// the state blocks after the loop observe.
func (c *Context) peelLoop(fn *ir.Function, lp *ir.Loop, entry state, finished map[ir.BlockID]state, visited map[ir.BlockID]bool, cursor *driver.Cursor, peeler driver.Peeler, inliner driver.Inliner) (state, error) {
	bound := 1
	if peeler != nil {
		if b := peeler.PeelBound(lp); b > 0 {
			bound = b
		}
	}

	blocks := append([]ir.BlockID{lp.Header}, lp.Blocks...)
	cur := entry
	for peel := 0; peel < bound; peel++ {
		cursor.Stack.Push(driver.Frame{Func: fn, Block: lp.Header, Peel: peel})
		for _, bid := range dedupeBlockIDs(blocks) {
			if cursor.MustBail() {
				break
			}
			bb := fn.Block(bid)
			work := forkState(c.Base, cur)
			if hasBranchingPred(fn, bb) {
				work.bs.SetStatus(block.Uncertain)
			}
			out, err := c.runBlock(fn, bb, work, cursor, peeler, inliner)
			if err != nil {
				cursor.Stack.Pop()
				return state{}, err
			}
			cur = out
			finished[bid] = out
		}
		cursor.Stack.Pop()
		if cursor.MustBail() {
			break
		}
	}
	for _, bid := range dedupeBlockIDs(blocks) {
		visited[bid] = true
	}
	return cur, nil
}

func dedupeBlockIDs(ids []ir.BlockID) []ir.BlockID {
	seen := make(map[ir.BlockID]bool, len(ids))
	out := make([]ir.BlockID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// runBlock steps every instruction of bb against in, inlining a Call
// site's callee body in place (via a recursive walkFunction call)
// wherever inliner says to, and stepping it through symexec otherwise.
// A NoReturn call sets cursor's mustBail flag, stopping the block (and
// the caller's outer walk) short.
func (c *Context) runBlock(fn *ir.Function, bb *ir.BasicBlock, in state, cursor *driver.Cursor, peeler driver.Peeler, inliner driver.Inliner) (state, error) {
	cur := in
	for _, instr := range bb.Instrs {
		call, isCall := instr.(*ir.Call)
		if isCall && call.Callee != nil && inliner != nil && inliner.ShouldInline(ir.CallSite{Instr: call, Caller: fn}) {
			cursor.Stack.Push(driver.Frame{Func: call.Callee, Block: call.Callee.Entry().ID})
			out, err := c.walkFunction(call.Callee, cur, cursor, peeler, inliner)
			cursor.Stack.Pop()
			if err != nil {
				return state{}, errors.Wrapf(err, "inlining %s", call.Callee.Name)
			}
			cur = out
			continue
		}

		symexec.Step(c.Symbols, cur.bs, cur.ds, bb, instr)
		if isCall && call.NoReturn {
			cursor.Bail()
		}
		if cursor.MustBail() {
			break
		}
	}
	return cur, nil
}
