// Package driver defines the hook interfaces and explicit frame stack
// an external driver supplies to the core: what to inline, how many
// times to peel a loop, and where execution currently stands. The core
// never assumes a concrete cost/benefit policy; it only calls through
// these interfaces.
package driver

import "github.com/bftjoe/llpe/ir"

// Peeler decides how many times to unroll a loop before falling back
// to a single fixpoint-iterated representative iteration. Called once
// per loop header encountered during the traversal.
type Peeler interface {
	PeelBound(loop *ir.Loop) int
}

// Inliner decides whether a call site is specialised in place (its
// callee's body is walked inline) or left opaque/modelled.
type Inliner interface {
	ShouldInline(site ir.CallSite) bool
}

// Frame is one entry of the explicit call/peel stack: which function
// is being walked, which block within it, and which peel iteration (0
// for the first, bounded by the Peeler's return value).
type Frame struct {
	Func  *ir.Function
	Block ir.BlockID
	Peel  int
}

// Stack is the driver's explicit frame stack, used in place of host
// recursion so stack depth never scales with program size. It is a
// plain LIFO slice, following the same explicit-worklist shape as the
// teacher's constraint generator.
type Stack []Frame

// Push appends a frame.
func (s *Stack) Push(f Frame) { *s = append(*s, f) }

// Pop removes and returns the top frame. Pop on an empty stack panics:
// the driver loop must never call it without first checking Len.
func (s *Stack) Pop() Frame {
	n := len(*s)
	f := (*s)[n-1]
	*s = (*s)[:n-1]
	return f
}

// Top returns the current frame without removing it.
func (s *Stack) Top() Frame { return (*s)[len(*s)-1] }

// Len returns the number of frames currently pushed.
func (s *Stack) Len() int { return len(*s) }

// Empty reports whether the stack has no frames.
func (s *Stack) Empty() bool { return len(*s) == 0 }
