package driver

// Cursor tracks the driver's position in the walk plus the mustBail
// flag: once a call provably does not return, the block containing it
// has no live successors, and the driver must stop descending that
// path rather than continue into blocks that can no longer execute.
type Cursor struct {
	Stack    Stack
	mustBail bool
}

// Bail marks the current path as terminated by a non-returning call.
func (c *Cursor) Bail() { c.mustBail = true }

// MustBail reports whether the current path has been marked
// terminated.
func (c *Cursor) MustBail() bool { return c.mustBail }

// Reset clears the bail flag, for the next sibling path the driver
// walks after unwinding past the call that set it.
func (c *Cursor) Reset() { c.mustBail = false }
