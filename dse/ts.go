package dse

// TS is a tracked store: one candidate dead-store-elimination
// instruction plus the live byte count that still references it from
// some DSE map. A store is eliminable once its outstanding byte count
// reaches zero and nothing has marked it needed.
type TS struct {
	Instr        int
	outstanding  int
	isCommitted  bool
	isNeeded     bool
	replacements []int
}

// NewTS creates a tracked store for instr covering n outstanding bytes.
func NewTS(instr int, n int) *TS {
	return &TS{Instr: instr, outstanding: n}
}

// OutstandingBytes returns the number of bytes across every DSE map
// that still reference this store.
func (t *TS) OutstandingBytes() int { return t.outstanding }

// IsNeeded reports whether some read has forced this store to survive
// regardless of its outstanding byte count.
func (t *TS) IsNeeded() bool { return t.isNeeded }

// MarkNeeded flags the store as required; it can no longer be removed
// by the dead-store post-pass.
func (t *TS) MarkNeeded() { t.isNeeded = true }

// Dead reports whether the post-pass may remove this store's
// instruction: no outstanding bytes and never marked needed.
func (t *TS) Dead() bool { return t.outstanding <= 0 && !t.isNeeded }

// AddReplacement records a committed replacement instruction for this
// store (e.g. a narrower store that superseded part of it).
func (t *TS) AddReplacement(instr int) {
	t.isCommitted = true
	t.replacements = append(t.replacements, instr)
}

// Replacements returns the committed replacement instructions, if any.
func (t *TS) Replacements() []int { return t.replacements }

// TA is a tracked allocation: the lifetime counterpart to TS, counting
// references to an allocation's DSE map across the live BStore set.
type TA struct {
	refs     int
	isNeeded bool
}

// NewTA creates a tracked alloc with a single outstanding reference.
func NewTA() *TA { return &TA{refs: 1} }

// Retain adds one reference.
func (a *TA) Retain() { a.refs++ }

// Release drops one reference and returns the remaining count.
func (a *TA) Release() int {
	a.refs--
	return a.refs
}

// MarkNeeded flags the allocation as required regardless of refcount.
func (a *TA) MarkNeeded() { a.isNeeded = true }

// IsNeeded reports whether the allocation was marked required.
func (a *TA) IsNeeded() bool { return a.isNeeded }

// Dead reports whether the post-pass may remove this allocation: no
// outstanding references and never marked needed.
func (a *TA) Dead() bool { return a.refs <= 0 && !a.isNeeded }
