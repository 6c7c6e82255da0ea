package ir

// Value is anything the symbolic executor can evaluate to an abstract
// value: an instruction's result, a literal constant, or a value
// rooted directly at an allocation (a function argument or a global),
// which the loader emits without a defining instruction.
type Value interface {
	ValueType() Type
	ValueName() string
}

// Const is a literal constant of some type, carried as a little-endian
// bit pattern. A slice/array/struct constant is represented by the
// loader as an AggregateConst instead.
type Const struct {
	Typ  Type
	Bits uint64
}

func (c *Const) ValueType() Type   { return c.Typ }
func (c *Const) ValueName() string { return "const" }

// AggregateConst is a constant struct/array, kept as flat bytes so
// pv.Combine can extract sub-ranges without re-deriving layout.
type AggregateConst struct {
	Typ   Type
	Bytes []byte
}

func (c *AggregateConst) ValueType() Type   { return c.Typ }
func (c *AggregateConst) ValueName() string { return "aggregate-const" }

// NullConst is the untyped null/zero pointer literal.
type NullConst struct{ Typ Type }

func (c *NullConst) ValueType() Type   { return c.Typ }
func (c *NullConst) ValueName() string { return "null" }

// Named is a value rooted directly at an allocation — a function
// argument or a global variable — rather than produced by an
// instruction in the current function body.
//
// Initializer is non-nil when Named roots a constant global: its
// AggregateConst is the global's compile-time initial contents, which
// a load at a known offset can fold against directly instead of going
// through the heap store. It is nil for a function argument or any
// global whose initial value isn't a compile-time constant.
type Named struct {
	AId         AId
	Typ         Type
	Nm          string
	Initializer *AggregateConst
}

func (n *Named) ValueType() Type   { return n.Typ }
func (n *Named) ValueName() string { return n.Nm }
