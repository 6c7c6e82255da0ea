package ir

// Instruction is the closed set of operations the symbolic executor
// transfer functions (symexec.Step) switch over. Value-producing
// instructions additionally implement Value.
type Instruction interface {
	InstrID() int
	InstrBlock() *BasicBlock
}

// InstrBase is the common head every concrete Instruction embeds: its
// dense id, owning block, and (for value-producing instructions) type
// and debug name. Exported so the loader can construct instructions
// from another package via NewInstrBase.
type InstrBase struct {
	id   int
	blk  *BasicBlock
	typ  Type // zero value for void instructions
	name string
}

func (b *InstrBase) InstrID() int            { return b.id }
func (b *InstrBase) InstrBlock() *BasicBlock { return b.blk }
func (b *InstrBase) ValueType() Type         { return b.typ }
func (b *InstrBase) ValueName() string       { return b.name }

// NewInstrBase constructs the common instruction head.
func NewInstrBase(id int, blk *BasicBlock, typ Type, name string) InstrBase {
	return InstrBase{id: id, blk: blk, typ: typ, name: name}
}

// Alloca is a stack allocation: `x = alloca T`.
type Alloca struct {
	InstrBase
	ElemType Type
	ElemSize ByteSize
}

// Malloc is a heap allocation of a (possibly dynamic) byte size.
type Malloc struct {
	InstrBase
	SizeOperand Value    // nil if SizeConst is authoritative
	SizeConst   ByteSize // UnknownSize if SizeOperand must be evaluated
}

// Realloc resizes an existing heap allocation, copying its old bytes.
type Realloc struct {
	InstrBase
	Ptr         Value
	SizeOperand Value
	SizeConst   ByteSize
}

// Free releases a heap allocation. Produces no value.
type Free struct {
	InstrBase
	Ptr Value
}

func (f *Free) ValueType() Type   { return nil }
func (f *Free) ValueName() string { return "" }

// Store writes Val to *Addr. Produces no value.
type Store struct {
	InstrBase
	Addr Value
	Val  Value
}

func (s *Store) ValueType() Type   { return nil }
func (s *Store) ValueName() string { return "" }

// Load reads *Addr.
type Load struct {
	InstrBase
	Addr Value
}

// Memcpy copies Len bytes from Src to Dst (non-overlapping). Produces
// no value. BoundedLen is UnknownSize if Len is not a compile-time
// constant — an unbounded size clobbers the whole block store.
type Memcpy struct {
	InstrBase
	Dst, Src   Value
	Len        Value
	BoundedLen ByteSize
}

func (m *Memcpy) ValueType() Type   { return nil }
func (m *Memcpy) ValueName() string { return "" }

// Memset fills Len bytes at Dst with Byte. Produces no value.
type Memset struct {
	InstrBase
	Dst        Value
	Byte       Value
	Len        Value
	BoundedLen ByteSize
}

func (m *Memset) ValueType() Type   { return nil }
func (m *Memset) ValueName() string { return "" }

// Phi merges incoming values across live predecessor edges.
type Phi struct {
	InstrBase
	Edges      []Value
	FromBlocks []BlockID
}

// Cast bit-reinterprets X to the instruction's own type (see
// av.Coerce); covers integer/pointer casts and GEP-free pointer casts.
type Cast struct {
	InstrBase
	X Value
}

// GEP computes a derived pointer X + Offset bytes. The loader resolves
// struct-field/array-index arithmetic to a byte offset ahead of time;
// the core itself carries no target-machine semantics beyond byte
// sizes of types.
type GEP struct {
	InstrBase
	X      Value
	Offset ByteSize // UnknownSize for a non-constant (e.g. variable array index)
}

// CallSite identifies one call instruction's immediate context, used by
// driver.Inliner.
type CallSite struct {
	Instr  *Call
	Caller *Function
}

// Call is a direct or indirect call. Callee is non-nil for a statically
// resolved call; Annotated, when non-nil, supplies a library model for
// an external function the driver chose not to inline.
type Call struct {
	InstrBase
	Callee    *Function
	Args      []Value
	Annotated *LibraryModel
	NoReturn  bool // a provably non-returning call; a mustBail trigger for the driver
}

// VAStart initializes a va_list at AP.
type VAStart struct {
	InstrBase
	AP Value
}

func (v *VAStart) ValueType() Type   { return nil }
func (v *VAStart) ValueName() string { return "" }

// VACopy copies a va_list from Src to Dst.
type VACopy struct {
	InstrBase
	Dst, Src Value
}

func (v *VACopy) ValueType() Type   { return nil }
func (v *VACopy) ValueName() string { return "" }
