package ir

// ArgEffect is one argument's mod/ref summary for an annotated library
// call: a per-location mod/ref declaration, keyed by argument index and
// byte size, or by an opaque computed location.
type ArgEffect struct {
	ArgIndex int
	Size     ByteSize // UnknownSize for an opaque/computed location
	Mod      bool     // the call may write through this argument
	Ref      bool     // the call may read through this argument
}

// LibraryModel is one entry in the special-function table: an
// annotated summary for a recognised library call the driver chose not
// to inline, used by Call's transfer function as its third case
// (inline, clobber, or model).
type LibraryModel struct {
	Name      string
	ReadOnly  bool // pure function of its arguments; no Mod effects anywhere
	Effects   []ArgEffect
	Allocator bool // behaves like malloc: returns a fresh, unaliased allocation
	Freer     bool // behaves like free: releases the allocation named by arg 0
}

// SpecialFuncTable is the loader-supplied table of special functions
// the core recognises by role: malloc/realloc/free/va_start/va_copy,
// plus an extensible library-call mod/ref table keyed by function name.
type SpecialFuncTable struct {
	Malloc  *Function
	Realloc *Function
	Free    *Function
	VAStart *Function
	VACopy  *Function
	Models  map[string]*LibraryModel
}

// ModelFor returns the annotated model for fn, if any.
func (t *SpecialFuncTable) ModelFor(fn *Function) *LibraryModel {
	if t == nil || fn == nil {
		return nil
	}
	return t.Models[fn.Name]
}
