package engine

import "github.com/bftjoe/llpe/ir"

// Config is the explicit, by-reference bundle of whole-program state a
// production driver would otherwise be tempted to stash in package-level
// singletons: the special-function table (malloc/realloc/free/va_start/
// va_copy plus the library mod/ref model table), and the program's
// globals (so a constant-global load can fold against its initializer)
// — there is no separate "type-size oracle" struct because
// ir.Type.Size() already serves that role for every allocation and
// operand in scope.
type Config struct {
	Specials *ir.SpecialFuncTable
	Globals  []*ir.Named
}
