// Package symexec implements the per-instruction transfer functions:
// given a block's BStore/DSE state and an instruction, compute (and
// cache) the instruction's abstract Val, and apply whatever store
// effects the instruction has.
package symexec

import (
	"github.com/dolthub/swiss"
	"go.uber.org/zap"

	"github.com/bftjoe/llpe/av"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/ir"
)

// Context is the cross-block state threaded through a whole walk: the
// special-function table, the per-instruction Val cache (a
// instruction's Val is a functional result cached on the instruction,
// keyed here by InstrID rather than mutating the loader's IR), and a
// monotonic counter behind freshFd, which no transfer function calls.
type Context struct {
	Specials *ir.SpecialFuncTable
	DSE      *dse.Registry

	values     *swiss.Map[int, av.Val]
	globalInit *swiss.Map[ir.AId, *ir.AggregateConst]
	nextFd     uint64
	log        *zap.Logger
}

// NewContext returns a Context ready to walk a program against specials.
func NewContext(specials *ir.SpecialFuncTable) *Context {
	return &Context{
		Specials:   specials,
		values:     swiss.NewMap[int, av.Val](64),
		globalInit: swiss.NewMap[ir.AId, *ir.AggregateConst](8),
	}
}

// RegisterGlobals records the constant initializer of every global in
// globals that has one, so a load rooted at that global's AId can
// constant-fold against it (see load in memory.go) instead of reading
// an as-yet-unwritten base store as plain emptiness.
func (c *Context) RegisterGlobals(globals []*ir.Named) {
	for _, g := range globals {
		if g.Initializer != nil {
			c.globalInit.Put(g.AId, g.Initializer)
		}
	}
}

// GlobalInit returns id's constant initializer, if one was registered.
func (c *Context) GlobalInit(id ir.AId) (*ir.AggregateConst, bool) {
	return c.globalInit.Get(id)
}

// SetLogger attaches a trace logger; nil disables tracing (the default).
func (c *Context) SetLogger(l *zap.Logger) { c.log = l }

func (c *Context) trace(msg string, fields ...zap.Field) {
	if c.log == nil {
		return
	}
	c.log.Debug(msg, fields...)
}

// Cached returns instr's previously computed Val, or empty if it has
// never been stepped (the loop driver's first visit to a block within
// a not-yet-converged loop).
func (c *Context) Cached(instr ir.Instruction) av.Val {
	if v, ok := c.values.Get(instr.InstrID()); ok {
		return v
	}
	return av.Empty()
}

// SetCached installs instr's computed Val. Re-running a block (loop
// fixpoint iteration) simply overwrites the previous result.
func (c *Context) SetCached(instr ir.Instruction, v av.Val) {
	c.values.Put(instr.InstrID(), v)
}

// freshFd mints a new opaque file-descriptor token.
func (c *Context) freshFd() av.Val {
	c.nextFd++
	return av.Fd(c.nextFd)
}

// Eval resolves any Value operand to its abstract Val: a literal
// constant, a Named root (function argument or global — its Val is the
// pointer to that allocation), or a previously-stepped instruction's
// cached result.
func Eval(ctx *Context, v ir.Value) av.Val {
	switch x := v.(type) {
	case nil:
		return av.Empty()
	case *ir.Const:
		return av.Scalar(x.Bits, x.Typ)
	case *ir.NullConst:
		return av.Null()
	case *ir.Named:
		return av.Ptr(x.AId, 0)
	case ir.Instruction:
		return ctx.Cached(x)
	default:
		return av.Overdefined(av.ReasonNonScalarCoerce)
	}
}
