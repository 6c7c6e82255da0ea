package engine

import (
	"go.uber.org/zap"

	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
	"github.com/bftjoe/llpe/symexec"
)

// Context is the whole-program engine state threaded through a Run: the
// shared base store every block's BStore is layered over, the DSE
// registry spanning the entire traversal, and the symbolic executor's
// per-instruction Val cache and special-function table. One Context is
// built per program under analysis and passed by pointer everywhere it
// is needed, rather than kept as package-level mutable state.
type Context struct {
	Config   Config
	Symbols  *symexec.Context
	Registry *dse.Registry
	Base     *block.Base

	log *zap.Logger
}

// NewContext builds a fresh engine Context ready to Run one or more
// functions against cfg's special-function table.
func NewContext(cfg Config) *Context {
	symbols := symexec.NewContext(cfg.Specials)
	symbols.RegisterGlobals(cfg.Globals)
	return &Context{
		Config:   cfg,
		Symbols:  symbols,
		Registry: dse.NewRegistry(),
		Base:     block.NewBase(),
	}
}

// SetLogger attaches a trace logger to the Context and every subsystem
// it owns; nil (the default) disables tracing.
func (c *Context) SetLogger(l *zap.Logger) {
	c.log = l
	c.Symbols.SetLogger(l)
}

func (c *Context) trace(msg string, fields ...zap.Field) {
	if c.log == nil {
		return
	}
	c.log.Debug(msg, fields...)
}
