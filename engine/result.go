package engine

import (
	"github.com/bftjoe/llpe/block"
	"github.com/bftjoe/llpe/dse"
)

// Result is everything a Run produces for one function: the final
// block store reached at the end of its last executed block, and the
// DSE state reflecting every store/read/free observed along the way.
// The registry backing ds additionally accumulates every TS/TA ever
// created during the whole traversal, independent of Result — callers
// that want dead-store/dead-allocation reporting read Context.Registry
// after Run returns, not Result itself.
type Result struct {
	Block *block.BStore
	DSE   *dse.State
}
