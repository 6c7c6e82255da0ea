package ir

// BlockID indexes a Function's Blocks slice.
type BlockID int

// Program is the whole-program inventory the loader produces.
type Program struct {
	Functions []*Function
	Globals   []*Named
	Specials  *SpecialFuncTable
}

// Func looks up a function by name, or returns nil.
func (p *Program) Func(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Function is one function's basic-block list, loop-nesting tree, and
// parameter list.
type Function struct {
	Name   string
	Params []*Named // argument values, each rooted at a KindArg AId
	Blocks []*BasicBlock
	Loops  []*Loop
}

// Block returns the basic block with the given id.
func (f *Function) Block(id BlockID) *BasicBlock { return f.Blocks[id] }

// Entry returns the function's entry block.
func (f *Function) Entry() *BasicBlock { return f.Blocks[0] }

// RPO returns the function's blocks in reverse postorder, the
// traversal order the driver walks a function in.
func (f *Function) RPO() []*BasicBlock {
	order := make([]*BasicBlock, 0, len(f.Blocks))
	visited := make([]bool, len(f.Blocks))
	var post []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b.ID] {
			return
		}
		visited[b.ID] = true
		for _, s := range b.Succs {
			visit(f.Block(s))
		}
		post = append(post, b)
	}
	visit(f.Entry())
	for i := len(post) - 1; i >= 0; i-- {
		order = append(order, post[i])
	}
	return order
}

// BasicBlock is a straight-line instruction sequence with explicit
// predecessor/successor edges.
type BasicBlock struct {
	ID     BlockID
	Func   *Function
	Instrs []Instruction
	Preds  []BlockID
	Succs  []BlockID
}

// Loop is one entry in a function's loop-nesting tree: header,
// preheader, and latch indices.
type Loop struct {
	Header    BlockID
	Preheader BlockID
	Latches   []BlockID
	Blocks    []BlockID
	Parent    *Loop
}
