package ir

// BasicBlock is a basic block in the generator-level control flow graph,
// built incrementally while a program's linear instruction stream is
// still open to future jumps (see also decompiler.Block, which
// recovers the analogous structure from compiled bytecode).
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Successors   []string
	Predecessors []string
}

// NewBasicBlock creates an empty basic block with the given label.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

// Program is a complete IR program: the linear instruction stream plus
// indexed basic blocks, a string literal table, the entry label, and the
// variable-name-to-register bindings accumulated while generating it.
type Program struct {
	Instructions  []Instruction
	Blocks        map[string]*BasicBlock
	StringTable   []string
	EntryLabel    string
	VarRegisters  map[string]Reg
}

// NewProgram creates a new empty IR program with entry label "entry".
func NewProgram() *Program {
	return &Program{
		Blocks:       make(map[string]*BasicBlock),
		EntryLabel:   "entry",
		VarRegisters: make(map[string]Reg),
	}
}

// Emit appends an instruction to the program's linear stream.
func (p *Program) Emit(instr Instruction) {
	p.Instructions = append(p.Instructions, instr)
}

// InternString adds a string literal to the string table (deduplicated)
// and returns its index.
func (p *Program) InternString(s string) int {
	for i, existing := range p.StringTable {
		if existing == s {
			return i
		}
	}
	p.StringTable = append(p.StringTable, s)
	return len(p.StringTable) - 1
}
