package decompiler

import "sort"

// Block is one basic block in the recovered control flow graph.
type Block struct {
	ID           int
	StartOffset  int
	EndOffset    int
	Instructions []int // indices into the instruction slice passed to BuildCFG
	Successors   []int
	Predecessors []int
	Label        string
}

// CFG is the control flow graph recovered from a flat instruction stream.
type CFG struct {
	Blocks       map[int]*Block
	Entry        int
	Exits        []int
	OffsetToBlock map[int]int
}

// BuildCFG recovers basic blocks and edges from disassembled instructions,
// using the standard leader algorithm: the first instruction, every jump
// target, and every instruction following a jump or call starts a new
// block.
func BuildCFG(instructions []Instr) *CFG {
	cfg := &CFG{
		Blocks:        make(map[int]*Block),
		OffsetToBlock: make(map[int]int),
	}
	if len(instructions) == 0 {
		return cfg
	}

	leaders := map[int]bool{0: true}
	for i, in := range instructions {
		if in.IsJump() {
			if target, ok := in.JumpTarget(); ok {
				targetIdx := i + 1 + int(target)
				if targetIdx >= 0 && targetIdx < len(instructions) {
					leaders[targetIdx] = true
				}
			}
			if i+1 < len(instructions) {
				leaders[i+1] = true
			}
		}
		if in.IsCall() && i+1 < len(instructions) {
			leaders[i+1] = true
		}
	}

	sortedLeaders := make([]int, 0, len(leaders))
	for idx := range leaders {
		sortedLeaders = append(sortedLeaders, idx)
	}
	sort.Ints(sortedLeaders)

	leaderToBlock := make(map[int]int, len(sortedLeaders))
	for blockID, leaderIdx := range sortedLeaders {
		cfg.Blocks[blockID] = &Block{
			ID:          blockID,
			StartOffset: instructions[leaderIdx].Offset,
			EndOffset:   instructions[leaderIdx].Offset,
			Label:       "block_" + itoa(blockID),
		}
		leaderToBlock[leaderIdx] = blockID
	}

	currentBlock := 0
	for i, in := range instructions {
		if blockID, ok := leaderToBlock[i]; ok {
			currentBlock = blockID
		}
		block := cfg.Blocks[currentBlock]
		block.Instructions = append(block.Instructions, i)
		block.EndOffset = in.Offset + 8
		cfg.OffsetToBlock[in.Offset] = currentBlock
	}

	for i, in := range instructions {
		srcBlock, ok := cfg.OffsetToBlock[in.Offset]
		if !ok {
			continue
		}

		if in.IsExit() {
			cfg.Exits = append(cfg.Exits, srcBlock)
			continue
		}

		if in.IsJump() {
			if target, ok := in.JumpTarget(); ok {
				targetIdx := i + 1 + int(target)
				if targetIdx >= 0 && targetIdx < len(instructions) {
					if dstBlock, ok := leaderToBlock[targetIdx]; ok {
						cfg.addEdge(srcBlock, dstBlock)
					}
				}
			}
			if in.Opcode != 0x05 && i+1 < len(instructions) { // conditional: also falls through
				if dstBlock, ok := leaderToBlock[i+1]; ok {
					cfg.addEdge(srcBlock, dstBlock)
				}
			}
			continue
		}

		if i+1 < len(instructions) {
			if nextBlock, ok := leaderToBlock[i+1]; ok {
				block := cfg.Blocks[srcBlock]
				isLastInBlock := len(block.Instructions) > 0 && block.Instructions[len(block.Instructions)-1] == i
				if isLastInBlock && nextBlock != srcBlock {
					cfg.addEdge(srcBlock, nextBlock)
				}
			}
		}
	}

	return cfg
}

func (cfg *CFG) addEdge(from, to int) {
	if block, ok := cfg.Blocks[from]; ok && !containsInt(block.Successors, to) {
		block.Successors = append(block.Successors, to)
	}
	if block, ok := cfg.Blocks[to]; ok && !containsInt(block.Predecessors, from) {
		block.Predecessors = append(block.Predecessors, from)
	}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// GetBlock looks up a block by id.
func (cfg *CFG) GetBlock(id int) (*Block, bool) {
	b, ok := cfg.Blocks[id]
	return b, ok
}

// BlocksTopoOrder returns block ids in a reverse-postorder DFS from the
// entry block, so a block is visited only once all its predecessors
// (reachable from entry without going through it) have been.
func (cfg *CFG) BlocksTopoOrder() []int {
	visited := make(map[int]bool)
	var order []int

	var dfs func(id int)
	dfs = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		if block, ok := cfg.Blocks[id]; ok {
			for _, succ := range block.Successors {
				dfs(succ)
			}
		}
		order = append(order, id)
	}

	dfs(cfg.Entry)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// IsLoopHeader reports whether any predecessor of block id has a higher
// id than id itself — a back edge, under the assumption that block ids
// are assigned in program order.
func (cfg *CFG) IsLoopHeader(id int) bool {
	block, ok := cfg.Blocks[id]
	if !ok {
		return false
	}
	for _, pred := range block.Predecessors {
		if pred > id {
			return true
		}
	}
	return false
}

// GetLoopBody collects every block reachable from headerID by following
// successors that stay within the loop (successor id <= headerID's id, or
// a direct back edge to the header).
func (cfg *CFG) GetLoopBody(headerID int) []int {
	var body []int
	visited := make(map[int]bool)
	stack := []int{headerID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		body = append(body, id)

		if block, ok := cfg.Blocks[id]; ok {
			for _, succ := range block.Successors {
				if succ <= id || succ == headerID {
					stack = append(stack, succ)
				}
			}
		}
	}

	return body
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
