package ir

// Allocator hands out fresh virtual registers and labels during IR
// generation. Unlike a physical-register allocator (linear-scan, graph
// coloring) it never reuses an id: virtual registers here are bookkeeping
// for the generator and optimizer passes, not slots competing for a fixed
// register file.
type Allocator struct {
	nextReg   uint32
	nextLabel uint32
}

// NewAllocator creates a fresh allocator starting both counters at zero.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// NewReg returns a fresh virtual register.
func (a *Allocator) NewReg() Reg {
	r := Reg{ID: a.nextReg}
	a.nextReg++
	return r
}

// NewLabel returns a fresh label with the given prefix (e.g. "if_else",
// "while_body"), suffixed with a monotonic counter so nested/repeated
// control-flow forms never collide.
func (a *Allocator) NewLabel(prefix string) string {
	id := a.nextLabel
	a.nextLabel++
	return labelName(prefix, id)
}

func labelName(prefix string, id uint32) string {
	return prefix + "_" + uitoa(id)
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// RegCount returns how many registers have been allocated so far.
func (a *Allocator) RegCount() int { return int(a.nextReg) }
