// Package decompiler reverses compiled sBPF ELF bytes back into readable
// SRC (the S-expression source dialect this compiler front-ends). It walks
// raw bytecode, recovers a control flow graph, and renders each block as a
// pseudo-Lisp form, optionally substituting semantic names pulled from an
// Anchor IDL.
package decompiler

import "fmt"

// Instr is one decoded sBPF instruction plus its rendered mnemonic and
// operand string.
type Instr struct {
	Offset   int
	Opcode   byte
	Dst      byte
	Src      byte
	Off      int16
	Imm      int32
	Mnemonic string
	Operands string
}

// ToAsm renders the instruction as a one-line assembly string.
func (in Instr) ToAsm() string {
	if in.Operands == "" {
		return in.Mnemonic
	}
	return fmt.Sprintf("%s %s", in.Mnemonic, in.Operands)
}

// sBPF jump opcodes: unconditional ja plus every conditional jxx variant,
// immediate and register forms.
var jumpOpcodes = map[byte]bool{
	0x05: true, 0x15: true, 0x1d: true, 0x25: true, 0x2d: true,
	0x35: true, 0x3d: true, 0x45: true, 0x55: true, 0x5d: true,
	0xa5: true, 0xad: true, 0xb5: true, 0xbd: true,
}

func (in Instr) IsJump() bool { return jumpOpcodes[in.Opcode] }
func (in Instr) IsExit() bool { return in.Opcode == 0x95 }
func (in Instr) IsCall() bool { return in.Opcode == 0x85 }

// JumpTarget returns the jump's relative offset (in instruction slots,
// counted from the instruction following this one), and whether this
// instruction is a jump at all.
func (in Instr) JumpTarget() (int64, bool) {
	if !in.IsJump() {
		return 0, false
	}
	return int64(in.Off), true
}

// Disassembler decodes sBPF ELF bytes into a flat instruction stream.
type Disassembler struct {
	ehdrSize int
}

// NewDisassembler creates a disassembler assuming the default 64-byte ELF
// header.
func NewDisassembler() *Disassembler {
	return &Disassembler{ehdrSize: 64}
}

// Disassemble locates the .text section (or falls back to "everything
// after the ELF header" when section headers are absent, truncated, or
// don't name a .text section) and decodes it into instructions. lddw is
// a 16-byte instruction; every other opcode is 8 bytes.
func (d *Disassembler) Disassemble(elf []byte) ([]Instr, error) {
	text, err := d.findTextSection(elf)
	if err != nil {
		return nil, err
	}

	var instructions []Instr
	offset := 0
	for offset+8 <= len(text) {
		in, err := d.decodeInstruction(text[offset:], offset)
		if err != nil {
			return nil, err
		}
		offset += 8
		if in.Opcode == 0x18 { // lddw: 64-bit immediate spans a second slot
			offset += 8
		}
		instructions = append(instructions, in)
	}
	return instructions, nil
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// findTextSection walks the ELF section header table looking for a
// section named ".text". Any malformed or missing structure along the way
// (no section headers, truncated string table, truncated section header
// entry, section bounds past EOF) falls back to assuming code starts
// right after the ELF header — preserved as a cascade rather than
// collapsed into a single early return, matching the original disassembler.
func (d *Disassembler) findTextSection(elf []byte) ([]byte, error) {
	if len(elf) < 64 {
		return nil, fmt.Errorf("decompiler: ELF too small")
	}

	shoff := int(le64(elf[40:48]))
	shentsize := int(le16(elf[58:60]))
	shnum := int(le16(elf[60:62]))
	shstrndx := int(le16(elf[62:64]))

	afterHeader := func() ([]byte, error) {
		if d.ehdrSize > len(elf) {
			return nil, fmt.Errorf("decompiler: ELF shorter than header fallback")
		}
		return elf[d.ehdrSize:], nil
	}

	if shoff == 0 || shnum == 0 {
		return afterHeader()
	}

	strtabHdrOff := shoff + shstrndx*shentsize
	if strtabHdrOff+64 > len(elf) {
		return afterHeader()
	}

	strtabOff := int(le64(elf[strtabHdrOff+24 : strtabHdrOff+32]))
	strtabSize := int(le64(elf[strtabHdrOff+32 : strtabHdrOff+40]))
	if strtabOff+strtabSize > len(elf) {
		return afterHeader()
	}

	for i := 0; i < shnum; i++ {
		hdrOff := shoff + i*shentsize
		if hdrOff+64 > len(elf) {
			continue
		}
		nameIdx := int(le32(elf[hdrOff : hdrOff+4]))
		if strtabOff+nameIdx >= len(elf) {
			continue
		}
		rest := elf[strtabOff+nameIdx:]
		end := 0
		for end < len(rest) && rest[end] != 0 {
			end++
		}
		name := string(rest[:end])
		if name == ".text" {
			secOff := int(le64(elf[hdrOff+24 : hdrOff+32]))
			secSize := int(le64(elf[hdrOff+32 : hdrOff+40]))
			if secOff+secSize <= len(elf) {
				return elf[secOff : secOff+secSize], nil
			}
		}
	}

	return afterHeader()
}

func (d *Disassembler) decodeInstruction(b []byte, offset int) (Instr, error) {
	if len(b) < 8 {
		return Instr{}, fmt.Errorf("decompiler: incomplete instruction at offset %d", offset)
	}

	opcode := b[0]
	dstSrc := b[1]
	dst := dstSrc & 0x0f
	src := (dstSrc >> 4) & 0x0f
	off := int16(uint16(b[2]) | uint16(b[3])<<8)
	imm := int32(le32(b[4:8]))

	mnemonic, operands := formatInstruction(opcode, dst, src, off, imm)

	return Instr{
		Offset:   offset,
		Opcode:   opcode,
		Dst:      dst,
		Src:      src,
		Off:      off,
		Imm:      imm,
		Mnemonic: mnemonic,
		Operands: operands,
	}, nil
}

func regName(r byte) string { return fmt.Sprintf("r%d", r) }

// formatInstruction renders mnemonic and operand text for one opcode. The
// unknown-opcode fallback prints raw fields rather than failing, since a
// disassembler that bails on the first unrecognized byte is less useful
// than one that degrades gracefully.
func formatInstruction(opcode, dst, src byte, off int16, imm int32) (string, string) {
	switch opcode {
	case 0x07:
		return "add64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x17:
		return "sub64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x27:
		return "mul64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x37:
		return "div64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x47:
		return "or64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x57:
		return "and64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0x97:
		return "mod64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0xa7:
		return "xor64", fmt.Sprintf("%s, %d", regName(dst), imm)
	case 0xb7:
		return "mov64", fmt.Sprintf("%s, %d", regName(dst), imm)

	case 0x0f:
		return "add64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x1f:
		return "sub64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x2f:
		return "mul64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x3f:
		return "div64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x4f:
		return "or64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x5f:
		return "and64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x9f:
		return "mod64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0xaf:
		return "xor64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0xbf:
		return "mov64", fmt.Sprintf("%s, %s", regName(dst), regName(src))
	case 0x87:
		return "neg64", regName(dst)

	case 0x79:
		return "ldxdw", fmt.Sprintf("%s, [%s+%d]", regName(dst), regName(src), off)
	case 0x7b:
		return "stxdw", fmt.Sprintf("[%s+%d], %s", regName(dst), off, regName(src))
	case 0x18:
		return "lddw", fmt.Sprintf("%s, %d", regName(dst), uint64(uint32(imm)))

	case 0x05:
		return "ja", fmt.Sprintf("+%d", off)

	case 0x15:
		return "jeq", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0x25:
		return "jgt", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0x35:
		return "jge", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0x45:
		return "jset", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0x55:
		return "jne", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0xa5:
		return "jlt", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)
	case 0xb5:
		return "jle", fmt.Sprintf("%s, %d, +%d", regName(dst), imm, off)

	case 0x1d:
		return "jeq", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)
	case 0x2d:
		return "jgt", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)
	case 0x3d:
		return "jge", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)
	case 0x5d:
		return "jne", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)
	case 0xad:
		return "jlt", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)
	case 0xbd:
		return "jle", fmt.Sprintf("%s, %s, +%d", regName(dst), regName(src), off)

	case 0x85:
		return "call", fmt.Sprintf("%d", imm)
	case 0x95:
		return "exit", ""

	default:
		return fmt.Sprintf("unknown_%02x", opcode), fmt.Sprintf("%d %d %d %d", dst, src, off, imm)
	}
}
