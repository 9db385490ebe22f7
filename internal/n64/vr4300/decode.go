package vr4300

// Instruction is a decoded MIPS III word: everything EX needs to execute
// it, and RF needs to know which registers to read.
type Instruction struct {
	Mode      ExMode
	Cmp       CmpKind
	Rs, Rt    uint8
	Writeback uint8
	Imm       uint16
	Target    uint32 // raw 26-bit jump target; EX shifts it left by 2
	Size      MemSize
	Signed    bool
	CacheOp   uint8
	IsLink    bool // writes return address into Writeback (31 for JAL, rd for JALR)
}

// SignExtendImm sign-extends a 16-bit immediate to 64 bits.
func SignExtendImm(imm uint16) uint64 {
	return uint64(int64(int16(imm)))
}

// Decode decodes a 32-bit MIPS III instruction word into the execute-stage
// semantics enumerated in spec §4.7.3. Unrecognized opcodes decode to Nop;
// a production core would instead raise a reserved-instruction exception,
// which is out of scope here (exception delivery generally is, per the
// spec's Non-goals).
func Decode(word uint32) Instruction {
	op := word >> 26
	rs := uint8((word >> 21) & 0x1f)
	rt := uint8((word >> 16) & 0x1f)
	rd := uint8((word >> 11) & 0x1f)
	shamt := uint8((word >> 6) & 0x1f)
	funct := uint8(word & 0x3f)
	imm := uint16(word & 0xffff)
	target := word & 0x03ff_ffff

	switch op {
	case 0x00: // SPECIAL
		return decodeSpecial(rs, rt, rd, shamt, funct)
	case 0x02: // J
		return Instruction{Mode: Jump, Target: target}
	case 0x03: // JAL
		return Instruction{Mode: Jump, Target: target, IsLink: true, Writeback: 31}
	case 0x04: // BEQ
		return Instruction{Mode: Branch, Cmp: CmpEQ, Rs: rs, Rt: rt, Imm: imm}
	case 0x05: // BNE
		return Instruction{Mode: Branch, Cmp: CmpNE, Rs: rs, Rt: rt, Imm: imm}
	case 0x06: // BLEZ
		return Instruction{Mode: Branch, Cmp: CmpLEZ, Rs: rs, Imm: imm}
	case 0x07: // BGTZ
		return Instruction{Mode: Branch, Cmp: CmpGTZ, Rs: rs, Imm: imm}
	case 0x14: // BEQL
		return Instruction{Mode: BranchLikely, Cmp: CmpEQ, Rs: rs, Rt: rt, Imm: imm}
	case 0x15: // BNEL
		return Instruction{Mode: BranchLikely, Cmp: CmpNE, Rs: rs, Rt: rt, Imm: imm}
	case 0x16: // BLEZL
		return Instruction{Mode: BranchLikely, Cmp: CmpLEZ, Rs: rs, Imm: imm}
	case 0x17: // BGTZL
		return Instruction{Mode: BranchLikely, Cmp: CmpGTZ, Rs: rs, Imm: imm}
	case 0x08: // ADDI
		return Instruction{Mode: AddSigned32, Rs: rs, Writeback: rt, Imm: imm, Signed: true}
	case 0x09: // ADDIU
		return Instruction{Mode: AddUnsigned32, Rs: rs, Writeback: rt, Imm: imm}
	case 0x18: // DADDI
		return Instruction{Mode: AddSigned64, Rs: rs, Writeback: rt, Imm: imm, Signed: true}
	case 0x19: // DADDIU
		return Instruction{Mode: AddUnsigned64, Rs: rs, Writeback: rt, Imm: imm}
	case 0x0a: // SLTI
		return Instruction{Mode: SetLessSigned, Rs: rs, Rt: rt, Writeback: rt, Imm: imm, Signed: true}
	case 0x0b: // SLTIU
		return Instruction{Mode: SetLessUnsigned, Rs: rs, Rt: rt, Writeback: rt, Imm: imm}
	case 0x0c: // ANDI
		return Instruction{Mode: And, Rs: rs, Writeback: rt, Imm: imm}
	case 0x0d: // ORI
		return Instruction{Mode: Or, Rs: rs, Writeback: rt, Imm: imm}
	case 0x0e: // XORI
		return Instruction{Mode: Xor, Rs: rs, Writeback: rt, Imm: imm}
	case 0x0f: // LUI
		return Instruction{Mode: InsertUpper, Writeback: rt, Imm: imm}
	case 0x20: // LB
		return Instruction{Mode: Load, Rs: rs, Writeback: rt, Imm: imm, Size: Byte, Signed: true}
	case 0x21: // LH
		return Instruction{Mode: Load, Rs: rs, Writeback: rt, Imm: imm, Size: Halfword, Signed: true}
	case 0x23: // LW
		return Instruction{Mode: Load, Rs: rs, Writeback: rt, Imm: imm, Size: Word, Signed: true}
	case 0x24: // LBU
		return Instruction{Mode: LoadUnsigned, Rs: rs, Writeback: rt, Imm: imm, Size: Byte}
	case 0x25: // LHU
		return Instruction{Mode: LoadUnsigned, Rs: rs, Writeback: rt, Imm: imm, Size: Halfword}
	case 0x27: // LWU
		return Instruction{Mode: LoadUnsigned, Rs: rs, Writeback: rt, Imm: imm, Size: Word}
	case 0x37: // LD
		return Instruction{Mode: Load, Rs: rs, Writeback: rt, Imm: imm, Size: Doubleword}
	case 0x22: // LWL
		return Instruction{Mode: LoadLeft, Rs: rs, Writeback: rt, Imm: imm, Size: Word}
	case 0x26: // LWR
		return Instruction{Mode: LoadRight, Rs: rs, Writeback: rt, Imm: imm, Size: Word}
	case 0x1a: // LDL
		return Instruction{Mode: LoadLeft, Rs: rs, Writeback: rt, Imm: imm, Size: Doubleword}
	case 0x1b: // LDR
		return Instruction{Mode: LoadRight, Rs: rs, Writeback: rt, Imm: imm, Size: Doubleword}
	case 0x28: // SB
		return Instruction{Mode: Store, Rs: rs, Rt: rt, Imm: imm, Size: Byte}
	case 0x29: // SH
		return Instruction{Mode: Store, Rs: rs, Rt: rt, Imm: imm, Size: Halfword}
	case 0x2b: // SW
		return Instruction{Mode: Store, Rs: rs, Rt: rt, Imm: imm, Size: Word}
	case 0x3f: // SD
		return Instruction{Mode: Store, Rs: rs, Rt: rt, Imm: imm, Size: Doubleword}
	case 0x2a: // SWL
		return Instruction{Mode: StoreLeft, Rs: rs, Rt: rt, Imm: imm, Size: Word}
	case 0x2e: // SWR
		return Instruction{Mode: StoreRight, Rs: rs, Rt: rt, Imm: imm, Size: Word}
	case 0x2c: // SDL
		return Instruction{Mode: StoreLeft, Rs: rs, Rt: rt, Imm: imm, Size: Doubleword}
	case 0x2d: // SDR
		return Instruction{Mode: StoreRight, Rs: rs, Rt: rt, Imm: imm, Size: Doubleword}
	case 0x30: // LL
		return Instruction{Mode: MemLoadLinked, Rs: rs, Writeback: rt, Imm: imm, Size: Word}
	case 0x38: // SC
		return Instruction{Mode: MemStoreConditional, Rs: rs, Rt: rt, Writeback: rt, Imm: imm, Size: Word}
	case 0x2f: // CACHE
		return Instruction{Mode: CacheOp, Rs: rs, Imm: imm, CacheOp: rt}
	default:
		return Instruction{Mode: Nop}
	}
}

func decodeSpecial(rs, rt, rd, shamt, funct uint8) Instruction {
	switch funct {
	case 0x00: // SLL
		return Instruction{Mode: ShiftLeft32, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x02: // SRL
		return Instruction{Mode: ShiftRightLogical32, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x03: // SRA
		return Instruction{Mode: ShiftRightArithmetic32, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x04: // SLLV
		return Instruction{Mode: ShiftLeft32, Rs: rs, Rt: rt, Writeback: rd}
	case 0x06: // SRLV
		return Instruction{Mode: ShiftRightLogical32, Rs: rs, Rt: rt, Writeback: rd}
	case 0x07: // SRAV
		return Instruction{Mode: ShiftRightArithmetic32, Rs: rs, Rt: rt, Writeback: rd}
	case 0x38: // DSLL
		return Instruction{Mode: ShiftLeft64, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x3a: // DSRL
		return Instruction{Mode: ShiftRightLogical64, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x3b: // DSRA
		return Instruction{Mode: ShiftRightArithmetic64, Rt: rt, Writeback: rd, Imm: uint16(shamt)}
	case 0x08: // JR
		return Instruction{Mode: Jump, Rs: rs}
	case 0x09: // JALR
		return Instruction{Mode: Jump, Rs: rs, IsLink: true, Writeback: rd}
	case 0x20: // ADD
		return Instruction{Mode: AddSigned32, Rs: rs, Rt: rt, Writeback: rd, Signed: true}
	case 0x21: // ADDU
		return Instruction{Mode: AddUnsigned32, Rs: rs, Rt: rt, Writeback: rd}
	case 0x22: // SUB
		return Instruction{Mode: SubSigned32, Rs: rs, Rt: rt, Writeback: rd, Signed: true}
	case 0x23: // SUBU
		return Instruction{Mode: SubUnsigned32, Rs: rs, Rt: rt, Writeback: rd}
	case 0x2c: // DADD
		return Instruction{Mode: AddSigned64, Rs: rs, Rt: rt, Writeback: rd, Signed: true}
	case 0x2d: // DADDU
		return Instruction{Mode: AddUnsigned64, Rs: rs, Rt: rt, Writeback: rd}
	case 0x2e: // DSUB
		return Instruction{Mode: SubSigned64, Rs: rs, Rt: rt, Writeback: rd, Signed: true}
	case 0x2f: // DSUBU
		return Instruction{Mode: SubUnsigned64, Rs: rs, Rt: rt, Writeback: rd}
	case 0x24: // AND
		return Instruction{Mode: And, Rs: rs, Rt: rt, Writeback: rd}
	case 0x25: // OR
		return Instruction{Mode: Or, Rs: rs, Rt: rt, Writeback: rd}
	case 0x26: // XOR
		return Instruction{Mode: Xor, Rs: rs, Rt: rt, Writeback: rd}
	case 0x27: // NOR
		return Instruction{Mode: Nor, Rs: rs, Rt: rt, Writeback: rd}
	case 0x2a: // SLT
		return Instruction{Mode: SetLessSigned, Rs: rs, Rt: rt, Writeback: rd}
	case 0x2b: // SLTU
		return Instruction{Mode: SetLessUnsigned, Rs: rs, Rt: rt, Writeback: rd}
	case 0x18: // MULT
		return Instruction{Mode: MulSigned32, Rs: rs, Rt: rt}
	case 0x19: // MULTU
		return Instruction{Mode: MulUnsigned32, Rs: rs, Rt: rt}
	case 0x1c: // DMULT
		return Instruction{Mode: MulSigned64, Rs: rs, Rt: rt}
	case 0x1d: // DMULTU
		return Instruction{Mode: MulUnsigned64, Rs: rs, Rt: rt}
	case 0x1a: // DIV
		return Instruction{Mode: DivSigned32, Rs: rs, Rt: rt}
	case 0x1b: // DIVU
		return Instruction{Mode: DivUnsigned32, Rs: rs, Rt: rt}
	case 0x1e: // DDIV
		return Instruction{Mode: DivSigned64, Rs: rs, Rt: rt}
	case 0x1f: // DDIVU
		return Instruction{Mode: DivUnsigned64, Rs: rs, Rt: rt}
	case 0x10: // MFHI
		return Instruction{Mode: LoadInternal, Writeback: rd, Imm: 0}
	case 0x12: // MFLO
		return Instruction{Mode: LoadInternal, Writeback: rd, Imm: 1}
	case 0x11: // MTHI
		return Instruction{Mode: StoreInternal, Rs: rs, Imm: 0}
	case 0x13: // MTLO
		return Instruction{Mode: StoreInternal, Rs: rs, Imm: 1}
	default:
		return Instruction{Mode: Nop}
	}
}
