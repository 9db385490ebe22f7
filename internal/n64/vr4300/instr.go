package vr4300

import "math/bits"

// ExMode is the execute-stage operation an instruction decodes to, per the
// condensed list in spec §4.7.3.
type ExMode int

const (
	Nop ExMode = iota
	Jump
	Branch
	BranchLikely

	AddSigned32
	AddUnsigned32
	SubSigned32
	SubUnsigned32
	AddSigned64
	AddUnsigned64
	SubSigned64
	SubUnsigned64

	SetLessSigned
	SetLessUnsigned

	And
	Or
	Xor
	Nor

	InsertUpper

	ShiftLeft32
	ShiftRightLogical32
	ShiftRightArithmetic32
	ShiftLeft64
	ShiftRightLogical64
	ShiftRightArithmetic64

	MulSigned32
	MulUnsigned32
	MulSigned64
	MulUnsigned64
	DivSigned32
	DivUnsigned32
	DivSigned64
	DivUnsigned64

	Load
	LoadUnsigned
	LoadLeft
	LoadRight
	Store
	StoreLeft
	StoreRight
	MemLoadLinked
	MemStoreConditional

	LoadInternal
	StoreInternal

	CacheOp
)

// CmpKind is the condition a Branch/BranchLikely instruction tests.
type CmpKind int

const (
	CmpEQ CmpKind = iota
	CmpNE
	CmpLEZ
	CmpGTZ
	CmpLTZ
	CmpGEZ
)

// Compare evaluates cmp against a (and, for CmpEQ/CmpNE, b).
func Compare(cmp CmpKind, a, b uint64) bool {
	switch cmp {
	case CmpEQ:
		return a == b
	case CmpNE:
		return a != b
	case CmpLEZ:
		return int64(a) <= 0
	case CmpGTZ:
		return int64(a) > 0
	case CmpLTZ:
		return int64(a) < 0
	case CmpGEZ:
		return int64(a) >= 0
	default:
		panic("vr4300: unknown CmpKind")
	}
}

// MemSize is the width, in bytes, of a memory operation.
type MemSize uint8

const (
	Byte      MemSize = 1
	Halfword  MemSize = 2
	Word      MemSize = 4
	Doubleword MemSize = 8
)

// OverflowTrap is returned by the signed add/sub helpers when the result
// overflows a signed 32 or 64-bit value - the manual requires trapping
// rather than wrapping. Full exception delivery is out of scope (spec
// Non-goals); ALU callers surface this as a panic for now, same as an
// unrecognized CacheOp.
type OverflowTrap struct {
	Op string
}

func (e OverflowTrap) Error() string {
	return "vr4300: signed overflow trap in " + e.Op
}

// AddSigned32 adds a and b as signed 32-bit values, sign-extending the
// 32-bit result to 64 bits, and returns an OverflowTrap error on signed
// overflow.
func AddSigned32(a, b uint32) (uint64, error) {
	sum := int32(a) + int32(b)
	overflows := ((a ^ b) & 0x8000_0000) == 0 && ((a ^ uint32(sum)) & 0x8000_0000) != 0
	if overflows {
		return 0, OverflowTrap{Op: "add"}
	}
	return uint64(int64(sum)), nil
}

// SubSigned32 subtracts b from a as signed 32-bit values, sign-extending
// the result, and returns an OverflowTrap error on signed overflow.
func SubSigned32(a, b uint32) (uint64, error) {
	diff := int32(a) - int32(b)
	overflows := ((a ^ b) & 0x8000_0000) != 0 && ((a ^ uint32(diff)) & 0x8000_0000) != 0
	if overflows {
		return 0, OverflowTrap{Op: "sub"}
	}
	return uint64(int64(diff)), nil
}

// AddUnsigned32 adds a and b as 32-bit values with no overflow trap,
// sign-extending the (wrapped) result per the MIPS III ADDU semantics.
func AddUnsigned32(a, b uint32) uint64 {
	return uint64(int64(int32(a + b)))
}

// SubUnsigned32 subtracts b from a as 32-bit values with no overflow
// trap, sign-extending the result.
func SubUnsigned32(a, b uint32) uint64 {
	return uint64(int64(int32(a - b)))
}

// AddSigned64/SubSigned64 operate on full 64-bit operands.
func AddSigned64(a, b uint64) (uint64, error) {
	sum := a + b
	overflows := ((a ^ b) & 0x8000_0000_0000_0000) == 0 && ((a ^ sum) & 0x8000_0000_0000_0000) != 0
	if overflows {
		return 0, OverflowTrap{Op: "dadd"}
	}
	return sum, nil
}

func SubSigned64(a, b uint64) (uint64, error) {
	diff := a - b
	overflows := ((a ^ b) & 0x8000_0000_0000_0000) != 0 && ((a ^ diff) & 0x8000_0000_0000_0000) != 0
	if overflows {
		return 0, OverflowTrap{Op: "dsub"}
	}
	return diff, nil
}

func AddUnsigned64(a, b uint64) uint64 { return a + b }
func SubUnsigned64(a, b uint64) uint64 { return a - b }

// SetLessSigned/SetLessUnsigned implement SLT/SLTU: 1 if a < b, else 0.
func SetLessSigned(a, b uint64) uint64 {
	if int64(a) < int64(b) {
		return 1
	}
	return 0
}

func SetLessUnsigned(a, b uint64) uint64 {
	if a < b {
		return 1
	}
	return 0
}

// InsertUpper implements LUI: sign-extend imm shifted left 16.
func InsertUpper(imm uint16) uint64 {
	return uint64(int64(int32(uint32(imm) << 16)))
}

// ShiftLeft32/ShiftRightLogical32/ShiftRightArithmetic32 implement
// SLL/SRL/SRA: operate on the low 32 bits, sign-extending the result.
func ShiftLeft32(a uint64, shift uint32) uint64 {
	return uint64(int64(int32(uint32(a) << shift)))
}

func ShiftRightLogical32(a uint64, shift uint32) uint64 {
	return uint64(int64(int32(uint32(a) >> shift)))
}

func ShiftRightArithmetic32(a uint64, shift uint32) uint64 {
	return uint64(int32(a) >> shift)
}

// ShiftLeft64/ShiftRightLogical64/ShiftRightArithmetic64 implement
// DSLL/DSRL/DSRA at full 64-bit width.
func ShiftLeft64(a uint64, shift uint32) uint64 {
	return a << shift
}

func ShiftRightLogical64(a uint64, shift uint32) uint64 {
	return a >> shift
}

func ShiftRightArithmetic64(a uint64, shift uint32) uint64 {
	return uint64(int64(a) >> shift)
}

// MulResult is the paired (hi, lo) product the HI/LO internal registers
// hold after a multiply.
type MulResult struct {
	Hi, Lo uint64
}

// MulSigned32 multiplies a and b as signed 32-bit values, sign-extending
// the 64-bit product's two halves.
func MulSigned32(a, b uint32) MulResult {
	product := int64(int32(a)) * int64(int32(b))
	return MulResult{
		Hi: uint64(int64(int32(product >> 32))),
		Lo: uint64(int64(int32(product))),
	}
}

// MulUnsigned32 multiplies a and b as unsigned 32-bit values.
func MulUnsigned32(a, b uint32) MulResult {
	product := uint64(a) * uint64(b)
	return MulResult{
		Hi: uint64(int64(int32(product >> 32))),
		Lo: uint64(int64(int32(product))),
	}
}

// MulSigned64/MulUnsigned64 multiply full 64-bit operands (DMULT/DMULTU),
// producing the full 128-bit product split across hi/lo.
func MulUnsigned64(a, b uint64) MulResult {
	hi, lo := bits.Mul64(a, b)
	return MulResult{Hi: hi, Lo: lo}
}

func MulSigned64(a, b uint64) MulResult {
	hi, lo := bits.Mul64(a, b)
	// bits.Mul64 computes an unsigned product; correct it to a signed
	// one by subtracting b<<64 if a is negative, and a<<64 if b is
	// negative (standard two's-complement widening-multiply fixup).
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return MulResult{Hi: hi, Lo: lo}
}

// DivResult is the (hi, lo) pair a divide produces: remainder and
// quotient respectively.
type DivResult struct {
	Hi, Lo uint64
}

// DivSigned32 implements DIV's manual-defined behavior on division by
// zero: hi := dividend, lo := -1 if the dividend is negative, else +1.
func DivSigned32(a, b uint32) DivResult {
	if b == 0 {
		lo := int64(1)
		if int32(a) < 0 {
			lo = -1
		}
		return DivResult{Hi: uint64(int64(int32(a))), Lo: uint64(lo)}
	}
	q := int32(a) / int32(b)
	r := int32(a) % int32(b)
	return DivResult{Hi: uint64(int64(r)), Lo: uint64(int64(q))}
}

func DivUnsigned32(a, b uint32) DivResult {
	if b == 0 {
		return DivResult{Hi: uint64(int64(int32(a))), Lo: ^uint64(0)}
	}
	return DivResult{Hi: uint64(int64(int32(a % b))), Lo: uint64(int64(int32(a / b)))}
}

// DivSigned64/DivUnsigned64 implement DDIV/DDIVU with the same
// divide-by-zero convention, at full 64-bit width.
func DivSigned64(a, b uint64) DivResult {
	if b == 0 {
		lo := uint64(1)
		if int64(a) < 0 {
			lo = ^uint64(0)
		}
		return DivResult{Hi: a, Lo: lo}
	}
	return DivResult{Hi: uint64(int64(a) % int64(b)), Lo: uint64(int64(a) / int64(b))}
}

func DivUnsigned64(a, b uint64) DivResult {
	if b == 0 {
		return DivResult{Hi: a, Lo: ^uint64(0)}
	}
	return DivResult{Hi: a % b, Lo: a / b}
}
