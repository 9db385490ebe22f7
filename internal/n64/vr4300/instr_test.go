package vr4300

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAddSigned32OverflowTraps(t *testing.T) {
	_, err := AddSigned32(0x7fff_ffff, 1)
	require.Error(t, err)

	sum, err := AddSigned32(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), sum)
}

func TestDivSigned32ZeroDivisorConvention(t *testing.T) {
	r := DivSigned32(5, 0)
	require.Equal(t, uint64(1), r.Lo)
	require.Equal(t, uint64(5), r.Hi)

	r = DivSigned32(uint32(int32(-5)), 0)
	require.Equal(t, ^uint64(0), r.Lo)
}

func TestDivUnsigned32ZeroDivisorConvention(t *testing.T) {
	r := DivUnsigned32(7, 0)
	require.Equal(t, ^uint64(0), r.Lo)
}

func TestMulSigned32SignExtendsHiLo(t *testing.T) {
	r := MulSigned32(uint32(int32(-2)), uint32(int32(3)))
	require.Equal(t, uint64(int64(int32(-6))), r.Lo)
	require.Equal(t, ^uint64(0), r.Hi) // sign-extended -1
}

func TestExtractLoadSignAndZeroExtend(t *testing.T) {
	slot := uint64(0xff01_0203_0405_0607)

	require.Equal(t, uint64(0xff), ExtractLoad(slot, 0, Byte, false))
	require.Equal(t, ^uint64(0), ExtractLoad(slot, 0, Byte, true)) // 0xff sign-extends to all ones
	require.Equal(t, uint64(0x0405_0607), ExtractLoad(slot, 4, Word, false))
}

func TestInsertStoreRoundTrips(t *testing.T) {
	var slot uint64
	slot = InsertStore(slot, 0, Word, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), ExtractLoad(slot, 0, Word, false))

	slot = InsertStore(slot, 4, Halfword, 0x1234)
	require.Equal(t, uint64(0x1234), ExtractLoad(slot, 4, Halfword, false))
	// The first word is untouched by a write to bytes 4:5.
	require.Equal(t, uint64(0xdeadbeef), ExtractLoad(slot, 0, Word, false))
}

func TestDecodeAddiu(t *testing.T) {
	// ADDIU $t0, $t1, 4  => opcode 0x09, rs=t1(9), rt=t0(8), imm=4
	word := uint32(0x09)<<26 | uint32(9)<<21 | uint32(8)<<16 | 4
	instr := Decode(word)
	require.Equal(t, AddUnsigned32, instr.Mode)
	require.Equal(t, uint8(9), instr.Rs)
	require.Equal(t, uint8(8), instr.Writeback)
	require.Equal(t, uint16(4), instr.Imm)
}

func TestDivideByZeroNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint32().Draw(t, "a")
		require.NotPanics(t, func() {
			DivSigned32(a, 0)
			DivUnsigned32(a, 0)
		})
	})
}
