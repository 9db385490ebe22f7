package vr4300

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegFileReadWrite(t *testing.T) {
	rf := NewRegFile()
	rf.Write(5, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), rf.Read(5))

	rf.Write(0, 0x1234)
	require.Equal(t, uint64(0), rf.Read(0))
}

func TestRegFileBypassReturnsRecordedValue(t *testing.T) {
	rf := NewRegFile()
	rf.Bypass(4, 0x42, true)

	require.Equal(t, uint64(0x42), rf.Read(4))
	require.False(t, rf.HazardDetected())
}

func TestRegFileBypassWithoutValueDetectsHazard(t *testing.T) {
	rf := NewRegFile()
	rf.Bypass(4, 0, false)

	require.Equal(t, uint64(0), rf.Read(4))
	require.True(t, rf.HazardDetected())
}

func TestRegFileBypassClearedByRegZero(t *testing.T) {
	rf := NewRegFile()
	rf.Bypass(4, 0, false)
	rf.Bypass(0, 0, true)

	// Reading reg 4 no longer hits the bypass slot, and since nothing
	// was ever written to it directly, it reads as zero with no hazard.
	require.Equal(t, uint64(0), rf.Read(4))
	require.False(t, rf.HazardDetected())
}
