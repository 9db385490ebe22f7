package vr4300

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToCPUTimeAndToBusTimeRatio(t *testing.T) {
	require.Equal(t, uint64(3), ToCPUTime(2, 0))
	require.Equal(t, uint64(4), ToCPUTime(2, 1))
	require.Equal(t, ^uint64(0), ToCPUTime(^uint64(0), 1))
	require.Equal(t, uint64(2), ToBusTime(3, 0))
}

func TestCoreRunAtResetRequestsUncachedPIFFetch(t *testing.T) {
	core := NewCore()
	result := core.Run(1)

	require.Equal(t, ReasonMem, result.Reason)
	require.Equal(t, ReqUncachedInstructionRead, result.Mem.Kind)
	require.Equal(t, uint32(0x1fc0_0000), result.Mem.Addr)
}

func TestCoreRunReportsBlockedWhileMemRequestIsInFlight(t *testing.T) {
	core := NewCore()
	core.Run(1) // triggers the PIF fetch request, leaving IC stalled

	// With no response delivered yet, a second Run call finds the
	// pipeline already blocked and makes no further progress.
	second := core.Run(4)
	require.Equal(t, ReasonLimited, second.Reason)
	require.Equal(t, uint64(0), second.Cycles)
}

func TestHandleMemoryResponseTransferCountMismatchPanics(t *testing.T) {
	core := NewCore()
	core.Run(1)

	require.Panics(t, func() {
		core.MemoryResponse(MemoryResponse{Kind: RespUncachedInstructionRead, Value: 0}, 2)
	})
}

func TestHandleMemoryResponseICacheFillInstallsLine(t *testing.T) {
	p := NewPipeline()
	icache := &ICache{}
	dcache := &DCache{}

	p.ic.expectedTag = NewCacheTag(0x8000_0000)
	p.ic.stalled = true

	resp := MemoryResponse{Kind: RespICacheFill, ICacheLine: [8]uint32{1, 2, 3, 4, 5, 6, 7, 8}}
	HandleMemoryResponse(p, icache, dcache, resp, 8)

	require.False(t, p.ic.stalled)
	require.True(t, p.ic.cacheTag.Equal(NewCacheTag(0x8000_0000)))
	require.Equal(t, uint32(1), p.ic.cacheData)
}
