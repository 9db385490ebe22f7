package vr4300

// ToCPUTime converts a span of bus cycles to CPU cycles. The VR4300 runs
// at a fixed 1.5x multiplier over the bus clock; odd (the low bit of the
// absolute bus time this span started at) is folded in so the extra half
// cycle always lands deterministically on an odd bus cycle, matching the
// original emulator's clock-ratio handling.
func ToCPUTime(busCycles, odd uint64) uint64 {
	extra := busCycles/2 + odd
	sum := busCycles + extra
	if sum < busCycles { // saturate on overflow rather than wrap
		return ^uint64(0)
	}
	return sum
}

// ToBusTime converts a span of CPU cycles back to bus cycles, the inverse
// of ToCPUTime (to within the same odd-cycle rounding convention).
func ToBusTime(cpuCycles, odd uint64) uint64 {
	return cpuCycles - (cpuCycles+odd)/3
}

// RunReason is why Core.Run returned control to the caller.
type RunReason int

const (
	// ReasonLimited means the requested cycle budget was exhausted with
	// no pending memory request - the caller should resume with a new
	// budget once it knows how far it can safely advance.
	ReasonLimited RunReason = iota
	// ReasonMem means the pipeline needs a bus transfer to proceed; Mem
	// on RunResult names it.
	ReasonMem
)

// RunResult is what Core.Run returns: how many CPU cycles were actually
// consumed, and why it stopped.
type RunResult struct {
	Cycles uint64
	Reason RunReason
	Mem    MemoryReq
}

// Core bundles the pipeline with its caches and micro-TLB - everything
// CpuActor needs to drive one VR4300 core forward.
type Core struct {
	Pipeline *Pipeline
	ICache   *ICache
	DCache   *DCache
	ITLB     *MicroTLB

	cyclesRun uint64
}

// NewCore returns a freshly-reset VR4300 core.
func NewCore() *Core {
	return &Core{
		Pipeline: NewPipeline(),
		ICache:   &ICache{},
		DCache:   &DCache{},
		ITLB:     NewMicroTLB(),
	}
}

// Run advances the core by up to budget CPU cycles, stopping early the
// moment the pipeline needs a memory transfer or goes permanently blocked
// within this budget.
func (c *Core) Run(budget uint64) RunResult {
	var ran uint64
	for ran < budget {
		if c.Pipeline.Blocked() {
			return RunResult{Cycles: ran, Reason: ReasonLimited}
		}

		reason := c.Pipeline.Cycle(c.ICache, c.DCache, c.ITLB)
		ran++
		if reason != nil && reason.Mem != nil {
			return RunResult{Cycles: ran, Reason: ReasonMem, Mem: *reason.Mem}
		}
	}
	return RunResult{Cycles: ran, Reason: ReasonLimited}
}

// MemoryResponse delivers the result of a bus transfer the pipeline
// requested back into the core, per spec §4.7.4.
func (c *Core) MemoryResponse(resp MemoryResponse, transfers int) {
	HandleMemoryResponse(c.Pipeline, c.ICache, c.DCache, resp, transfers)
}
