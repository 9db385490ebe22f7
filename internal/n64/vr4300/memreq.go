package vr4300

import "fmt"

// ReqKind is the shape of a memory transfer the pipeline needs the bus to
// perform, per spec §4.7.4. The pipeline itself never touches the bus; it
// only ever returns one of these out of Cycle via ExitReason.
type ReqKind int

const (
	ReqICacheFill ReqKind = iota
	ReqDCacheFill
	ReqUncachedInstructionRead
	ReqUncachedDataReadWord
	ReqUncachedDataReadDouble
	ReqUncachedDataWriteWord
	ReqUncachedDataWriteDouble
)

// MemoryReq is a pending bus transfer request.
type MemoryReq struct {
	Kind    ReqKind
	Addr    uint32
	Value   uint64 // store value, for the two UncachedDataWrite* kinds
	MemSize MemSize
}

// RespKind mirrors ReqKind on the way back from the bus.
type RespKind int

const (
	RespICacheFill RespKind = iota
	RespDCacheFill
	RespUncachedInstructionRead
	RespUncachedDataRead
	RespUncachedDataWrite
)

// MemoryResponse is what the CPU actor hands back to the pipeline once a
// bus transfer completes.
type MemoryResponse struct {
	Kind       RespKind
	ICacheLine [8]uint32
	DCacheLine [2]uint64
	Value      uint64
}

// wantTransfers is the sanity-checked transfer count for each response
// kind, per spec §4.7.4's closing paragraph: ICache fill = 8, DCache fill
// = 4, doubleword uncached = 2, word = 1.
func wantTransfers(kind RespKind, size MemSize) int {
	switch kind {
	case RespICacheFill:
		return 8
	case RespDCacheFill:
		return 4
	case RespUncachedInstructionRead:
		return 1
	case RespUncachedDataRead, RespUncachedDataWrite:
		if size == Doubleword {
			return 2
		}
		return 1
	default:
		panic("vr4300: unknown MemoryResponse kind")
	}
}

// HandleMemoryResponse applies a completed bus transfer back into the
// pipeline: installing cache lines, picking the requested bytes out of an
// uncached read, or just clearing a stall for a completed write.
func HandleMemoryResponse(p *Pipeline, icache *ICache, dcache *DCache,
	resp MemoryResponse, transfers int) {

	want := wantTransfers(resp.Kind, p.dc.memSize)
	if transfers != want {
		panic(fmt.Sprintf(
			"vr4300: memory response %v carried %d transfers, want %d",
			resp.Kind, transfers, want))
	}

	switch resp.Kind {
	case RespICacheFill:
		line := ICacheLine(uint32(p.PC()))
		icache.FinishFill(line, p.ic.expectedTag, resp.ICacheLine)
		tag, data := icache.Fetch(uint32(p.PC()))
		p.ic.cacheTag = tag
		p.ic.cacheData = data
		p.ic.stalled = false

	case RespUncachedInstructionRead:
		shift := 32 * ((^uint32(p.PC()) >> 2) & 1)
		p.ic.cacheData = uint32(resp.Value >> shift)
		p.ic.cacheTag = p.ic.expectedTag
		p.ic.stalled = false

	case RespDCacheFill:
		line := DCacheLine(p.dc.addr)
		dcache.FinishFill(line, p.dc.tlbTag, resp.DCacheLine)
		p.wb.stalled = false

	case RespUncachedDataRead:
		value := resp.Value
		if p.dc.memSize != Doubleword {
			offset := uint8(p.dc.addr & 7)
			value = ExtractLoad(value, offset, p.dc.memSize, p.dc.signed)
		}
		p.regs.Write(p.dc.writebackReg, value)
		p.wb.stalled = false

	case RespUncachedDataWrite:
		p.wb.stalled = false
	}
}

func (k RespKind) String() string {
	switch k {
	case RespICacheFill:
		return "ICacheFill"
	case RespDCacheFill:
		return "DCacheFill"
	case RespUncachedInstructionRead:
		return "UncachedInstructionRead"
	case RespUncachedDataRead:
		return "UncachedDataRead"
	case RespUncachedDataWrite:
		return "UncachedDataWrite"
	default:
		return "Unknown"
	}
}
