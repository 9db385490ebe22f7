package n64

import (
	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
	"github.com/phire/bus-mu-sub000/internal/n64/vr4300"
)

// CpuRun is the CPU actor's self-addressed continuation message. It keeps
// re-sending itself one of these to resume the pipeline, mirroring
// cpu_actor.rs's own CpuRun pattern directly rather than the scheduler's
// general Advancer hook: the original never implements a bare "advance"
// call either, and a self-message composes more simply with the
// bus-request/grant/return protocol below than a horizon re-queue would.
type CpuRun struct {
	actor.BaseMessage
}

// target names where a decoded CPU memory address is actually serviced.
type target int

const (
	targetRDRAM target = iota
	targetPIF
	targetPeripheral
	targetUnmapped
)

// decodeAddress implements cpu_actor.rs's address-range match table (spec
// §12.1): RDRAM and the PIF are serviced directly out of Memory, the RCP
// register blocks route to a peripheral actor, and the cartridge domain
// (PI external bus) is unmapped in this build (spec §1 Non-goals: no
// cartridge/ROM backend).
func decodeAddress(addr uint32) (target, actor.ID) {
	switch {
	case addr < 0x0400_0000:
		return targetRDRAM, actor.None
	case addr >= 0x0400_0000 && addr < 0x0404_0000:
		return targetPeripheral, RSP
	case addr >= 0x0410_0000 && addr < 0x0430_0000:
		return targetPeripheral, RDP
	case addr >= 0x0430_0000 && addr < 0x0440_0000:
		return targetPeripheral, RI // MI lives alongside RI's stub in this build
	case addr >= 0x0440_0000 && addr < 0x0450_0000:
		return targetPeripheral, VI
	case addr >= 0x0450_0000 && addr < 0x0460_0000:
		return targetPeripheral, AI
	case addr >= 0x0460_0000 && addr < 0x0470_0000:
		return targetPeripheral, PI
	case addr >= 0x0470_0000 && addr < 0x0480_0000:
		return targetPeripheral, RI
	case addr >= 0x0480_0000 && addr < 0x0490_0000:
		return targetPeripheral, SI
	case addr >= 0x1fc0_0000 && addr < 0x1fc0_0800:
		return targetPIF, PIF
	default:
		return targetUnmapped, actor.None
	}
}

// CPUActor drives a vr4300.Core forward, translating its memory requests
// into bus transfers arbitrated by BusActor (spec §12.1, L5 CPU actor).
type CPUActor struct {
	core *vr4300.Core
	mem  *Memory

	ob       *actor.Outbox
	runCh    actor.Channel[CpuRun]
	grantCh  actor.Channel[BusPair]
	retCh    actor.Channel[ReturnBus]
	intCh    actor.Channel[MIInterrupt]
	busReqCh actor.Channel[BusRequest]
	busRetCh actor.Channel[BusPair] // static channel into BusActor's recv(BusPair)

	registers *PeripheralRegisters

	pending      *vr4300.MemoryReq
	oddBit       uint64
	interrupts   int // count of MIInterrupt deliveries observed so far
	lastInterrupt actor.ID
}

// NewCPUActor wires a fresh Core to ob. Call Start once every channel in
// the engine exists to place the bootstrap CpuRun message.
func NewCPUActor(ob *actor.Outbox, mem *Memory, regs *PeripheralRegisters,
	busReqCh actor.Channel[BusRequest], busRetCh actor.Channel[BusPair]) *CPUActor {

	a := &CPUActor{
		core:      vr4300.NewCore(),
		mem:       mem,
		registers: regs,
		ob:        ob,
		busReqCh:  busReqCh,
		busRetCh:  busRetCh,
	}
	a.runCh = actor.NewChannel(a.recvRun)
	a.grantCh = actor.NewChannel(a.recvBusGrant)
	a.retCh = actor.NewChannel(a.recvReturnBus)
	a.intCh = actor.NewChannel(a.recvInterrupt)
	return a
}

// BusChannels returns the (grant, return) channel pair BusActor needs to
// route grants back to the CPU, and to ask for the bus back later.
func (a *CPUActor) BusChannels() BusChannels {
	return BusChannels{GrantCh: a.grantCh, RetCh: a.retCh}
}

// SetBusChannels wires the CPU's outgoing request/return channels into
// BusActor. It exists as a setter, rather than a constructor argument,
// because BusActor's own initial state needs the CPU's BusChannels (built
// above) before BusActor's channels exist to hand back here - Storage's
// constructor breaks that cycle by building the CPU first.
func (a *CPUActor) SetBusChannels(req actor.Channel[BusRequest], ret actor.Channel[BusPair]) {
	a.busReqCh = req
	a.busRetCh = ret
}

// InterruptChannel returns the channel peripheral actors raise MIInterrupt
// through.
func (a *CPUActor) InterruptChannel() actor.Channel[MIInterrupt] {
	return a.intCh
}

// recvInterrupt records an aggregated MI interrupt line edge. Full
// cause/mask-register exception delivery into the pipeline is out of scope
// (spec §1 Non-goals); this keeps the observable "an interrupt arrived from
// this peripheral" fact queryable by tests and cmd/bus-mu's trace output.
func (a *CPUActor) recvInterrupt(msg MIInterrupt, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
	a.interrupts++
	a.lastInterrupt = msg.Source
	return actor.OK
}

// Interrupts returns the number of MIInterrupt messages delivered so far,
// and the source of the most recent one.
func (a *CPUActor) Interrupts() (count int, lastSource actor.ID) {
	return a.interrupts, a.lastInterrupt
}

// Start places the first CpuRun in the CPU's own outbox, bootstrapping
// dispatch (spec §4.5's loop has nothing to do until some actor has a first
// message).
func (a *CPUActor) Start(t actor.Time) {
	actor.SendChannel(a.ob, a.runCh, t, CpuRun{}, nil)
}

// recvRun executes pipeline cycles up to the horizon - the next cycle some
// other actor already has scheduled work at - then either resumes itself
// (ReasonLimited) or requests the bus for a pending transfer (ReasonMem).
func (a *CPUActor) recvRun(msg CpuRun, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
	var busBudget uint64
	switch {
	case horizon == actor.Max:
		busBudget = 1 << 16 // nothing else scheduled yet; take a generous slice
	case horizon > sentAt:
		busBudget = uint64(horizon - sentAt)
	}

	cpuBudget := vr4300.ToCPUTime(busBudget, a.oddBit)
	if cpuBudget == 0 {
		cpuBudget = 1
	}

	res := a.core.Run(cpuBudget)
	busUsed := vr4300.ToBusTime(res.Cycles, a.oddBit)
	now := sentAt.Add(busUsed)
	a.oddBit = uint64(now) & 1

	if res.Reason == vr4300.ReasonMem {
		req := res.Mem
		a.pending = &req
		RequestBus(a.ob, a.busReqCh, CPU, a.BusChannels(), now)
		return actor.OK
	}

	actor.SendChannel(a.ob, a.runCh, now.Add(1), CpuRun{}, nil)
	return actor.OK
}

// recvBusGrant is called once BusActor hands the CPU the shared BusPair. It
// performs the deferred transfer against Memory or a peripheral's register
// file, feeds the result back into the pipeline, and resumes execution; the
// bus itself is held until BusActor reclaims it with a ReturnBus message
// (spec §4.6's revoke-and-reissue protocol).
func (a *CPUActor) recvBusGrant(pair BusPair, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
	if a.pending == nil {
		panic("n64: CPUActor received a bus grant with no pending memory request")
	}
	req := *a.pending
	a.pending = nil

	resp, transfers := a.service(req, sentAt)
	a.core.MemoryResponse(resp, transfers)

	actor.SendChannel(a.ob, a.runCh, sentAt.Add(1), CpuRun{}, nil)
	return actor.OK
}

// recvReturnBus hands the bus back to BusActor. The CPU has no further
// in-flight transfer at this point (it always finishes one before resuming
// execution), so the returned BusPair is a blank capability token - the
// payload fields only ever matter to whichever actor uses them to drive the
// next transfer.
func (a *CPUActor) recvReturnBus(msg ReturnBus, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
	actor.SendChannel(a.ob, a.busRetCh, sentAt, BusPair{}, nil)
	return actor.OK
}

// service performs req against whichever backing store decodeAddress routes
// it to, and builds the MemoryResponse the pipeline expects back.
func (a *CPUActor) service(req vr4300.MemoryReq, now actor.Time) (vr4300.MemoryResponse, int) {
	tgt, id := decodeAddress(req.Addr)

	switch req.Kind {
	case vr4300.ReqICacheFill:
		var line [8]uint32
		base := req.Addr &^ 0x1f
		for i := range line {
			line[i] = a.readWord(tgt, id, base+uint32(i*4))
		}
		return vr4300.MemoryResponse{Kind: vr4300.RespICacheFill, ICacheLine: line}, 8

	case vr4300.ReqDCacheFill:
		var line [2]uint64
		base := req.Addr &^ 0xf
		for i := range line {
			line[i] = a.readDouble(tgt, id, base+uint32(i*8))
		}
		return vr4300.MemoryResponse{Kind: vr4300.RespDCacheFill, DCacheLine: line}, 4

	case vr4300.ReqUncachedInstructionRead:
		v := uint64(a.readWord(tgt, id, req.Addr&^3)) << 32
		v |= uint64(a.readWord(tgt, id, (req.Addr&^3)|4))
		return vr4300.MemoryResponse{Kind: vr4300.RespUncachedInstructionRead, Value: v}, 1

	case vr4300.ReqUncachedDataReadWord:
		v := uint64(a.readWord(tgt, id, req.Addr))
		return vr4300.MemoryResponse{Kind: vr4300.RespUncachedDataRead, Value: v}, 1

	case vr4300.ReqUncachedDataReadDouble:
		v := a.readDouble(tgt, id, req.Addr)
		return vr4300.MemoryResponse{Kind: vr4300.RespUncachedDataRead, Value: v}, 2

	case vr4300.ReqUncachedDataWriteWord:
		a.writeWord(tgt, id, req.Addr, uint32(req.Value), now)
		return vr4300.MemoryResponse{Kind: vr4300.RespUncachedDataWrite}, 1

	case vr4300.ReqUncachedDataWriteDouble:
		a.writeWord(tgt, id, req.Addr, uint32(req.Value>>32), now)
		a.writeWord(tgt, id, req.Addr+4, uint32(req.Value), now)
		return vr4300.MemoryResponse{Kind: vr4300.RespUncachedDataWrite}, 2

	default:
		panic("n64: CPUActor.service: unknown memory request kind")
	}
}

func (a *CPUActor) readWord(tgt target, id actor.ID, addr uint32) uint32 {
	switch tgt {
	case targetRDRAM:
		return uint32(a.mem.ReadRDRAM(addr, 4))
	case targetPIF:
		return a.mem.ReadPIF(addr)
	case targetPeripheral:
		return a.registers.Read(id, addr)
	default:
		return 0
	}
}

func (a *CPUActor) writeWord(tgt target, id actor.ID, addr uint32, value uint32, now actor.Time) {
	switch tgt {
	case targetRDRAM:
		a.mem.WriteRDRAM(addr, 4, uint64(value))
	case targetPIF:
		a.mem.WritePIF(addr, value)
	case targetPeripheral:
		a.registers.Write(id, addr, value, now)
	}
}

func (a *CPUActor) readDouble(tgt target, id actor.ID, addr uint32) uint64 {
	hi := a.readWord(tgt, id, addr)
	lo := a.readWord(tgt, id, addr+4)
	return uint64(hi)<<32 | uint64(lo)
}
