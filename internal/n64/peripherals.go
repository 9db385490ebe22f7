package n64

import "github.com/phire/bus-mu-sub000/internal/baselib/actor"

// MIInterrupt is the single aggregated interrupt line every peripheral
// raises through MI, delivered straight to the CPU actor in this build
// (spec §1 Non-goals: no interrupt-mask/cause-register modeling, only the
// observable "an interrupt occurred" edge - full exception delivery is out
// of scope the same way vr4300's OverflowTrap is, per DESIGN.md).
type MIInterrupt struct {
	actor.BaseMessage
	Source actor.ID
}

// PeripheralState is the per-peripheral storage slot: a small flat register
// file. Real register semantics for AI/VI/RI/RSP/RDP are almost entirely
// todo!() in the original emulator's own cpu_actor.rs match table too, so
// this build keeps them as plain read/write storage (spec §2 L5's
// "peripheral actors" share is about being wired and addressable, not about
// modeling audio DACs or the RDP command FIFO).
type PeripheralState struct {
	regs [16]uint32
}

// Peripherals owns the AI/VI/PI/RI/RSP/RDP register files, each as its own
// actor.Box (so each has a real, independently-addressable Outbox in
// Storage's by-ID table), plus the one side effect this build's peripheral
// stubs actually perform: PI's DMA trigger register, which moves bytes
// within Memory and raises MIInterrupt back at the CPU.
type Peripherals struct {
	boxes map[actor.ID]*actor.Box[PeripheralState]
	mem   *Memory
	cpuCh actor.Channel[MIInterrupt]
}

// NewPeripherals builds a fresh, zeroed register file for each peripheral
// actor ID.
func NewPeripherals(mem *Memory) *Peripherals {
	p := &Peripherals{mem: mem, boxes: map[actor.ID]*actor.Box[PeripheralState]{}}
	for _, id := range []actor.ID{AI, VI, PI, RI, RSP, RDP} {
		b := actor.NewBox(PeripheralState{})
		p.boxes[id] = &b
	}
	return p
}

// SetCPUInterruptChannel wires the channel MIInterrupt messages are routed
// through, once the CPU actor (and its recv handler) exists.
func (p *Peripherals) SetCPUInterruptChannel(ch actor.Channel[MIInterrupt]) {
	p.cpuCh = ch
}

// Bases returns this peripheral set's (ID, outbox) pairs for Storage's
// by-ID lookup table.
func (p *Peripherals) Bases() []actor.BasePair {
	pairs := make([]actor.BasePair, 0, len(p.boxes))
	for id, b := range p.boxes {
		pairs = append(pairs, actor.BasePair{ID: id, Outbox: &b.Outbox})
	}
	return pairs
}

// regIndex maps an MMIO byte offset onto a slot in the 16-register bank.
func regIndex(addr uint32) uint32 {
	return (addr & 0x3f) / 4 % 16
}

// PeripheralRegisters is the CPU-facing accessor Peripherals exposes: it
// hides the per-actor Box bookkeeping behind plain Read/Write calls, the
// same shape Memory offers for RDRAM/PIF.
type PeripheralRegisters = Peripherals

// Read returns the current value of id's register at addr. Unregistered
// peripheral IDs read as zero; decodeAddress routes the SI range here, and
// SI has no box, so SI registers always read as zero.
func (p *Peripherals) Read(id actor.ID, addr uint32) uint32 {
	b, ok := p.boxes[id]
	if !ok {
		return 0
	}
	return b.State.regs[regIndex(addr)]
}

// piDMALenReg is PI_WR_LEN_REG's slot: the one register write with a side
// effect, since length is always the last of the four DMA setup registers
// real firmware programs.
const piDMALenReg = 3

const (
	piDRAMAddrReg = 0
	piCartAddrReg = 1
)

// Write stores value into id's register at addr, additionally triggering a
// PI DMA if this is PI's length register.
func (p *Peripherals) Write(id actor.ID, addr uint32, value uint32, now actor.Time) {
	b, ok := p.boxes[id]
	if !ok {
		return
	}
	idx := regIndex(addr)
	b.State.regs[idx] = value

	if id == PI && idx == piDMALenReg {
		p.runPIDMA(b, now)
	}
}

// runPIDMA moves (length+1) bytes within RDRAM from PI_CART_ADDR_REG to
// PI_DRAM_ADDR_REG. Cartridge ROM itself is out of scope (spec §1
// Non-goals: no cartridge/ROM backend), so this models only the RDRAM-local
// half of a PI DMA - enough to exercise the bus-arbitration and
// interrupt-delivery machinery scenario S2 cares about.
func (p *Peripherals) runPIDMA(b *actor.Box[PeripheralState], now actor.Time) {
	dst := b.State.regs[piDRAMAddrReg]
	src := b.State.regs[piCartAddrReg]
	length := int(b.State.regs[piDMALenReg]&0xffffff) + 1

	for i := 0; i < length; i++ {
		v := p.mem.RDRAM[src%RDRAMBytes]
		p.mem.RDRAM[dst%RDRAMBytes] = v
		src++
		dst++
	}

	if b.Outbox.IsEmpty() {
		actor.SendChannel(&b.Outbox, p.cpuCh, now.Add(1), MIInterrupt{Source: PI}, nil)
	}
}
