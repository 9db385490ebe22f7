package n64

import "github.com/phire/bus-mu-sub000/internal/baselib/actor"

// pifPollInterval is the HLE boot handshake's poll period: pif/hle.rs's
// main loop advances its own clock by exactly this many bus cycles between
// checks of the command byte (next_time = time.add(13653)).
const pifPollInterval = 13653

// pifCommandWord is the PIF RAM word index that carries the command byte
// CPU software writes to kick off a PIF task - the last word of the
// 16-word PIF RAM region. The command byte is that word's low byte: byte
// 0x3f of PIF RAM, offset 0x7ff within the PIF's address window.
const pifCommandWord = PIFRAMWords - 1

// Command bytes recognized by the HLE boot handshake (scenario S6's
// sequence 0x00 -> 0x10 -> 0xa0 -> 0x48 -> 0x00), named after pif/hle.rs's
// State transitions and cic/hle.rs's checksum-read command.
const (
	pifCmdNone          = 0x00
	pifCmdChallenge     = 0x10
	pifCmdReadChecksum  = 0xa0
	pifCmdTerminateBoot = 0x48
)

// PIFState is the HLE boot-handshake state machine, simplified from
// pif/hle.rs's State enum (Init/WaitLockout/WaitGetChecksum/
// WaitCheckChecksum/WaitTerminateBoot/Run/Error) down to the command
// sequence scenario S6 actually exercises. The CIC's cryptographic nibble
// challenge-response (cic/hle.rs) is not modeled: this always accepts,
// matching how most HLE boot implementations treat an already-verified ROM
// image rather than re-deriving the seed exchange.
type PIFState int

const (
	PIFStateInit PIFState = iota
	PIFStateChallenge
	PIFStateChecksum
	PIFStateDone
)

func (s PIFState) String() string {
	switch s {
	case PIFStateInit:
		return "init"
	case PIFStateChallenge:
		return "challenge"
	case PIFStateChecksum:
		return "checksum"
	case PIFStateDone:
		return "done"
	default:
		return "unknown"
	}
}

// PIFActor watches PIF RAM's command byte and drives the boot handshake
// forward, independently of the CPU's ordinary memory-mapped PIF RAM
// loads/stores: on real hardware the CPU pokes PIF RAM with normal stores
// and the PIF chip notices and reacts asynchronously, which is exactly the
// free-running Advancer shape spec §4.5.1 describes (grounded on
// pif_actor.rs's PifState machine and pif/hle.rs's polling main loop).
type PIFActor struct {
	mem   *Memory
	state PIFState

	ob        *actor.Outbox
	cpuCh     actor.Channel[MIInterrupt]
	lastCheck actor.Time
}

// NewPIFActor builds a PIFActor watching mem's PIF RAM through ob, raising
// MIInterrupt on cpuCh once the boot handshake completes.
func NewPIFActor(ob *actor.Outbox, mem *Memory, cpuCh actor.Channel[MIInterrupt]) *PIFActor {
	return &PIFActor{ob: ob, mem: mem, cpuCh: cpuCh}
}

// State returns the handshake's current state, for tests and cmd/bus-mu's
// trace output.
func (p *PIFActor) State() PIFState {
	return p.state
}

// Advance implements actor.Advancer: every pifPollInterval cycles, look at
// the command byte CPU software last wrote and, if it advances the state
// machine, perform it and clear the byte back to 0x00 - the real PIF
// signals completion the same way, by zeroing its own command register.
func (p *PIFActor) Advance(limit actor.Time) actor.Time {
	next := p.lastCheck.Add(pifPollInterval)
	if next > limit {
		return limit
	}
	p.lastCheck = next

	cmd := p.mem.PIFRAM[pifCommandWord] & 0xff
	switch {
	case cmd == pifCmdChallenge && p.state == PIFStateInit:
		p.state = PIFStateChallenge
		p.mem.PIFRAM[pifCommandWord] = p.mem.PIFRAM[pifCommandWord]&^0xff | pifCmdNone

	case cmd == pifCmdReadChecksum && p.state == PIFStateChallenge:
		p.state = PIFStateChecksum
		p.mem.PIFRAM[pifCommandWord] = p.mem.PIFRAM[pifCommandWord]&^0xff | pifCmdNone

	case cmd == pifCmdTerminateBoot && p.state == PIFStateChecksum:
		p.state = PIFStateDone
		p.mem.PIFRAM[pifCommandWord] = p.mem.PIFRAM[pifCommandWord]&^0xff | pifCmdNone
		if p.ob.IsEmpty() {
			actor.SendChannel(p.ob, p.cpuCh, next, MIInterrupt{Source: PIF}, nil)
		}
	}

	return next
}
