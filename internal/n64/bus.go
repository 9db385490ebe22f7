package n64

import (
	"container/heap"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
)

// CBus and DBus are the command and data halves of the RCP's shared
// internal bus. They carry only what a client needs to issue a transfer;
// the electrical/timing details of the real bus are out of scope (spec §1
// Non-goals).
type CBus struct {
	Addr uint32
	Kind MemoryOpKind
	Size uint8
}

// DBus carries the payload half of a bus transfer.
type DBus struct {
	Data [4]uint64 // up to a full cache line's worth of words
}

// MemoryOpKind distinguishes the handful of transfer shapes the bus needs
// to route; it does not model the full MMIO decode (that's CPUActor's job).
type MemoryOpKind uint8

const (
	OpRead MemoryOpKind = iota
	OpWrite
)

// BusPair is the single shared resource named in spec §4.6/§5: whoever
// holds it may drive a transfer. It is handed from actor to actor by
// value, through messages, never referenced concurrently.
type BusPair struct {
	actor.BaseMessage
	CBus CBus
	DBus DBus
}

// ReturnBus asks the current bus holder to hand the BusPair back.
type ReturnBus struct {
	actor.BaseMessage
}

// BusRequest asks BusActor for the bus. Priorities must be unique across
// clients (spec §4.6); grant and ret are the requester's own channels for
// receiving the BusPair and being asked to give it back.
type BusRequest struct {
	actor.BaseMessage
	Requester actor.ID
	Priority  uint16
	Grant     actor.Channel[BusPair]
	Ret       actor.Channel[ReturnBus]
}

// Priority returns the fixed priority table from spec §4.6 / the grounding
// source's bus_actor.rs, carried verbatim in meaning: SI highest (no
// buffering, can't pause serial transfers), then AI, VI, RDP, RSP, PI, CPU
// lowest.
func Priority(id actor.ID) uint16 {
	switch id {
	case SI:
		return 50
	case AI:
		return 45
	case VI:
		return 40
	case RDP:
		return 5
	case RSP:
		return 3
	case PI:
		return 2
	case CPU:
		return 1
	default:
		panic("n64: Priority: no bus priority assigned for this actor")
	}
}

type busRequestHeap []BusRequest

func (h busRequestHeap) Len() int { return len(h) }

// Less orders by priority descending: container/heap keeps index 0 at the
// "least" element, so the highest-priority request sits on top.
func (h busRequestHeap) Less(i, j int) bool { return h[i].Priority > h[j].Priority }
func (h busRequestHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *busRequestHeap) Push(x any) {
	*h = append(*h, x.(BusRequest))
}

func (h *busRequestHeap) Pop() any {
	old := *h
	n := len(old)
	req := old[n-1]
	*h = old[:n-1]
	return req
}

// BusActorState is the arbitration state for the single shared BusPair:
// a priority max-heap of pending requesters, the committed time of the
// last grant, and the channel of whoever currently holds the bus (if the
// bus is idle, sitting with its owner rather than in flight).
type BusActorState struct {
	queue         busRequestHeap
	committedTime actor.Time
	owner         fn.Option[actor.Channel[ReturnBus]]
}

// NewBusActorState constructs BusActor's initial state. To avoid a
// bootstrap deadlock, CPU starts out owning the bus (it's the only actor
// guaranteed to exist from cycle zero).
func NewBusActorState(cpuReturn actor.Channel[ReturnBus]) BusActorState {
	return BusActorState{
		queue: nil,
		owner: fn.Some(cpuReturn),
	}
}

// BusChannels bundles the channel pair BusActor needs to route a grant
// back to the requester and, later, reclaim it.
type BusChannels struct {
	GrantCh actor.Channel[BusPair]
	RetCh   actor.Channel[ReturnBus]
}

// RequestBus enqueues a bus request from requester, sent through ob.
// There can only be one outstanding request per actor (spec §4.6).
func RequestBus(ob *actor.Outbox, busCh actor.Channel[BusRequest], requester actor.ID,
	chans BusChannels, t actor.Time) {

	actor.SendChannel(ob, busCh, t, BusRequest{
		Requester: requester,
		Priority:  Priority(requester),
		Grant:     chans.GrantCh,
		Ret:       chans.RetCh,
	}, nil)
}

// HandleBusRequest implements spec §4.6's recv(Request) rule: queue the
// request, then either immediately reclaim the bus from its current
// owner, or - if a grant already went out this cycle - possibly cancel and
// re-target it at a newly-arrived higher-priority request.
func HandleBusRequest(state *BusActorState, ob *actor.Outbox, req BusRequest, t actor.Time) actor.SchedulerResult {
	heap.Push(&state.queue, req)

	if state.owner.IsSome() {
		owner := state.owner.UnwrapOr(actor.Channel[ReturnBus]{})
		state.owner = fn.None[actor.Channel[ReturnBus]]()
		actor.SendChannel(ob, owner, t, ReturnBus{}, nil)
		return actor.OK
	}

	if actor.Contains[BusPair](ob) && state.committedTime == t {
		highest := state.queue[0]
		if highest.Priority == req.Priority {
			_, pair := actor.Cancel[BusPair](ob)
			actor.SendChannel(ob, highest.Grant, t.Add(1), pair, busGrantDelivered(state, ob))
		}
	}

	return actor.OK
}

// HandleBusReturn implements spec §4.6's recv(BusPair): a bus handed back
// by its prior owner is immediately re-granted to the heap-top requester,
// one cycle later.
func HandleBusReturn(state *BusActorState, ob *actor.Outbox, pair BusPair, t actor.Time) actor.SchedulerResult {
	if len(state.queue) == 0 {
		panic("n64: BusActor received a returned BusPair with no pending request")
	}
	state.committedTime = t
	highest := state.queue[0]
	actor.SendChannel(ob, highest.Grant, t.Add(1), pair, busGrantDelivered(state, ob))
	return actor.OK
}

// busGrantDelivered builds BusActor's "deliver" hook for an outgoing
// BusPair grant (spec §4.6 last bullet): pop the satisfied request, bump
// committed time, and either park the bus with its new owner or
// immediately ask for it back because another request is still queued.
func busGrantDelivered(state *BusActorState, ob *actor.Outbox) func(actor.Time) {
	return func(sentAt actor.Time) {
		req := heap.Pop(&state.queue).(BusRequest)
		state.committedTime = state.committedTime.Add(1)

		if len(state.queue) == 0 {
			state.owner = fn.Some(req.Ret)
			return
		}
		actor.SendChannel(ob, req.Ret, sentAt.Add(1), ReturnBus{}, nil)
	}
}
