package n64

import (
	"testing"

	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// busHarness wires a bare BusActor (no CPU/PIF/Peripherals) plus a handful
// of toy requester outboxes, enough to drive HandleBusRequest/
// HandleBusReturn directly and observe delivery order (spec §4.6,
// testable properties 7-9, scenario S2).
type busHarness struct {
	busOb  actor.Outbox
	state  BusActorState
	busCh  actor.Channel[BusRequest]
	pairCh actor.Channel[BusPair]

	grants map[actor.ID]int // how many times each requester has been granted
	order  []actor.ID
}

func newBusHarness(owner actor.ID, ownerRet actor.Channel[ReturnBus]) *busHarness {
	h := &busHarness{grants: map[actor.ID]int{}}
	h.state = NewBusActorState(ownerRet)
	h.busCh = actor.NewChannel(func(msg BusRequest, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		return HandleBusRequest(&h.state, &h.busOb, msg, sentAt)
	})
	h.pairCh = actor.NewChannel(func(msg BusPair, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		return HandleBusReturn(&h.state, &h.busOb, msg, sentAt)
	})
	return h
}

// requester is a toy bus client: it requests the bus, records itself once
// granted, and holds the bus - as spec §4.6 requires - until BusActor
// explicitly asks for it back with a ReturnBus message.
type requester struct {
	id    actor.ID
	ob    actor.Outbox
	h     *busHarness
	grant actor.Channel[BusPair]
	ret   actor.Channel[ReturnBus]
}

func newRequester(h *busHarness, id actor.ID) *requester {
	r := &requester{id: id, h: h}
	r.grant = actor.NewChannel(func(pair BusPair, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		h.grants[id]++
		h.order = append(h.order, id)
		return actor.OK
	})
	r.ret = actor.NewChannel(func(msg ReturnBus, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		actor.SendChannel(&r.ob, h.pairCh, sentAt, BusPair{}, nil)
		return actor.OK
	})
	return r
}

func (r *requester) chans() BusChannels {
	return BusChannels{GrantCh: r.grant, RetCh: r.ret}
}

// newOwner builds the bus's initial owner: an actor that, whenever asked to
// return the bus, immediately hands back a blank BusPair. The id argument
// is not used, and the owner never appears in the harness's grant log.
func newOwner(id actor.ID) (ob *actor.Outbox, ret actor.Channel[ReturnBus], setHarness func(*busHarness)) {
	ob = &actor.Outbox{}
	var h *busHarness
	ret = actor.NewChannel(func(msg ReturnBus, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		actor.SendChannel(ob, h.pairCh, sentAt, BusPair{}, nil)
		return actor.OK
	})
	return ob, ret, func(harness *busHarness) { h = harness }
}

// TestBusGrantsHighestPriorityFirst is testable property 7/8: among
// simultaneously pending requests, the highest-priority requester is always
// granted first, regardless of arrival order within the same cycle.
func TestBusGrantsHighestPriorityFirst(t *testing.T) {
	ownerOb, ownerRet, setHarness := newOwner(CPU)
	h := newBusHarness(CPU, ownerRet)
	setHarness(h)

	rPI := newRequester(h, PI)
	rAI := newRequester(h, AI)
	rSI := newRequester(h, SI)

	// Enqueue lowest-to-highest priority; SI (50) must still be served
	// before AI (45) and PI (2).
	RequestBus(&rPI.ob, h.busCh, PI, rPI.chans(), actor.Time(1))
	RequestBus(&rAI.ob, h.busCh, AI, rAI.chans(), actor.Time(1))
	RequestBus(&rSI.ob, h.busCh, SI, rSI.chans(), actor.Time(1))

	sched := actor.NewScheduler(actor.Bases(
		actor.BasePair{ID: Bus, Outbox: &h.busOb},
		actor.BasePair{ID: CPU, Outbox: ownerOb},
		actor.BasePair{ID: PI, Outbox: &rPI.ob},
		actor.BasePair{ID: AI, Outbox: &rAI.ob},
		actor.BasePair{ID: SI, Outbox: &rSI.ob},
	), nil)

	for i := 0; i < 16; i++ {
		if _, ok := sched.Step(); !ok {
			break
		}
	}

	require.Equal(t, []actor.ID{SI, AI, PI}, h.order)
}

// TestBusArbitrationDeterministic is the discrete-event analog of testable
// property 5 applied to the bus: a random set of simultaneously arriving
// requests, replayed from scratch, grants in the same order every time -
// purely a function of priority (every candidate has a distinct priority,
// so no tie arises), not of Go map iteration or any other incidental
// nondeterminism.
func TestBusArbitrationDeterministic(t *testing.T) {
	candidates := []actor.ID{SI, AI, VI, RDP, RSP, PI}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, len(candidates)).Draw(t, "n")

		// Fisher-Yates shuffle driven by rapid draws, then take the first n -
		// a random n-subset in random order, without depending on a
		// permutation/shuffle helper this pack's rapid version may not have.
		pool := append([]actor.ID(nil), candidates...)
		for i := len(pool) - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(t, "swap")
			pool[i], pool[j] = pool[j], pool[i]
		}
		ids := pool[:n]

		run := func() []actor.ID {
			ownerOb, ownerRet, setHarness := newOwner(CPU)
			h := newBusHarness(CPU, ownerRet)
			setHarness(h)

			reqs := make([]*requester, n)
			pairs := []actor.BasePair{
				{ID: Bus, Outbox: &h.busOb},
				{ID: CPU, Outbox: ownerOb},
			}
			for i, id := range ids {
				reqs[i] = newRequester(h, id)
				pairs = append(pairs, actor.BasePair{ID: id, Outbox: &reqs[i].ob})
			}
			for i, id := range ids {
				RequestBus(&reqs[i].ob, h.busCh, id, reqs[i].chans(), actor.Time(1))
			}

			sched := actor.NewScheduler(actor.Bases(pairs...), nil)
			for i := 0; i < 4*n+4; i++ {
				if _, ok := sched.Step(); !ok {
					break
				}
			}
			return h.order
		}

		first := run()
		second := run()
		require.Equal(t, first, second)

		// Highest priority among the requested set must be granted first.
		best := ids[0]
		for _, id := range ids[1:] {
			if Priority(id) > Priority(best) {
				best = id
			}
		}
		require.Equal(t, best, first[0])
	})
}
