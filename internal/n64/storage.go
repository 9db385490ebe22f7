package n64

import "github.com/phire/bus-mu-sub000/internal/baselib/actor"

// Storage is the ActorStorage named in spec §4.2: one named slot per actor
// variant (CPU, Bus, PIF, and the six Peripherals boxes), each holding that
// actor's outbox first, plus the by-ID outbox table (via actor.Bases) and
// Advancer table the Scheduler needs for O(1) lookup and horizon-driven
// local work.
type Storage struct {
	Mem         *Memory
	Peripherals *Peripherals
	CPU         *CPUActor
	PIF         *PIFActor

	busOutbox actor.Outbox
	busState  BusActorState
	busCh     actor.Channel[BusRequest]
	busPairCh actor.Channel[BusPair]

	pifOutbox actor.Outbox

	sched *actor.Scheduler
}

// NewStorage builds every actor named in spec §2's L5 layer, wires their
// channels together, and returns a Storage ready to Run. cfg.PIFImagePath
// may be empty for tests that don't care about PIF boot behavior.
func NewStorage(cfg Config) (*Storage, error) {
	mem, err := NewMemory(cfg)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		Mem:         mem,
		Peripherals: NewPeripherals(mem),
	}

	var cpuOutbox actor.Outbox
	s.CPU = NewCPUActor(&cpuOutbox, mem, s.Peripherals, actor.Channel[BusRequest]{}, actor.Channel[BusPair]{})

	// BusActor starts with the CPU as the nominal bus owner (spec §4.6's
	// bootstrap rule: the CPU is the only actor guaranteed to exist from
	// cycle zero), so its initial state needs the CPU's ReturnBus channel
	// before the reverse wiring (CPU's busReqCh/busRetCh) can be built.
	s.busState = NewBusActorState(s.CPU.BusChannels().RetCh)
	s.busCh = actor.NewChannel(func(msg BusRequest, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		return HandleBusRequest(&s.busState, &s.busOutbox, msg, sentAt)
	})
	s.busPairCh = actor.NewChannel(func(msg BusPair, senderID actor.ID, sentAt, horizon actor.Time) actor.SchedulerResult {
		return HandleBusReturn(&s.busState, &s.busOutbox, msg, sentAt)
	})

	s.CPU.SetBusChannels(s.busCh, s.busPairCh)
	s.Peripherals.SetCPUInterruptChannel(s.CPU.InterruptChannel())

	s.PIF = NewPIFActor(&s.pifOutbox, mem, s.CPU.InterruptChannel())

	bases := append([]actor.BasePair{
		{ID: CPU, Outbox: &cpuOutbox},
		{ID: Bus, Outbox: &s.busOutbox},
		{ID: PIF, Outbox: &s.pifOutbox},
	}, s.Peripherals.Bases()...)

	advancers := make([]actor.Advancer, actorCount)
	advancers[PIF] = s.PIF

	s.sched = actor.NewScheduler(actor.Bases(bases...), advancers)
	s.CPU.Start(actor.Unset)

	return s, nil
}

// Scheduler returns the wired actor.Scheduler, ready for Step/Run.
func (s *Storage) Scheduler() *actor.Scheduler {
	return s.sched
}
