package actor

import "context"

// Advancer is implemented by an actor that has local work to run even when
// its outbox is empty - the CPU pipeline burning cycles with nothing
// in-flight, a peripheral's free-running timer, and so on (spec §4.5.1).
// The scheduler calls Advance only on the actor with the smallest pending
// horizon, never concurrently with message delivery.
type Advancer interface {
	// Advance runs local work up to limit cycles (inclusive), placing a new
	// message in the actor's own outbox if it produces one, and returns the
	// cycle count it actually reached - always <= limit.
	Advance(limit Time) Time
}

// Scheduler drives the single-threaded, cooperative dispatch loop described
// in spec §4.5: repeatedly find the actor whose outbox holds the
// earliest-due message, deliver it, and repeat. Ties are broken by ID,
// lowest wins, which is what gives two runs over identical input an
// identical per-cycle delivery order (testable property 5). When no outbox
// holds a message, it instead pops the horizon heap and advances whichever
// actor has the smallest next-possible-event time (spec §4.5.1), looping
// back to the outbox scan once that actor either produces a message or
// exhausts its budget.
//
// Scheduler itself is domain-agnostic: it only ever touches the Outbox
// header of each actor's storage slot and the Advancer interface. The n64
// package supplies bases (the by-ID outbox table built once at Storage
// construction) and owns what actually lives behind each Outbox.
type Scheduler struct {
	bases     []*Outbox
	advancers []Advancer
	committed []Time
	horizon   *TimeQueue[ID]

	globalCommitted Time
	lastDispatched  ID
}

// NewScheduler wraps a by-ID outbox table and a parallel by-ID table of
// local-work advancers. Either table may hold nil entries for IDs that
// don't apply (an actor with no outbox slot, or one with no local work to
// run between messages); the scheduler simply skips them. advancers may be
// nil entirely for engines with no horizon-advancement needs.
func NewScheduler(bases []*Outbox, advancers []Advancer) *Scheduler {
	s := &Scheduler{
		bases:     bases,
		advancers: advancers,
		committed: make([]Time, len(bases)),
		horizon:   NewTimeQueue[ID](),
	}
	for i, adv := range advancers {
		if adv != nil {
			s.horizon.Push(Unset, ID(i))
		}
	}
	return s
}

// Committed returns the time up to which id's actor has executed.
func (s *Scheduler) Committed(id ID) Time {
	if int(id) < 0 || int(id) >= len(s.committed) {
		return Unset
	}
	return s.committed[id]
}

// GlobalCommitted returns the scheduler's global committed time: the
// latest time reached so far by any dispatch or advancement (it is only
// ever raised, never lowered to the slowest actor's committed time).
func (s *Scheduler) GlobalCommitted() Time {
	return s.globalCommitted
}

// scanOutboxes returns the ID of the actor with the earliest pending
// message, breaking ties by lowest ID, and the second-earliest time across
// every other actor or pending horizon entry (the horizon handed to
// Execute). ok is false when every outbox is empty.
func (s *Scheduler) scanOutboxes() (winner ID, horizon Time, ok bool) {
	winner = None
	best := Max
	horizon = Max

	for i, ob := range s.bases {
		if ob == nil {
			continue
		}
		t := ob.Time()
		if t == Max {
			continue
		}
		if t < best {
			if best < horizon {
				horizon = best
			}
			best = t
			winner = ID(i)
		} else if t < horizon {
			horizon = t
		}
	}

	if winner == None {
		return None, Max, false
	}
	if top, _, ok2 := s.horizon.Peek(); ok2 && top < horizon {
		horizon = top
	}
	return winner, horizon, true
}

// advanceOnce implements spec §4.5.1: pop the actor with the smallest
// horizon and let it run local work up to the next-smallest remaining
// time, updating its committed time from what it reports back. It returns
// false only when there is truly nothing left to do anywhere - no outbox
// message and no actor with local work left to run.
func (s *Scheduler) advanceOnce() bool {
	_, id, ok := s.horizon.Pop()
	if !ok {
		return false
	}
	if int(id) < 0 || int(id) >= len(s.advancers) || s.advancers[id] == nil {
		return true
	}

	limit := Max
	if top, _, ok2 := s.horizon.Peek(); ok2 {
		limit = top
	}

	reached := s.advancers[id].Advance(limit)
	if int(id) < len(s.committed) {
		s.committed[id] = reached
	}
	if reached > s.globalCommitted {
		s.globalCommitted = reached
	}

	if int(id) < len(s.bases) && s.bases[id] != nil && s.bases[id].Time() != Max {
		// Advance produced a message; the next outbox scan will find it.
		return true
	}

	if reached >= limit && s.horizon.Len() == 0 {
		// This was the only actor with local work, it ran to the end of
		// its budget, and produced nothing: no further progress exists.
		return false
	}

	s.horizon.Push(reached, id)
	return true
}

// next finds the next message to dispatch, advancing actors locally via
// advanceOnce for as long as no outbox holds a pending message.
func (s *Scheduler) next() (winner ID, horizon Time, ok bool) {
	for {
		if winner, horizon, ok = s.scanOutboxes(); ok {
			return winner, horizon, true
		}
		if !s.advanceOnce() {
			return None, Max, false
		}
	}
}

// Step delivers exactly one message: the earliest-due one across every
// actor's outbox, advancing actors locally first if every outbox is empty.
// It returns ok=false when the simulation has gone fully idle (no pending
// message anywhere and no actor left with local work to run), which the
// caller should treat as a deadlock, not graceful termination - a live
// engine always has at least the CPU actor's self-scheduled
// next-instruction work pending.
func (s *Scheduler) Step() (result SchedulerResult, ok bool) {
	winner, horizon, ok := s.next()
	if !ok {
		return SchedulerResult{}, false
	}

	t := s.bases[winner].Time()
	if int(winner) < len(s.committed) {
		s.committed[winner] = t
	}
	if t > s.globalCommitted {
		s.globalCommitted = t
	}
	s.lastDispatched = winner
	return s.bases[winner].Execute(winner, horizon), true
}

// LastDispatched returns the ID of the actor whose message the most recent
// Step call delivered. It is meaningful only after Step has returned ok=true
// at least once; callers that need per-event attribution (e.g. a trace
// recorder) read it right after each Step call.
func (s *Scheduler) LastDispatched() ID {
	return s.lastDispatched
}

// Run steps the scheduler until a handler requests exit, the simulation
// goes idle, or ctx is cancelled (e.g. the process receives SIGINT). The
// returned SchedulerResult carries the stop reason.
func (s *Scheduler) Run(ctx context.Context) SchedulerResult {
	for {
		select {
		case <-ctx.Done():
			return Exit("context cancelled: " + ctx.Err().Error())
		default:
		}

		result, ok := s.Step()
		if !ok {
			return Exit("scheduler idle: no actor has a pending message")
		}
		if result.IsExit() {
			return result
		}
	}
}
