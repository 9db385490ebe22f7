package actor

// Box pairs an actor's Outbox with its domain-specific state T. Outbox is
// embedded first so every Box, regardless of T, has the same leading
// memory layout - the "outbox-first" convention storage.go's by-id lookup
// table depends on (spec §3: "the outbox is the first thing in every
// actor's storage slot").
type Box[T any] struct {
	Outbox
	State T
}

// NewBox wraps an initial state value in a Box with an empty outbox.
func NewBox[T any](state T) Box[T] {
	return Box[T]{State: state}
}

// Bases builds the O(1) by-ID outbox lookup table described in spec §3,
// from a list of (ID, *Outbox) pairs supplied in ID order by the domain's
// Storage constructor. Gaps (an ID with no actor) are left nil; callers
// must only index positions they registered.
func Bases(pairs ...BasePair) []*Outbox {
	n := 0
	for _, p := range pairs {
		if int(p.ID)+1 > n {
			n = int(p.ID) + 1
		}
	}
	bases := make([]*Outbox, n)
	for _, p := range pairs {
		bases[p.ID] = p.Outbox
	}
	return bases
}

// BasePair is one (ID, outbox pointer) entry fed to Bases.
type BasePair struct {
	ID     ID
	Outbox *Outbox
}
