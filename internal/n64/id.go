// Package n64 implements the N64 core named in spec: the actor storage,
// scheduler wiring, bus arbitration, and peripheral stubs that sit on top
// of the domain-agnostic internal/baselib/actor framework.
package n64

import "github.com/phire/bus-mu-sub000/internal/baselib/actor"

// Actor IDs. Dense and zero-based so they double as indices into Storage's
// by-ID outbox table.
const (
	CPU actor.ID = iota
	Bus
	AI
	VI
	PI
	RI
	SI
	PIF
	RSP
	RDP

	actorCount
)

func init() {
	actor.RegisterNames([]string{
		CPU: "cpu",
		Bus: "bus",
		AI:  "ai",
		VI:  "vi",
		PI:  "pi",
		RI:  "ri",
		SI:  "si",
		PIF: "pif",
		RSP: "rsp",
		RDP: "rdp",
	})
}
