package actor

import (
	"fmt"
	"reflect"
)

// Message is the sealed interface for actor payloads. It is sealed by the
// unexported messageMarker method: types satisfy it only by embedding
// BaseMessage (or living in this package), mirroring the sealed-interface
// convention used throughout this codebase's service layers.
type Message interface {
	messageMarker()
}

// BaseMessage is embedded in every concrete message type to satisfy the
// sealed Message interface.
type BaseMessage struct{}

func (BaseMessage) messageMarker() {}

// kindTag returns a stable runtime type tag for M, used by Outbox to
// implement Contains/Cancel's type check without reintroducing generics at
// the storage layer.
func kindTag[M any]() string {
	return reflect.TypeOf((*M)(nil)).Elem().String()
}

// execFunc is what an Outbox actually stores once a message has been sent:
// a closure that, given the sending actor's ID and the horizon the
// scheduler is willing to grant, delivers the held message and returns
// control to the scheduler. It plays the role of the Rust implementation's
// execute function pointer, but as an ordinary Go closure rather than a
// raw fn pointer plus an out-of-line vtable.
type execFunc func(senderID ID, horizon Time) SchedulerResult

// Outbox is a single-slot mailbox: at most one pending outgoing message.
// Every Actor owns exactly one, placed first in its storage slot so the
// scheduler can treat any actor's outbox as a uniform header (spec §3/§4.2).
type Outbox struct {
	time    Time
	kind    string
	exec    execFunc
	payload any
}

// IsEmpty reports whether the outbox currently holds no pending message.
func (o *Outbox) IsEmpty() bool {
	return o.exec == nil
}

// Time returns the pending message's scheduled delivery time, or Max if the
// outbox is empty.
func (o *Outbox) Time() Time {
	if o.IsEmpty() {
		return Max
	}
	return o.time
}

// Kind returns the runtime type tag of the pending message, or "" if empty.
func (o *Outbox) Kind() string {
	return o.kind
}

func (o *Outbox) clear() {
	o.time = Max
	o.kind = ""
	o.exec = nil
	o.payload = nil
}

// Execute is called by the scheduler to deliver the pending message. It
// panics if the outbox is empty; the scheduler never calls Execute on an
// outbox it hasn't already found to be non-empty.
func (o *Outbox) Execute(senderID ID, horizon Time) SchedulerResult {
	if o.IsEmpty() {
		panic("actor: Outbox.Execute called on an empty outbox")
	}
	return o.exec(senderID, horizon)
}

// Channel is a value naming (receiver, message type), with the receiver's
// identity baked in at construction time via the recv closure. Building a
// Channel once and reusing it for many Send calls is the static-dispatch
// path described in spec §4.3/§9.
type Channel[M Message] struct {
	recv func(msg M, senderID ID, sentAt, horizon Time) SchedulerResult
}

// NewChannel builds a Channel whose receiver logic is recv. Callers
// typically construct these once, in an actor's constructor, closing over
// the concrete *Storage so recv can reach the receiver's state and outbox
// directly.
func NewChannel[M Message](recv func(msg M, senderID ID, sentAt, horizon Time) SchedulerResult) Channel[M] {
	return Channel[M]{recv: recv}
}

// Endpoint names a message type whose receiver is resolved dynamically, at
// delivery time, from an ID carried alongside the send. This is the one
// level of indirection spec §4.3/§9 describes for cases where the sender
// can't know the concrete receiver type until the message is actually sent
// (e.g. the bus broker granting to "whichever client is heap-top").
type Endpoint[M Message] struct {
	dispatch func(receiver ID, msg M, senderID ID, sentAt, horizon Time) SchedulerResult
}

// NewEndpoint builds an Endpoint whose dispatch function routes to the
// concrete receiver named by the ID passed to SendEndpoint.
func NewEndpoint[M Message](dispatch func(receiver ID, msg M, senderID ID, sentAt, horizon Time) SchedulerResult) Endpoint[M] {
	return Endpoint[M]{dispatch: dispatch}
}

// Send places msg in ob, scheduled for delivery at t, with receive as the
// statically-resolved receiver logic. It panics if ob is already holding a
// message (spec §3 Outbox invariant, testable property 2). delivered, if
// non-nil, is invoked with the message's send time once it has been
// handed off - the "deliver" hook of spec §4.4 step 3.
func Send[M Message](ob *Outbox, t Time, msg M,
	receive func(msg M, senderID ID, sentAt, horizon Time) SchedulerResult,
	delivered func(Time)) {

	if !ob.IsEmpty() {
		panic(fmt.Sprintf(
			"actor: Outbox.Send: outbox already holds a pending %s message at %s",
			ob.kind, ob.time))
	}

	ob.time = t
	ob.kind = kindTag[M]()
	ob.payload = msg
	ob.exec = func(senderID ID, horizon Time) SchedulerResult {
		m := ob.payload.(M)
		sentAt := ob.time
		ob.clear()

		result := receive(m, senderID, sentAt, horizon)
		if delivered != nil {
			delivered(sentAt)
		}
		return result
	}
}

// SendChannel sends msg using a precomputed Channel.
func SendChannel[M Message](ob *Outbox, ch Channel[M], t Time, msg M, delivered func(Time)) {
	Send(ob, t, msg, ch.recv, delivered)
}

// SendEndpoint sends msg to be dynamically routed to receiver via ep.
func SendEndpoint[M Message](ob *Outbox, ep Endpoint[M], receiver ID, t Time, msg M, delivered func(Time)) {
	Send(ob, t, msg, func(m M, senderID ID, sentAt, horizon Time) SchedulerResult {
		return ep.dispatch(receiver, m, senderID, sentAt, horizon)
	}, delivered)
}

// Cancel removes and returns the pending message, which must be of type M.
// A type mismatch panics naming both the expected and actual kinds
// (testable property 3).
func Cancel[M Message](ob *Outbox) (Time, M) {
	want := kindTag[M]()
	if ob.IsEmpty() || ob.kind != want {
		got := ob.kind
		if got == "" {
			got = "<empty>"
		}
		panic(fmt.Sprintf(
			"actor: Outbox.Cancel: expected %s but found %s", want, got))
	}

	t := ob.time
	m := ob.payload.(M)
	ob.clear()
	return t, m
}

// Contains reports whether the outbox currently holds a message of type M.
func Contains[M Message](ob *Outbox) bool {
	return !ob.IsEmpty() && ob.kind == kindTag[M]()
}
