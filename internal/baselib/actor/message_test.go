package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type pingMsg struct {
	BaseMessage
	N int
}

type pongMsg struct {
	BaseMessage
	N int
}

func TestOutboxEmptyReportsMaxTime(t *testing.T) {
	var ob Outbox
	require.True(t, ob.IsEmpty())
	require.Equal(t, Max, ob.Time())
	require.Equal(t, "", ob.Kind())
}

func TestOutboxSendThenExecuteDeliversAndClears(t *testing.T) {
	var ob Outbox

	var received int
	var deliveredAt Time
	ch := NewChannel[pingMsg](func(msg pingMsg, senderID ID, sentAt, horizon Time) SchedulerResult {
		received = msg.N
		return OK
	})

	SendChannel(&ob, ch, Time(10), pingMsg{N: 7}, func(t Time) {
		deliveredAt = t
	})

	require.False(t, ob.IsEmpty())
	require.Equal(t, Time(10), ob.Time())
	require.True(t, Contains[pingMsg](&ob))
	require.False(t, Contains[pongMsg](&ob))

	result := ob.Execute(ID(3), Time(20))
	require.False(t, result.IsExit())
	require.Equal(t, 7, received)
	require.Equal(t, Time(10), deliveredAt)
	require.True(t, ob.IsEmpty())
}

func TestOutboxSendIntoPendingOutboxPanics(t *testing.T) {
	var ob Outbox
	ch := NewChannel[pingMsg](func(pingMsg, ID, Time, Time) SchedulerResult { return OK })

	SendChannel(&ob, ch, Time(1), pingMsg{N: 1}, nil)

	require.Panics(t, func() {
		SendChannel(&ob, ch, Time(2), pingMsg{N: 2}, nil)
	})
}

func TestOutboxCancelReturnsMessage(t *testing.T) {
	var ob Outbox
	ch := NewChannel[pingMsg](func(pingMsg, ID, Time, Time) SchedulerResult { return OK })
	SendChannel(&ob, ch, Time(5), pingMsg{N: 42}, nil)

	tm, msg := Cancel[pingMsg](&ob)
	require.Equal(t, Time(5), tm)
	require.Equal(t, 42, msg.N)
	require.True(t, ob.IsEmpty())
}

func TestOutboxCancelWrongTypePanicsWithDiagnostic(t *testing.T) {
	var ob Outbox
	ch := NewChannel[pingMsg](func(pingMsg, ID, Time, Time) SchedulerResult { return OK })
	SendChannel(&ob, ch, Time(5), pingMsg{N: 1}, nil)

	require.PanicsWithValue(t,
		"actor: Outbox.Cancel: expected actor.pongMsg but found actor.pingMsg",
		func() { Cancel[pongMsg](&ob) })
}

func TestOutboxCancelOnEmptyPanics(t *testing.T) {
	var ob Outbox
	require.Panics(t, func() { Cancel[pingMsg](&ob) })
}

func TestOutboxExecuteOnEmptyPanics(t *testing.T) {
	var ob Outbox
	require.Panics(t, func() { ob.Execute(ID(0), Max) })
}

func TestSendEndpointDispatchesByReceiverID(t *testing.T) {
	var ob Outbox
	var routedTo ID

	ep := NewEndpoint[pingMsg](func(receiver ID, msg pingMsg, senderID ID, sentAt, horizon Time) SchedulerResult {
		routedTo = receiver
		return OK
	})

	SendEndpoint(&ob, ep, ID(9), Time(1), pingMsg{N: 1}, nil)
	ob.Execute(ID(0), Max)

	require.Equal(t, ID(9), routedTo)
}
