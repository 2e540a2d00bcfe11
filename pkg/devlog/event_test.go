package devlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEventRoundTrip(t *testing.T) {
	pt := 12 * time.Millisecond
	in := Event{
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ConnectionID: "c1",
		Direction:    DirectionOut,
		Layer:        LayerWebSocket,
		Category:     CategoryMessage,
		DeviceID:     "d1",
		Action: &ActionEvent{
			Name:           "command/subscribe",
			RequestID:      7,
			Status:         "success",
			ProcessingTime: &pt,
		},
	}

	data, err := EncodeEvent(in)
	require.NoError(t, err)

	out, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, in.ConnectionID, out.ConnectionID)
	assert.Equal(t, in.Direction, out.Direction)
	assert.Equal(t, in.Layer, out.Layer)
	require.NotNil(t, out.Action)
	assert.Equal(t, in.Action.Name, out.Action.Name)
	assert.Equal(t, in.Action.RequestID, out.Action.RequestID)
	require.NotNil(t, out.Action.ProcessingTime)
	assert.Equal(t, pt, *out.Action.ProcessingTime)
}

func TestMultiLoggerFansOutToEveryLogger(t *testing.T) {
	var a, b []Event
	l1 := loggerFunc(func(e Event) { a = append(a, e) })
	l2 := loggerFunc(func(e Event) { b = append(b, e) })

	m := NewMultiLogger(l1, l2)
	m.Log(Event{ConnectionID: "x"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "x", a[0].ConnectionID)
}

func TestOrReturnsNoopForNil(t *testing.T) {
	assert.Equal(t, NoopLogger{}, Or(nil))

	called := false
	want := loggerFunc(func(Event) { called = true })
	Or(want).Log(Event{})
	assert.True(t, called)
}

type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }
