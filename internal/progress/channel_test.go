package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelDeliversInOrder(t *testing.T) {
	t.Parallel()

	ch := NewChannel(8, nil)
	ch.Push(Preparing("first"))
	ch.Push(Preparing("second"))
	ch.Push(Finished("out.mp4"))

	require.Equal(t, "first", ch.Receive(time.Second).Message)
	require.Equal(t, "second", ch.Receive(time.Second).Message)

	last := ch.Receive(time.Second)
	require.Equal(t, StatusFinished, last.Status)
	require.True(t, last.Terminal())
}

func TestChannelHeartbeatOnIdle(t *testing.T) {
	t.Parallel()

	ch := NewChannel(8, nil)
	evt := ch.Receive(10 * time.Millisecond)
	require.True(t, evt.KeepAlive)
	require.False(t, evt.Terminal())
	require.Empty(t, evt.Status)
}

func TestChannelDropsNonTerminalWhenFull(t *testing.T) {
	t.Parallel()

	ch := NewChannel(2, nil)
	ch.Push(Preparing("a"))
	ch.Push(Preparing("b"))
	ch.Push(Preparing("c")) // buffer full, dropped

	require.Equal(t, "a", ch.Receive(time.Second).Message)
	require.Equal(t, "b", ch.Receive(time.Second).Message)
	require.True(t, ch.Receive(10*time.Millisecond).KeepAlive)
}

func TestChannelTerminalEvictsOldest(t *testing.T) {
	t.Parallel()

	ch := NewChannel(2, nil)
	ch.Push(Preparing("a"))
	ch.Push(Preparing("b"))
	ch.Push(Errorf("boom")) // evicts "a" to make room

	require.Equal(t, "b", ch.Receive(time.Second).Message)

	last := ch.Receive(time.Second)
	require.Equal(t, StatusError, last.Status)
	require.Equal(t, "boom", last.Message)
}

func TestChannelResetDiscardsBacklog(t *testing.T) {
	t.Parallel()

	ch := NewChannel(8, nil)
	ch.Push(Preparing("stale"))
	ch.Push(Finished("old.mp4"))

	ch.Reset()
	ch.Reset() // idempotent

	ch.Push(Preparing("fresh"))
	require.Equal(t, "fresh", ch.Receive(time.Second).Message)
}
