package ws

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	writes   [][]byte
	writeErr error
	closed   int
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("payload reaches every connection", func(t *testing.T) {
		hub := NewHub(testLogger())
		conns := []*fakeConn{{}, {}, {}}
		for _, c := range conns {
			hub.Register(c)
		}

		hub.Broadcast([]byte("update"))

		for _, c := range conns {
			require.Len(t, c.writes, 1)
			assert.Equal(t, []byte("update"), c.writes[0])
		}
	})

	t.Run("failing connection is pruned and closed", func(t *testing.T) {
		hub := NewHub(testLogger())
		healthy := &fakeConn{}
		broken := &fakeConn{writeErr: errors.New("broken pipe")}
		hub.Register(healthy)
		hub.Register(broken)

		hub.Broadcast([]byte("first"))

		assert.Equal(t, 1, hub.Count())
		assert.Equal(t, 1, broken.closed)

		// Subsequent broadcasts only go to the survivor
		hub.Broadcast([]byte("second"))
		assert.Len(t, healthy.writes, 2)
	})

	t.Run("broadcast with no connections is a no-op", func(t *testing.T) {
		hub := NewHub(testLogger())
		hub.Broadcast([]byte("into the void"))
		assert.Equal(t, 0, hub.Count())
	})
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(testLogger())
	conn := &fakeConn{}
	hub.Register(conn)
	require.Equal(t, 1, hub.Count())

	hub.Unregister(conn)
	assert.Equal(t, 0, hub.Count())

	// Unregistering again is a no-op
	hub.Unregister(conn)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_UnregisterAfterPrune(t *testing.T) {
	hub := NewHub(testLogger())
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	hub.Register(broken)

	hub.Broadcast([]byte("payload"))
	require.Equal(t, 0, hub.Count())

	// The read loop unregisters the same connection after the broadcast
	// already pruned it
	hub.Unregister(broken)
	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 1, broken.closed)
}
