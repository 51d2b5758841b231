package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(h *Hub) *Connection {
	c := NewConnection(nil, zerolog.Nop())
	h.Register(c)
	return c
}

func drain(c *Connection) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-c.sendCh:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_BroadcastAndSendTo(t *testing.T) {
	h := NewHub(zerolog.Nop())
	host := newTestConn(h)
	alice := newTestConn(h)
	bob := newTestConn(h)
	other := newTestConn(h)

	h.Bind(host, "ABC123", Member{Role: RoleHost})
	h.Bind(alice, "ABC123", Member{Role: RolePlayer, Name: "alice"})
	h.Bind(bob, "ABC123", Member{Role: RolePlayer, Name: "bob"})
	h.Bind(other, "ZZZ999", Member{Role: RolePlayer, Name: "alice"})
	assert.Equal(t, 3, h.RoomSize("ABC123"))

	msg := Message{Type: "game_started", Payload: json.RawMessage(`{}`)}
	assert.Equal(t, 3, h.Broadcast("ABC123", msg))
	assert.Len(t, drain(host), 1)
	assert.Len(t, drain(alice), 1)
	assert.Empty(t, drain(other))

	require.NoError(t, h.SendTo("ABC123", Member{Role: RolePlayer, Name: "bob"}, msg))
	assert.Len(t, drain(bob), 2)
	assert.Empty(t, drain(alice))

	err := h.SendTo("ABC123", Member{Role: RolePlayer, Name: "carol"}, msg)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestHub_BindReplacesSameMember(t *testing.T) {
	h := NewHub(zerolog.Nop())
	first := newTestConn(h)
	second := newTestConn(h)
	member := Member{Role: RolePlayer, Name: "alice"}

	h.Bind(first, "ABC123", member)
	h.Bind(second, "ABC123", member)
	assert.Equal(t, 1, h.RoomSize("ABC123"))
	assert.ErrorIs(t, first.Send(Message{Type: "x"}), ErrConnectionClosed)

	msg := Message{Type: "show_question"}
	assert.Equal(t, 1, h.Broadcast("ABC123", msg))
	require.NoError(t, h.SendTo("ABC123", member, msg))
	assert.Len(t, drain(second), 2)

	// the replaced connection no longer speaks for alice
	_, _, bound := h.Unregister(first)
	assert.False(t, bound)

	room, got, bound := h.Unregister(second)
	assert.True(t, bound)
	assert.Equal(t, "ABC123", room)
	assert.Equal(t, member, got)
	assert.Zero(t, h.RoomSize("ABC123"))
}

func TestHub_RebindMovesRooms(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := newTestConn(h)

	h.Bind(c, "ROOM01", Member{Role: RolePlayer, Name: "alice"})
	h.Bind(c, "ROOM02", Member{Role: RolePlayer, Name: "alice"})

	assert.Zero(t, h.RoomSize("ROOM01"))
	assert.Equal(t, 1, h.RoomSize("ROOM02"))
	room, _, ok := h.Binding(c)
	assert.True(t, ok)
	assert.Equal(t, "ROOM02", room)
}

func TestConnection_SendQueueFull(t *testing.T) {
	c := NewConnection(nil, zerolog.Nop())
	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, c.Send(Message{Type: "tick"}))
	}
	assert.ErrorIs(t, c.Send(Message{Type: "tick"}), ErrSendQueueFull)

	c.Close()
	assert.ErrorIs(t, c.Send(Message{Type: "tick"}), ErrConnectionClosed)
}

func TestNewServerTimeUpdate(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	p := NewServerTimeUpdate(start.Add(1500*time.Millisecond), start, 30)
	assert.Equal(t, start.UnixMilli()+1500, p.ServerNow)
	assert.Equal(t, start.UnixMilli(), p.StartInstant)
	assert.Equal(t, 30, p.TimeLimit)
}

func TestHub_HostReconnectWithEmptyRoom(t *testing.T) {
	h := NewHub(zerolog.Nop())
	first := newTestConn(h)
	second := newTestConn(h)

	h.Bind(first, "ABC123", Member{Role: RoleHost})
	h.Bind(second, "ABC123", Member{Role: RoleHost})

	require.Equal(t, 1, h.RoomSize("ABC123"))
	require.NoError(t, h.SendTo("ABC123", Member{Role: RoleHost}, Message{Type: "connected"}))
	assert.Equal(t, 1, h.Broadcast("ABC123", Message{Type: "player_joined"}))
	assert.Len(t, drain(second), 2)
}
