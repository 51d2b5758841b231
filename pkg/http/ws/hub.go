package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Member roles inside a room.
const (
	RoleHost   = "host"
	RolePlayer = "player"
)

// Member identifies who a connection speaks for inside a room.
type Member struct {
	Role string
	Name string
}

// Hub manages WebSocket connections and fans messages out per room.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection            // conn_id -> connection
	rooms       map[string]map[uuid.UUID]*Connection // room -> conn_id -> connection
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string]map[uuid.UUID]*Connection),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register tracks a fresh, unbound connection.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn.id] = conn
	h.logger.Debug().Str("conn_id", conn.id.String()).Msg("connection registered")
}

// Unregister forgets conn. It returns the room and member conn was bound to;
// bound is false when conn was never bound or was replaced by a newer
// connection for the same member.
func (h *Hub) Unregister(conn *Connection) (room string, member Member, bound bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.connections, conn.id)
	room, member = conn.room, conn.member
	if room == "" {
		return "", Member{}, false
	}
	h.unbindLocked(conn)
	h.logger.Debug().
		Str("conn_id", conn.id.String()).
		Str("room", room).
		Str("role", member.Role).
		Str("name", member.Name).
		Msg("connection unregistered")
	return room, member, true
}

// Unbind detaches conn from its room without forgetting it.
func (h *Hub) Unbind(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.room != "" {
		h.unbindLocked(conn)
	}
}

// Bind attaches conn to room as member. A previous connection for the same
// member is detached and closed.
func (h *Hub) Bind(conn *Connection, room string, member Member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.room != "" {
		h.unbindLocked(conn)
	}

	peers := h.rooms[room]
	if peers == nil {
		peers = make(map[uuid.UUID]*Connection)
		h.rooms[room] = peers
	}
	for id, other := range peers {
		if other.member == member {
			// Evict in place; unbindLocked would drop the room once it empties.
			delete(peers, id)
			other.room, other.member = "", Member{}
			other.Close()
			h.logger.Info().
				Str("conn_id", id.String()).
				Str("room", room).
				Str("name", member.Name).
				Msg("connection replaced")
		}
	}

	conn.room, conn.member = room, member
	peers[conn.id] = conn
}

func (h *Hub) unbindLocked(conn *Connection) {
	if peers, ok := h.rooms[conn.room]; ok {
		delete(peers, conn.id)
		if len(peers) == 0 {
			delete(h.rooms, conn.room)
		}
	}
	conn.room, conn.member = "", Member{}
}

// Broadcast queues msg on every connection in room. Full queues drop the
// message for that connection only. It returns how many queues accepted it.
func (h *Hub) Broadcast(room string, msg Message) int {
	h.mu.RLock()
	peers := make([]*Connection, 0, len(h.rooms[room]))
	for _, conn := range h.rooms[room] {
		peers = append(peers, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range peers {
		if err := conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("conn_id", conn.id.String()).Str("room", room).Msg("broadcast send failed")
			continue
		}
		delivered++
	}
	return delivered
}

// SendTo delivers msg to the connection bound as member in room.
func (h *Hub) SendTo(room string, member Member, msg Message) error {
	h.mu.RLock()
	var target *Connection
	for _, conn := range h.rooms[room] {
		if conn.member == member {
			target = conn
			break
		}
	}
	h.mu.RUnlock()

	if target == nil {
		return ErrConnectionNotFound
	}
	return target.Send(msg)
}

// RoomSize returns the number of connections bound to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Binding reports the room and member conn is currently bound to.
func (h *Hub) Binding(conn *Connection) (string, Member, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.room, conn.member, conn.room != ""
}

const (
	sendQueueSize = 256
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger

	// room and member are guarded by the hub's mutex.
	room   string
	member Member
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan Message, sendQueueSize),
		logger: logger.With().Str("conn_id", id.String()).Logger(),
	}
}

// ID returns the connection identifier.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// WritePump sends messages from the send queue and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Member connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
