package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// Handler manages WebSocket connections and routes session messages to the engine.
type Handler struct {
	engine   *Engine
	hub      *ws.Hub
	tokens   *jwt.Manager
	upgrader *websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a session WebSocket handler.
func NewHandler(engine *Engine, hub *ws.Hub, tokens *jwt.Manager, upgrader *websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		hub:      hub,
		tokens:   tokens,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket upgrades the request and serves the connection until it closes.
// Route: GET /ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.HandleConnection(conn)
}

// HandleConnection serves one socket. The connection is anonymous until a
// join, player_connect or host_attach binds it to a session.
func (h *Handler) HandleConnection(conn *websocket.Conn) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), wsConn, msg)
	})

	room, member, bound := h.hub.Unregister(wsConn)
	wsConn.Close()
	if !bound {
		return
	}
	cmd := DisconnectCommand{Code: room, Identity: recipientFor(member)}
	if err := h.engine.Dispatch(context.Background(), cmd); err != nil {
		h.logger.Debug().Err(err).Str("session_code", room).Msg("disconnect after session change")
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, conn *ws.Connection, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoin:
		return h.handleJoin(ctx, conn, msg.Payload)
	case ws.TypePlayerConnect:
		return h.handlePlayerConnect(ctx, conn, msg.Payload)
	case ws.TypeHostAttach:
		return h.handleHostAttach(ctx, conn, msg.Payload)
	case ws.TypeHostCommand:
		return h.handleHostCommand(ctx, conn, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, conn, msg.Payload)
	case ws.TypePing:
		return conn.Send(ws.Message{Type: ws.TypePong, Payload: json.RawMessage(`{}`), RequestID: msg.RequestID})
	default:
		return h.sendError(conn, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoin(ctx context.Context, conn *ws.Connection, payload json.RawMessage) error {
	var req ws.JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid join payload")
	}

	if _, _, bound := h.hub.Binding(conn); bound {
		return h.sendError(conn, httperrors.ErrCodeAlreadyBound, "Connection already belongs to a session")
	}

	code := NormalizeCode(req.Code)
	if err := h.engine.Dispatch(ctx, JoinCommand{Code: code, PlayerName: req.PlayerName}); err != nil {
		return h.sendEngineError(conn, err)
	}

	// The roster broadcast went out before this socket was bound, so the
	// joiner gets its own copy.
	name := trimName(req.PlayerName)
	h.hub.Bind(conn, code, ws.Member{Role: ws.RolePlayer, Name: name})
	snap, err := h.engine.Get(code)
	if err != nil {
		return h.sendEngineError(conn, err)
	}
	return h.sendEvent(conn, PlayerJoined{Player: name, Players: snap.Players})
}

func (h *Handler) handlePlayerConnect(ctx context.Context, conn *ws.Connection, payload json.RawMessage) error {
	var req ws.PlayerConnectPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid player_connect payload")
	}

	// Bind first so the replay of an open question reaches this socket.
	code := NormalizeCode(req.Code)
	name := trimName(req.PlayerName)
	member := ws.Member{Role: ws.RolePlayer, Name: name}
	if h.boundElsewhere(conn, code, member) {
		return h.sendError(conn, httperrors.ErrCodeAlreadyBound, "Connection already belongs to a session")
	}
	h.hub.Bind(conn, code, member)
	if err := h.engine.Dispatch(ctx, ConnectCommand{Code: code, PlayerName: name}); err != nil {
		h.hub.Unbind(conn)
		return h.sendEngineError(conn, err)
	}
	return nil
}

func (h *Handler) handleHostAttach(ctx context.Context, conn *ws.Connection, payload json.RawMessage) error {
	var req ws.HostAttachPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid host_attach payload")
	}

	code := NormalizeCode(req.Code)
	if _, err := h.tokens.ValidateHostToken(req.HostToken, code); err != nil {
		h.logger.Warn().Err(err).Str("session_code", code).Msg("host token rejected")
		return h.sendError(conn, httperrors.ErrCodeInvalidToken, "Invalid host token")
	}

	if h.boundElsewhere(conn, code, ws.Member{Role: ws.RoleHost}) {
		return h.sendError(conn, httperrors.ErrCodeAlreadyBound, "Connection already belongs to a session")
	}
	h.hub.Bind(conn, code, ws.Member{Role: ws.RoleHost})
	if err := h.engine.Dispatch(ctx, HostAttachCommand{Code: code}); err != nil {
		h.hub.Unbind(conn)
		return h.sendEngineError(conn, err)
	}
	return nil
}

func (h *Handler) handleHostCommand(ctx context.Context, conn *ws.Connection, payload json.RawMessage) error {
	var req ws.HostCommandPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid host_command payload")
	}

	room, member, bound := h.hub.Binding(conn)
	if !bound || member.Role != ws.RoleHost || (req.Code != "" && NormalizeCode(req.Code) != room) {
		return h.sendError(conn, httperrors.ErrCodeNotAttached, "Attach as host before sending commands")
	}

	kind, err := ParseHostCommand(req.Kind)
	if err != nil {
		return h.sendEngineError(conn, err)
	}
	if err := h.engine.Dispatch(ctx, HostCommand{Code: room, Kind: kind}); err != nil {
		return h.sendEngineError(conn, err)
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, conn *ws.Connection, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.OptionIndex == nil {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}

	room, member, bound := h.hub.Binding(conn)
	if !bound || member.Role != ws.RolePlayer {
		return h.sendError(conn, httperrors.ErrCodeNotAttached, "Join the session before answering")
	}
	if (req.Code != "" && NormalizeCode(req.Code) != room) || (req.PlayerName != "" && trimName(req.PlayerName) != member.Name) {
		return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Answer does not match this connection")
	}

	err := h.engine.Dispatch(ctx, SubmitAnswerCommand{
		Code:           room,
		PlayerName:     member.Name,
		Option:         *req.OptionIndex,
		ClientTimeLeft: req.TimeLeft,
	})
	if err != nil && !IsExpectedRace(err) {
		return h.sendEngineError(conn, err)
	}
	return nil
}

// boundElsewhere reports whether conn already speaks for a different member
// or session. Re-attaching as the same member is allowed.
func (h *Handler) boundElsewhere(conn *ws.Connection, code string, member ws.Member) bool {
	room, current, bound := h.hub.Binding(conn)
	return bound && (room != code || current != member)
}

func (h *Handler) sendEngineError(conn *ws.Connection, err error) error {
	return h.sendError(conn, ErrorCode(err), err.Error())
}

func (h *Handler) sendError(conn *ws.Connection, code, message string) error {
	return h.sendEvent(conn, ErrorEvent{Code: code, Message: message})
}

func (h *Handler) sendEvent(conn *ws.Connection, evt Event) error {
	msg, err := EncodeEvent(evt)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}
