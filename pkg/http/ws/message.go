package ws

import (
	"encoding/json"
	"time"
)

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeJoin          = "join"
	TypePlayerConnect = "player_connect"
	TypeHostAttach    = "host_attach"
	TypeHostCommand   = "host_command"
	TypeSubmitAnswer  = "submit_answer"
	TypePing          = "ping"

	// Server -> Client
	TypeError = "error"
	TypePong  = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload under msgType.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Client Messages (incoming)

type JoinPayload struct {
	Code       string `json:"code"`
	PlayerName string `json:"player_name"`
}

type PlayerConnectPayload struct {
	Code       string `json:"code"`
	PlayerName string `json:"player_name"`
}

type HostAttachPayload struct {
	Code      string `json:"code"`
	HostToken string `json:"host_token"`
}

type HostCommandPayload struct {
	Code string `json:"code"`
	Kind string `json:"kind"`
}

type SubmitAnswerPayload struct {
	Code        string  `json:"code"`
	PlayerName  string  `json:"player_name"`
	OptionIndex *int    `json:"option_index"`
	TimeLeft    float64 `json:"time_left"`
}

// Server Messages (outgoing)

// ServerTimeUpdatePayload carries the authoritative clock as Unix milliseconds.
type ServerTimeUpdatePayload struct {
	ServerNow    int64 `json:"server_now"`
	TimeLimit    int   `json:"time_limit"`
	StartInstant int64 `json:"start_instant"`
}

// NewServerTimeUpdate converts clock values to the wire form.
func NewServerTimeUpdate(now, start time.Time, limitSeconds int) ServerTimeUpdatePayload {
	return ServerTimeUpdatePayload{
		ServerNow:    now.UnixMilli(),
		TimeLimit:    limitSeconds,
		StartInstant: start.UnixMilli(),
	}
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
