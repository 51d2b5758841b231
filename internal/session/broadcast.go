package session

import (
	"fmt"

	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// HubBroadcaster delivers engine events over the WebSocket hub, one room per
// session code.
type HubBroadcaster struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewHubBroadcaster wraps hub.
func NewHubBroadcaster(hub *ws.Hub, logger zerolog.Logger) *HubBroadcaster {
	return &HubBroadcaster{
		hub:    hub,
		logger: logger.With().Str("component", "session_broadcast").Logger(),
	}
}

func (b *HubBroadcaster) Broadcast(code string, evt Event) {
	msg, err := EncodeEvent(evt)
	if err != nil {
		b.logger.Error().Err(err).Str("session_code", code).Msg("encode event")
		return
	}
	b.hub.Broadcast(code, msg)
}

func (b *HubBroadcaster) Send(code string, to Recipient, evt Event) {
	msg, err := EncodeEvent(evt)
	if err != nil {
		b.logger.Error().Err(err).Str("session_code", code).Msg("encode event")
		return
	}
	if err := b.hub.SendTo(code, memberFor(to), msg); err != nil {
		b.logger.Debug().Err(err).
			Str("session_code", code).
			Str("event", string(evt.Kind())).
			Str("player", to.Player).
			Bool("host", to.Host).
			Msg("unicast dropped")
	}
}

func memberFor(to Recipient) ws.Member {
	if to.Host {
		return ws.Member{Role: ws.RoleHost}
	}
	return ws.Member{Role: ws.RolePlayer, Name: to.Player}
}

func recipientFor(m ws.Member) Recipient {
	if m.Role == ws.RoleHost {
		return HostRecipient
	}
	return PlayerRecipient(m.Name)
}

// EncodeEvent converts an event into its wire message.
func EncodeEvent(evt Event) (ws.Message, error) {
	var payload interface{}
	switch e := evt.(type) {
	case ServerTimeUpdate:
		payload = ws.NewServerTimeUpdate(e.ServerNow, e.StartInstant, e.TimeLimit)
	case ErrorEvent:
		payload = ws.ErrorPayload{Code: e.Code, Message: e.Message}
	case Connected, PlayerJoined, PlayerLeft, GameStarted, ShowQuestion,
		QuestionEnded, AnswerReceived, QuestionStatsUpdate, ShowResults,
		AutoNextCountdown, GameOver, GameEnded:
		payload = e
	default:
		return ws.Message{}, fmt.Errorf("unknown event %T", evt)
	}
	return ws.NewMessage(string(evt.Kind()), payload)
}
