package session

import "time"

// EventKind names an outbound event on the wire.
type EventKind string

// Outbound event kinds.
const (
	KindConnected           EventKind = "connected"
	KindPlayerJoined        EventKind = "player_joined"
	KindPlayerLeft          EventKind = "player_left"
	KindGameStarted         EventKind = "game_started"
	KindShowQuestion        EventKind = "show_question"
	KindServerTimeUpdate    EventKind = "server_time_update"
	KindQuestionEnded       EventKind = "question_ended"
	KindAnswerReceived      EventKind = "answer_received"
	KindQuestionStatsUpdate EventKind = "question_stats_update"
	KindShowResults         EventKind = "show_results"
	KindAutoNextCountdown   EventKind = "auto_next_countdown"
	KindGameOver            EventKind = "game_over"
	KindGameEnded           EventKind = "game_ended"
	KindError               EventKind = "error"
)

// Event is the closed set of outbound events. Only types in this file
// implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

// Connected acknowledges a host attach.
type Connected struct {
	Code string `json:"code"`
}

// PlayerJoined announces a roster change caused by a join or reconnect.
type PlayerJoined struct {
	Player  string   `json:"player"`
	Players []Player `json:"players"`
}

// PlayerLeft announces a player disconnect.
type PlayerLeft struct {
	Player  string   `json:"player"`
	Players []Player `json:"players"`
}

// GameStarted is sent once when the host starts the session.
type GameStarted struct {
	Title          string `json:"title"`
	TotalQuestions int    `json:"total_questions"`
}

// ShowQuestion carries the question content. The correct index is withheld.
type ShowQuestion struct {
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"time_limit"`
	Ordinal   int      `json:"ordinal"`
	Total     int      `json:"total"`
}

// ServerTimeUpdate is the authoritative clock. Clients compute
// remaining = TimeLimit - (ServerNow - StartInstant).
type ServerTimeUpdate struct {
	ServerNow    time.Time `json:"server_now"`
	StartInstant time.Time `json:"start_instant"`
	TimeLimit    int       `json:"time_limit"`
}

// Remaining is the time left as seen by the server at ServerNow.
func (e ServerTimeUpdate) Remaining() time.Duration {
	left := time.Duration(e.TimeLimit)*time.Second - e.ServerNow.Sub(e.StartInstant)
	if left < 0 {
		return 0
	}
	return left
}

// QuestionEnded marks the end of the answer window.
type QuestionEnded struct {
	Ordinal int `json:"ordinal"`
}

// AnswerReceived acknowledges an accepted answer to its sender.
type AnswerReceived struct {
	Ordinal int `json:"ordinal"`
	Option  int `json:"option"`
}

// QuestionStatsUpdate is the live "answered of connected" counter.
type QuestionStatsUpdate struct {
	Answered       int `json:"answered"`
	ConnectedTotal int `json:"connected_total"`
}

// ShowResults publishes a resolved question.
type ShowResults struct {
	Results
}

// AutoNextCountdown ticks down to the next question.
type AutoNextCountdown struct {
	SecondsLeft int `json:"seconds_left"`
}

// GameOver carries the final standings.
type GameOver struct {
	FinalStandings []Standing `json:"final_standings"`
}

// GameEnded is sent when the host terminates the game.
type GameEnded struct{}

// ErrorEvent reports a failed command to the caller that issued it.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Connected) Kind() EventKind           { return KindConnected }
func (PlayerJoined) Kind() EventKind        { return KindPlayerJoined }
func (PlayerLeft) Kind() EventKind          { return KindPlayerLeft }
func (GameStarted) Kind() EventKind         { return KindGameStarted }
func (ShowQuestion) Kind() EventKind        { return KindShowQuestion }
func (ServerTimeUpdate) Kind() EventKind    { return KindServerTimeUpdate }
func (QuestionEnded) Kind() EventKind       { return KindQuestionEnded }
func (AnswerReceived) Kind() EventKind      { return KindAnswerReceived }
func (QuestionStatsUpdate) Kind() EventKind { return KindQuestionStatsUpdate }
func (ShowResults) Kind() EventKind         { return KindShowResults }
func (AutoNextCountdown) Kind() EventKind   { return KindAutoNextCountdown }
func (GameOver) Kind() EventKind            { return KindGameOver }
func (GameEnded) Kind() EventKind           { return KindGameEnded }
func (ErrorEvent) Kind() EventKind          { return KindError }

func (Connected) isEvent()           {}
func (PlayerJoined) isEvent()        {}
func (PlayerLeft) isEvent()          {}
func (GameStarted) isEvent()         {}
func (ShowQuestion) isEvent()        {}
func (ServerTimeUpdate) isEvent()    {}
func (QuestionEnded) isEvent()       {}
func (AnswerReceived) isEvent()      {}
func (QuestionStatsUpdate) isEvent() {}
func (ShowResults) isEvent()         {}
func (AutoNextCountdown) isEvent()   {}
func (GameOver) isEvent()            {}
func (GameEnded) isEvent()           {}
func (ErrorEvent) isEvent()          {}

// Recipient identifies one participant of a session for unicast delivery.
type Recipient struct {
	Host   bool
	Player string
}

// HostRecipient addresses the session host.
var HostRecipient = Recipient{Host: true}

// PlayerRecipient addresses a player by name.
func PlayerRecipient(name string) Recipient {
	return Recipient{Player: name}
}

// Broadcaster delivers events to the participants of a session. Calls must
// not block; the engine never holds a session lock while calling it.
type Broadcaster interface {
	Broadcast(code string, evt Event)
	Send(code string, to Recipient, evt Event)
}
