package session

import (
	"sort"
	"sync"
	"time"

	"github.com/gokatarajesh/quiz-live/internal/question"
)

// Session is one run of a quiz under a shared code. All fields are guarded by
// mu; nothing outside this package ever holds a *Session.
type Session struct {
	mu sync.Mutex

	code      string
	title     string
	questions []question.Question
	createdAt time.Time

	status  Status
	phase   Phase
	current int
	// resolved is the index of the last question whose results were computed.
	resolved int

	ledger    *Ledger
	startedAt time.Time
	timeLimit time.Duration

	hostConnected bool
	players       []*Player

	// retired is set when the store replaces this instance; loops holding a
	// stale pointer use it to stop.
	retired bool
}

func newSession(code, title string, questions []question.Question, now time.Time) *Session {
	return &Session{
		code:      code,
		title:     title,
		questions: questions,
		createdAt: now,
		status:    StatusWaiting,
		phase:     PhaseIdle,
		resolved:  -1,
		ledger:    newLedger(),
		players:   make([]*Player, 0),
	}
}

func (s *Session) findLocked(name string) *Player {
	for _, p := range s.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) connectedLocked() int {
	n := 0
	for _, p := range s.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// liveLocked reports whether a loop started for question idx may keep going.
func (s *Session) liveLocked(idx int) bool {
	return !s.retired && s.status == StatusActive && s.current == idx
}

func (s *Session) snapshotLocked() Snapshot {
	players := make([]Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}
	return Snapshot{
		Code:            s.code,
		Title:           s.title,
		Status:          s.status,
		Phase:           s.phase,
		CurrentQuestion: s.current,
		TotalQuestions:  len(s.questions),
		Players:         players,
		HostConnected:   s.hostConnected,
		Answered:        s.ledger.Len(),
		StartedAt:       s.startedAt,
		TimeLimit:       s.timeLimit,
		CreatedAt:       s.createdAt,
	}
}

// standingsLocked orders players by score, ties keep join order.
func (s *Session) standingsLocked() []Standing {
	out := make([]Standing, len(s.players))
	for i, p := range s.players {
		out[i] = Standing{Name: p.Name, Score: p.Score}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Session) startLocked() error {
	if s.status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(s.players) == 0 {
		return ErrNoPlayers
	}
	s.status = StatusActive
	s.phase = PhaseIdle
	s.current = 0
	s.resolved = -1
	return nil
}

func (s *Session) showQuestionLocked() ShowQuestion {
	q := s.questions[s.current]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return ShowQuestion{
		Text:      q.Text,
		Options:   options,
		TimeLimit: q.TimeLimit,
		Ordinal:   s.current + 1,
		Total:     len(s.questions),
	}
}

func (s *Session) timeUpdateLocked(now time.Time) ServerTimeUpdate {
	return ServerTimeUpdate{
		ServerNow:    now,
		StartInstant: s.startedAt,
		TimeLimit:    int(s.timeLimit / time.Second),
	}
}
