package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-live/internal/question"
)

// Status is the session-level lifecycle state.
type Status string

// Session lifecycle states.
const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Phase tells whether the current question accepts answers.
type Phase string

// Question phases while a session is active.
const (
	PhaseIdle   Phase = "idle"
	PhaseActive Phase = "active"
)

// JoinResult distinguishes a brand new player from a re-association.
type JoinResult string

// Join outcomes.
const (
	Joined   JoinResult = "joined"
	Rejoined JoinResult = "rejoined"
)

// NoAnswer marks a player without a ledger entry.
const NoAnswer = -1

// Player is a participant of one session.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Connected bool      `json:"connected"`
	// LastAnswer and LastTimeLeft are kept for display only.
	LastAnswer   int       `json:"last_answer"`
	LastTimeLeft float64   `json:"last_time_left"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Snapshot is a read-only copy of a session taken under its lock.
type Snapshot struct {
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	Status          Status        `json:"status"`
	Phase           Phase         `json:"phase"`
	CurrentQuestion int           `json:"current_question"`
	TotalQuestions  int           `json:"total_questions"`
	Players         []Player      `json:"players"`
	HostConnected   bool          `json:"host_connected"`
	Answered        int           `json:"answered"`
	StartedAt       time.Time     `json:"started_at,omitzero"`
	TimeLimit       time.Duration `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ConnectedCount returns how many players are currently connected.
func (s Snapshot) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// Standing is one leaderboard row.
type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PlayerResult is one player's outcome for a resolved question.
type PlayerResult struct {
	Name         string  `json:"name"`
	Answer       int     `json:"answer"`
	AnswerText   string  `json:"answer_text"`
	Correct      bool    `json:"correct"`
	PointsEarned int     `json:"points_earned"`
	TotalScore   int     `json:"total_score"`
	TimeLeft     float64 `json:"time_left"`
}

// Results is the outcome of one question, computed exactly once.
type Results struct {
	Ordinal        int               `json:"ordinal"`
	Question       question.Question `json:"question"`
	CorrectIndex   int               `json:"correct_index"`
	PerPlayer      []PlayerResult    `json:"per_player"`
	Leaderboard    []Standing        `json:"leaderboard"`
	IsLastQuestion bool              `json:"is_last_question"`
}

// SubmitResult carries the live "N of M answered" counters.
type SubmitResult struct {
	Answered       int
	ConnectedTotal int
}
