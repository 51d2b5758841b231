package session

import "time"

// Answer is one accepted submission for the current question.
type Answer struct {
	PlayerName string
	Option     int
	// Remaining is computed from the server clock and is what scoring uses.
	Remaining time.Duration
	// ClientTimeLeft is what the client claimed; it is only logged.
	ClientTimeLeft float64
	ReceivedAt     time.Time
}

// Ledger holds at most one answer per player for the question currently
// active. It is not safe for concurrent use; the owning session's lock
// guards it.
type Ledger struct {
	answers map[string]Answer
}

func newLedger() *Ledger {
	return &Ledger{answers: make(map[string]Answer)}
}

// Record stores a for its player unless one is already present.
func (l *Ledger) Record(a Answer) error {
	if _, exists := l.answers[a.PlayerName]; exists {
		return ErrAlreadyAnswered
	}
	l.answers[a.PlayerName] = a
	return nil
}

// Get returns the answer recorded for name.
func (l *Ledger) Get(name string) (Answer, bool) {
	a, ok := l.answers[name]
	return a, ok
}

// Len is the number of accepted answers.
func (l *Ledger) Len() int {
	return len(l.answers)
}

// Reset discards every record; called when the next question opens.
func (l *Ledger) Reset() {
	l.answers = make(map[string]Answer)
}
