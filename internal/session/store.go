package session

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/question"
)

// CodeLength is the number of characters in a session code.
const CodeLength = 6

// Store is the registry of live sessions keyed by code.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	clock  clockwork.Clock
	logger zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	newCode func() string
}

// NewStore creates an empty session registry.
func NewStore(clock clockwork.Clock, logger zerolog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		sessions: make(map[string]*Session),
		clock:    clock,
		logger:   logger.With().Str("component", "session_store").Logger(),
		rng:      rand.New(rand.NewSource(clock.Now().UnixNano())),
		newCode:  generateCode,
	}
}

// generateCode returns six upper-case hex characters.
func generateCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:CodeLength])
}

// NormalizeCode trims and upper-cases a user typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}

// Create prepares the question set and installs a new waiting session.
func (s *Store) Create(title string, sources []question.Source) (string, error) {
	s.rngMu.Lock()
	prepared, err := question.Prepare(sources, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCode()
	for {
		if _, exists := s.sessions[code]; !exists {
			break
		}
		code = s.newCode()
	}
	s.sessions[code] = newSession(code, title, prepared, s.clock.Now())

	s.logger.Info().
		Str("session_code", code).
		Str("title", title).
		Int("questions", len(prepared)).
		Msg("session created")

	return code, nil
}

func (s *Store) lookup(code string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[NormalizeCode(code)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// withSession runs fn under the lock of the session currently registered for
// code. A session retired between lookup and lock is looked up again.
func (s *Store) withSession(code string, fn func(*Session) error) error {
	for {
		sess, err := s.lookup(code)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.retired {
			sess.mu.Unlock()
			continue
		}
		err = fn(sess)
		sess.mu.Unlock()
		return err
	}
}

// Join registers playerName. A disconnected player with the same name is
// re-associated instead of duplicated.
func (s *Store) Join(code, playerName string) (JoinResult, Snapshot, error) {
	name := trimName(playerName)
	if name == "" {
		return "", Snapshot{}, ErrEmptyName
	}

	var (
		result JoinResult
		snap   Snapshot
	)
	err := s.withSession(code, func(sess *Session) error {
		if sess.status != StatusWaiting {
			return ErrNotWaiting
		}
		if p := sess.findLocked(name); p != nil {
			if p.Connected {
				return ErrNameTaken
			}
			p.Connected = true
			result = Rejoined
		} else {
			sess.players = append(sess.players, &Player{
				ID:         uuid.New(),
				Name:       name,
				Connected:  true,
				LastAnswer: NoAnswer,
				JoinedAt:   s.clock.Now(),
			})
			result = Joined
		}
		snap = sess.snapshotLocked()
		return nil
	})
	if err != nil {
		return "", Snapshot{}, err
	}
	return result, snap, nil
}

// Connect re-associates an already registered player with a live channel. It
// is allowed in any status so a player can come back mid-game.
func (s *Store) Connect(code, playerName string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(code, func(sess *Session) error {
		p := sess.findLocked(playerName)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Connected = true
		snap = sess.snapshotLocked()
		return nil
	})
	return snap, err
}

// MarkDisconnected flips the player's connectivity off. Score and ledger are untouched.
func (s *Store) MarkDisconnected(code, playerName string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(code, func(sess *Session) error {
		p := sess.findLocked(playerName)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Connected = false
		snap = sess.snapshotLocked()
		return nil
	})
	return snap, err
}

// AttachHost records host connectivity.
func (s *Store) AttachHost(code string, connected bool) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(code, func(sess *Session) error {
		sess.hostConnected = connected
		snap = sess.snapshotLocked()
		return nil
	})
	return snap, err
}

// Start moves a waiting session with at least one player to active. It does
// not open a question; Engine.HostCommand does both.
func (s *Store) Start(code string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(code, func(sess *Session) error {
		if err := sess.startLocked(); err != nil {
			return err
		}
		snap = sess.snapshotLocked()
		return nil
	})
	return snap, err
}

// ResetToWaiting replaces a finished session with a fresh waiting one under
// the same code, keeping title and questions and dropping players.
func (s *Store) ResetToWaiting(code string) (Snapshot, error) {
	sess, err := s.lookup(code)
	if err != nil {
		return Snapshot{}, err
	}
	return s.resetIfCurrent(sess)
}

// resetIfCurrent resets sess only if it is still the registered instance.
func (s *Store) resetIfCurrent(sess *Session) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[sess.code] != sess {
		return Snapshot{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.status != StatusFinished {
		return Snapshot{}, ErrNotFinished
	}

	sess.retired = true
	fresh := newSession(sess.code, sess.title, sess.questions, s.clock.Now())
	s.sessions[sess.code] = fresh

	s.logger.Info().
		Str("session_code", sess.code).
		Int("questions", len(fresh.questions)).
		Msg("session reset to waiting")

	return fresh.snapshotLocked(), nil
}

// Get returns a snapshot of the session registered for code.
func (s *Store) Get(code string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(code, func(sess *Session) error {
		snap = sess.snapshotLocked()
		return nil
	})
	return snap, err
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
