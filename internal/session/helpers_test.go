package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/question"
)

type sentEvent struct {
	code string
	to   *Recipient
	evt  Event
}

// recorder is a Broadcaster that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recorder) Broadcast(code string, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{code: code, evt: evt})
}

func (r *recorder) Send(code string, to Recipient, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{code: code, to: &to, evt: evt})
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.evt.Kind() == kind {
			n++
		}
	}
	return n
}

func (r *recorder) ofKind(kind EventKind) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, e := range r.events {
		if e.evt.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	all := r.ofKind(kind)
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1].evt, true
}

// fakeClock is the part of clockwork's fake clock the tests drive.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// advanceUntil steps the fake clock until cond holds. Background loops get
// real time between steps to register their next wait.
func advanceUntil(t *testing.T, clock fakeClock, step time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if cond() {
			return true
		}
		clock.Advance(step)
		return false
	}, 5*time.Second, time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testTimings() Timings {
	return Timings{
		Tick:                500 * time.Millisecond,
		ResultsDelay:        2 * time.Second,
		AutoNextSeconds:     3,
		FinalStandingsDelay: time.Second,
		ResetDelay:          2 * time.Second,
		EndGameResetDelay:   500 * time.Millisecond,
	}
}

type stubRecorder struct {
	mu    sync.Mutex
	calls [][]Standing
}

func (s *stubRecorder) RecordStandings(_ context.Context, _, _ string, standings []Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, standings)
	return nil
}

func (s *stubRecorder) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type harness struct {
	clock  fakeClock
	store  *Store
	engine *Engine
	out    *recorder
	rec    *stubRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var clock fakeClock = clockwork.NewFakeClockAt(testEpoch)
	store := NewStore(clock, zerolog.Nop())
	out := &recorder{}
	rec := &stubRecorder{}
	engine := NewEngine(store, out, EngineOptions{Timings: testTimings(), Recorder: rec}, zerolog.Nop())
	t.Cleanup(engine.Close)
	return &harness{clock: clock, store: store, engine: engine, out: out, rec: rec}
}

// install registers a session with unshuffled questions so tests know the
// correct index.
func (h *harness) install(code, title string, qs ...question.Question) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.sessions[code] = newSession(code, title, qs, h.clock.Now())
}

func mkQuestion(text string, correct, limit int, options ...string) question.Question {
	return question.Question{Text: text, Options: options, CorrectIndex: correct, TimeLimit: limit}
}
