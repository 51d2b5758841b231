package session

import (
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/question"
)

func newTestStore() *Store {
	return NewStore(clockwork.NewFakeClockAt(testEpoch), zerolog.Nop())
}

func validSources() []question.Source {
	return []question.Source{
		{Text: "Q1", Options: []string{"a", "b", "c"}, CorrectIndex: 0, TimeLimit: 10},
		{Text: "Q2", Options: []string{"x", "y"}, CorrectIndex: 1, TimeLimit: 20},
	}
}

func TestCreate_CodeFormat(t *testing.T) {
	s := newTestStore()

	code, err := s.Create("Trivia", validSources())
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	assert.Regexp(t, `^[0-9A-F]{6}$`, code)

	snap, err := s.Get(code)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Equal(t, 2, snap.TotalQuestions)
	assert.Empty(t, snap.Players)
}

func TestCreate_RetriesCollisions(t *testing.T) {
	s := newTestStore()
	codes := []string{"ABC123", "ABC123", "ABC123", "DEF456"}
	s.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := s.Create("one", validSources())
	require.NoError(t, err)
	second, err := s.Create("two", validSources())
	require.NoError(t, err)

	assert.Equal(t, "ABC123", first)
	assert.Equal(t, "DEF456", second)
	assert.Equal(t, 2, s.Len())
}

func TestCreate_ConcurrentCodesUnique(t *testing.T) {
	s := newTestStore()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]bool{}
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := s.Create("t", validSources())
			assert.NoError(t, err)
			mu.Lock()
			codes[code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, codes, 200)
}

func TestCreate_InvalidSet(t *testing.T) {
	s := newTestStore()
	_, err := s.Create("bad", []question.Source{{Text: "q", Options: []string{"only"}, TimeLimit: 10}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, question.ErrInvalid)
	assert.Zero(t, s.Len())
}

func TestJoin(t *testing.T) {
	s := newTestStore()
	code, err := s.Create("t", validSources())
	require.NoError(t, err)

	res, snap, err := s.Join(code, "alice")
	require.NoError(t, err)
	assert.Equal(t, Joined, res)
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].Connected)
	assert.Equal(t, NoAnswer, snap.Players[0].LastAnswer)

	// connected player keeps the name
	_, _, err = s.Join(code, "alice")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.ErrorIs(t, err, ErrConflict)

	// names are case sensitive
	_, _, err = s.Join(code, "Alice")
	assert.NoError(t, err)

	_, _, err = s.Join(code, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, _, err = s.Join("ZZZZZZ", "bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoin_RejoinAfterDisconnect(t *testing.T) {
	s := newTestStore()
	code, _ := s.Create("t", validSources())
	_, first, err := s.Join(code, "alice")
	require.NoError(t, err)

	snap, err := s.MarkDisconnected(code, "alice")
	require.NoError(t, err)
	assert.False(t, snap.Players[0].Connected)

	res, snap, err := s.Join(code, "alice")
	require.NoError(t, err)
	assert.Equal(t, Rejoined, res)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, first.Players[0].ID, snap.Players[0].ID)
	assert.True(t, snap.Players[0].Connected)
}

func TestJoin_CodeIsNormalized(t *testing.T) {
	s := newTestStore()
	s.newCode = func() string { return "ABC123" }
	_, err := s.Create("t", validSources())
	require.NoError(t, err)

	_, _, err = s.Join(" abc123 ", "alice")
	assert.NoError(t, err)
}

func TestStartGating(t *testing.T) {
	s := newTestStore()
	code, _ := s.Create("t", validSources())

	_, err := s.Start(code)
	assert.ErrorIs(t, err, ErrNoPlayers)

	_, _, err = s.Join(code, "alice")
	require.NoError(t, err)

	snap, err := s.Start(code)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, snap.Status)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.CurrentQuestion)

	_, err = s.Start(code)
	assert.ErrorIs(t, err, ErrNotWaiting)

	_, _, err = s.Join(code, "bob")
	assert.ErrorIs(t, err, ErrNotWaiting)
}

func TestConnect_AnyStatus(t *testing.T) {
	s := newTestStore()
	code, _ := s.Create("t", validSources())
	_, _, _ = s.Join(code, "alice")
	_, _ = s.MarkDisconnected(code, "alice")
	_, err := s.Start(code)
	require.NoError(t, err)

	snap, err := s.Connect(code, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ConnectedCount())

	_, err = s.Connect(code, "mallory")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestAttachHost(t *testing.T) {
	s := newTestStore()
	code, _ := s.Create("t", validSources())

	snap, err := s.AttachHost(code, true)
	require.NoError(t, err)
	assert.True(t, snap.HostConnected)

	snap, err = s.AttachHost(code, false)
	require.NoError(t, err)
	assert.False(t, snap.HostConnected)
}

func TestResetToWaiting(t *testing.T) {
	s := newTestStore()
	code, _ := s.Create("Trivia", validSources())
	_, _, _ = s.Join(code, "alice")

	_, err := s.ResetToWaiting(code)
	assert.ErrorIs(t, err, ErrNotFinished)

	_, err = s.Start(code)
	require.NoError(t, err)

	old, err := s.lookup(code)
	require.NoError(t, err)
	old.mu.Lock()
	old.status = StatusFinished
	questions := old.questions
	old.mu.Unlock()

	snap, err := s.ResetToWaiting(code)
	require.NoError(t, err)
	assert.Equal(t, code, snap.Code)
	assert.Equal(t, "Trivia", snap.Title)
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Empty(t, snap.Players)

	fresh, err := s.lookup(code)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, questions, fresh.questions)
	assert.True(t, old.retired)

	// a stale pointer cannot reset the new instance
	_, err = s.resetIfCurrent(old)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
