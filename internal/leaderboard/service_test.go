package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/session"
)

func newTestService(t *testing.T, opts ServiceOptions) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client, zerolog.Nop(), opts), mr
}

func TestRecordStandings_HistoryAndTop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, ServiceOptions{Clock: clock})
	ctx := context.Background()

	first := []session.Standing{{Name: "alice", Score: 550}, {Name: "bob", Score: 450}, {Name: "carol", Score: 0}}
	require.NoError(t, svc.RecordStandings(ctx, "ABC123", "Trivia", first))

	clock.Advance(time.Hour)
	second := []session.Standing{{Name: "bob", Score: 600}, {Name: "alice", Score: 100}}
	require.NoError(t, svc.RecordStandings(ctx, "ABC123", "Trivia", second))

	runs, err := svc.History(ctx, "ABC123", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].Standings, "newest first")
	assert.Equal(t, "Trivia", runs[1].Title)
	assert.True(t, runs[0].FinishedAt.After(runs[1].FinishedAt))

	top, err := svc.Top(ctx, "ABC123", 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, Entry{Rank: 1, Name: "bob", Score: 1050, Games: 2, Wins: 1, LastScore: 600}, top[0])
	assert.Equal(t, Entry{Rank: 2, Name: "alice", Score: 650, Games: 2, Wins: 1, LastScore: 100}, top[1])
	assert.Equal(t, "carol", top[2].Name)
	assert.Zero(t, top[2].Wins)
}

func TestRecordStandings_TrimsHistory(t *testing.T) {
	svc, _ := newTestService(t, ServiceOptions{HistoryLimit: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordStandings(ctx, "TRIM01", "t", []session.Standing{{Name: "p", Score: i}}))
	}

	runs, err := svc.History(ctx, "TRIM01", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 4, runs[0].Standings[0].Score)
}

func TestRecordStandings_TTL(t *testing.T) {
	svc, mr := newTestService(t, ServiceOptions{EntryTTL: time.Hour})
	require.NoError(t, svc.RecordStandings(context.Background(), "TTL001", "t", []session.Standing{{Name: "p", Score: 1}}))

	assert.Equal(t, time.Hour, mr.TTL("quiz:runs:TTL001"))
	assert.Equal(t, time.Hour, mr.TTL("quiz:board:TTL001"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("quiz:runs:TTL001"))
}

func TestRecordStandings_RedisDown(t *testing.T) {
	svc, mr := newTestService(t, ServiceOptions{})
	mr.Close()

	err := svc.RecordStandings(context.Background(), "DOWN01", "t", []session.Standing{{Name: "p", Score: 1}})
	assert.Error(t, err)
}

func TestNilService(t *testing.T) {
	var svc *Service
	assert.ErrorIs(t, svc.RecordStandings(context.Background(), "X", "t", nil), ErrDisabled)
	_, err := svc.History(context.Background(), "X", 1)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestHandleHistory(t *testing.T) {
	svc, _ := newTestService(t, ServiceOptions{})
	require.NoError(t, svc.RecordStandings(context.Background(), "ABC123", "Trivia", []session.Standing{{Name: "alice", Score: 300}}))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sessions/{code}/history", NewHTTPHandler(svc, zerolog.Nop()).HandleHistory)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/abc123/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body historyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ABC123", body.Code)
	require.Len(t, body.Runs, 1)
	require.Len(t, body.Top, 1)
	assert.Equal(t, 300, body.Top[0].Score)
}

func TestHandleHistory_Disabled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sessions/{code}/history", NewHTTPHandler(nil, zerolog.Nop()).HandleHistory)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/ABC123/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
