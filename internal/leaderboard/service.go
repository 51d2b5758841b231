package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/session"
)

// ErrDisabled is returned by a nil Service.
var ErrDisabled = errors.New("standings archive disabled")

// Entry is one player's cumulative record across the runs of a session code.
type Entry struct {
	Rank      int    `json:"rank"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Games     int    `json:"games"`
	Wins      int    `json:"wins"`
	LastScore int    `json:"last_score"`
}

// Run is the archived outcome of one completed game.
type Run struct {
	Code       string             `json:"code"`
	Title      string             `json:"title"`
	FinishedAt time.Time          `json:"finished_at"`
	Standings  []session.Standing `json:"standings"`
}

// ServiceOptions configures the archive.
type ServiceOptions struct {
	RedisKeyPrefix string
	// HistoryLimit caps the runs kept per code.
	HistoryLimit int
	// EntryTTL expires a code's keys after inactivity. Zero keeps them.
	EntryTTL time.Duration
	TopN     int
	Clock    clockwork.Clock
}

// Service archives final standings in Redis: a sorted set of cumulative
// scores per code, a meta hash per player and a capped list of runs.
type Service struct {
	redis        *redis.Client
	logger       zerolog.Logger
	prefix       string
	historyLimit int
	entryTTL     time.Duration
	topN         int
	clock        clockwork.Clock
}

// NewService constructs the archive.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "quiz"
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = 20
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		redis:        redis,
		logger:       logger.With().Str("component", "leaderboard").Logger(),
		prefix:       prefix,
		historyLimit: limit,
		entryTTL:     opts.EntryTTL,
		topN:         topN,
		clock:        clock,
	}
}

// RecordStandings stores one finished game. It satisfies session.StandingsRecorder.
func (s *Service) RecordStandings(ctx context.Context, code, title string, standings []session.Standing) error {
	if s == nil {
		return ErrDisabled
	}

	run := Run{
		Code:       code,
		Title:      title,
		FinishedAt: s.clock.Now().UTC(),
		Standings:  standings,
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	zKey := s.boardKey(code)
	runsKey := s.runsKey(code)

	pipe := s.redis.TxPipeline()
	for i, st := range standings {
		metaKey := s.metaKey(code, st.Name)
		pipe.ZIncrBy(ctx, zKey, float64(st.Score), st.Name)
		pipe.HIncrBy(ctx, metaKey, "games", 1)
		if i == 0 && st.Score > 0 {
			pipe.HIncrBy(ctx, metaKey, "wins", 1)
		}
		pipe.HSet(ctx, metaKey, "last_score", st.Score)
		if s.entryTTL > 0 {
			pipe.Expire(ctx, metaKey, s.entryTTL)
		}
	}
	pipe.LPush(ctx, runsKey, data)
	pipe.LTrim(ctx, runsKey, 0, int64(s.historyLimit-1))
	if s.entryTTL > 0 {
		pipe.Expire(ctx, zKey, s.entryTTL)
		pipe.Expire(ctx, runsKey, s.entryTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archive standings %s: %w", code, err)
	}

	s.logger.Info().
		Str("session_code", code).
		Int("players", len(standings)).
		Msg("standings archived")
	return nil
}

// History returns the most recent runs for code, newest first.
func (s *Service) History(ctx context.Context, code string, limit int) ([]Run, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	raw, err := s.redis.LRange(ctx, s.runsKey(code), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	runs := make([]Run, 0, len(raw))
	for _, item := range raw {
		var run Run
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			s.logger.Warn().Err(err).Str("session_code", code).Msg("skipping corrupt run")
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Top returns the cumulative leaderboard for code across all archived runs.
func (s *Service) Top(ctx context.Context, code string, limit int) ([]Entry, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(code), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		name, _ := z.Member.(string)
		meta, err := s.redis.HGetAll(ctx, s.metaKey(code, name)).Result()
		if err != nil {
			s.logger.Warn().Err(err).Str("player", name).Msg("failed to read leaderboard metadata")
			meta = map[string]string{}
		}
		entries = append(entries, Entry{
			Rank:      i + 1,
			Name:      name,
			Score:     int(z.Score),
			Games:     parseInt(meta["games"]),
			Wins:      parseInt(meta["wins"]),
			LastScore: parseInt(meta["last_score"]),
		})
	}
	return entries, nil
}

func (s *Service) boardKey(code string) string {
	return fmt.Sprintf("%s:board:%s", s.prefix, code)
}

func (s *Service) metaKey(code, name string) string {
	return fmt.Sprintf("%s:board:%s:meta:%s", s.prefix, code, name)
}

func (s *Service) runsKey(code string) string {
	return fmt.Sprintf("%s:runs:%s", s.prefix, code)
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
