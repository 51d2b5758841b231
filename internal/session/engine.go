package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/question"
	"github.com/gokatarajesh/quiz-live/internal/session/scoring"
)

// Timings controls the pacing of a running game.
type Timings struct {
	// Tick is how often server_time_update is re-sent while a question is open.
	Tick time.Duration
	// ResultsDelay separates a natural expiry from the results.
	ResultsDelay time.Duration
	// AutoNextSeconds is where the countdown to the next question starts.
	AutoNextSeconds int
	// FinalStandingsDelay separates the last results from game_over.
	FinalStandingsDelay time.Duration
	// ResetDelay separates game_over from the reset to waiting.
	ResetDelay time.Duration
	// EndGameResetDelay separates a host end_game from the reset.
	EndGameResetDelay time.Duration
}

// DefaultTimings returns production pacing.
func DefaultTimings() Timings {
	return Timings{
		Tick:                500 * time.Millisecond,
		ResultsDelay:        2 * time.Second,
		AutoNextSeconds:     7,
		FinalStandingsDelay: 5 * time.Second,
		ResetDelay:          10 * time.Second,
		EndGameResetDelay:   500 * time.Millisecond,
	}
}

func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	if t.Tick <= 0 {
		t.Tick = def.Tick
	}
	if t.ResultsDelay < 0 {
		t.ResultsDelay = def.ResultsDelay
	}
	if t.AutoNextSeconds < 0 {
		t.AutoNextSeconds = def.AutoNextSeconds
	}
	if t.FinalStandingsDelay < 0 {
		t.FinalStandingsDelay = def.FinalStandingsDelay
	}
	if t.ResetDelay < 0 {
		t.ResetDelay = def.ResetDelay
	}
	if t.EndGameResetDelay < 0 {
		t.EndGameResetDelay = def.EndGameResetDelay
	}
	return t
}

// StandingsRecorder archives the final standings of a completed game.
type StandingsRecorder interface {
	RecordStandings(ctx context.Context, code, title string, standings []Standing) error
}

// EngineOptions configures the engine. Zero values fall back to defaults.
type EngineOptions struct {
	Timings  Timings
	Scoring  scoring.Config
	Recorder StandingsRecorder
	Metrics  *metrics.Metrics
}

// Engine is the session state machine. It owns the store and every
// background question loop.
type Engine struct {
	store    *Store
	clock    clockwork.Clock
	out      Broadcaster
	scorer   *scoring.Engine
	timings  Timings
	recorder StandingsRecorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	loopsMu sync.Mutex
	closed  bool
	loops   sync.WaitGroup
}

// NewEngine builds the engine around store. The store's clock is the
// authoritative clock for every question.
func NewEngine(store *Store, out Broadcaster, opts EngineOptions, logger zerolog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    store,
		clock:    store.clock,
		out:      out,
		scorer:   scoring.NewEngine(opts.Scoring),
		timings:  opts.Timings.withDefaults(),
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		logger:   logger.With().Str("component", "session_engine").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Store exposes the underlying registry for read-only callers.
func (e *Engine) Store() *Store {
	return e.store
}

// Close stops every background loop and waits for them to return.
func (e *Engine) Close() {
	e.loopsMu.Lock()
	e.closed = true
	e.loopsMu.Unlock()

	e.cancel()
	e.loops.Wait()
}

// spawn runs fn in a tracked goroutine unless the engine is closed.
func (e *Engine) spawn(fn func(ctx context.Context)) {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	if e.closed {
		return
	}
	e.loops.Add(1)
	go func() {
		defer e.loops.Done()
		fn(e.ctx)
	}()
}

// sleep waits d on the engine clock. It returns false when ctx ends first.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-e.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// Dispatch routes an inbound command to its handler.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrValidation)
	}
	err := e.dispatch(ctx, cmd)
	if err != nil && !IsExpectedRace(err) {
		e.logger.Debug().
			Err(err).
			Str("session_code", cmd.SessionCode()).
			Str("command", fmt.Sprintf("%T", cmd)).
			Msg("command rejected")
	}
	return err
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case JoinCommand:
		_, err := e.Join(ctx, c.Code, c.PlayerName)
		return err
	case ConnectCommand:
		return e.Connect(ctx, c.Code, c.PlayerName)
	case HostAttachCommand:
		return e.AttachHost(ctx, c.Code)
	case HostCommand:
		return e.HostCommand(ctx, c.Code, c.Kind)
	case SubmitAnswerCommand:
		_, err := e.SubmitAnswer(ctx, c.Code, c.PlayerName, c.Option, c.ClientTimeLeft)
		return err
	case DisconnectCommand:
		return e.Disconnect(ctx, c.Code, c.Identity)
	default:
		return fmt.Errorf("%w: unsupported command %T", ErrValidation, cmd)
	}
}

// CreateSession prepares sources and registers a new waiting session.
func (e *Engine) CreateSession(_ context.Context, title string, sources []question.Source) (string, error) {
	code, err := e.store.Create(title, sources)
	if err != nil {
		return "", err
	}
	e.metrics.SessionCreated()
	return code, nil
}

// Get returns a snapshot of the session.
func (e *Engine) Get(code string) (Snapshot, error) {
	return e.store.Get(code)
}

// Join registers a player and announces the new roster.
func (e *Engine) Join(_ context.Context, code, playerName string) (JoinResult, error) {
	result, snap, err := e.store.Join(code, playerName)
	if err != nil {
		e.metrics.PlayerJoined("rejected")
		return "", err
	}
	e.metrics.PlayerJoined(string(result))

	name := trimName(playerName)
	e.logger.Info().
		Str("session_code", snap.Code).
		Str("player", name).
		Str("result", string(result)).
		Int("connected", snap.ConnectedCount()).
		Msg("player joined")

	e.out.Broadcast(snap.Code, PlayerJoined{Player: name, Players: snap.Players})
	return result, nil
}

// Connect re-associates a registered player with a live channel and, if a
// question is open, replays it to that player only.
func (e *Engine) Connect(_ context.Context, code, playerName string) error {
	snap, err := e.store.Connect(code, playerName)
	if err != nil {
		return err
	}
	e.out.Broadcast(snap.Code, PlayerJoined{Player: playerName, Players: snap.Players})
	e.replayOpenQuestion(snap.Code, PlayerRecipient(playerName))
	return nil
}

// AttachHost marks the host connected and acknowledges it.
func (e *Engine) AttachHost(_ context.Context, code string) error {
	snap, err := e.store.AttachHost(code, true)
	if err != nil {
		return err
	}
	e.out.Send(snap.Code, HostRecipient, Connected{Code: snap.Code})
	e.replayOpenQuestion(snap.Code, HostRecipient)
	return nil
}

// replayOpenQuestion sends the open question and the clock anchor to one
// recipient. Nothing is sent between questions.
func (e *Engine) replayOpenQuestion(code string, to Recipient) {
	var (
		open bool
		show ShowQuestion
		tick ServerTimeUpdate
	)
	_ = e.store.withSession(code, func(sess *Session) error {
		if sess.status != StatusActive || sess.phase != PhaseActive {
			return nil
		}
		open = true
		show = sess.showQuestionLocked()
		tick = sess.timeUpdateLocked(e.clock.Now())
		return nil
	})
	if !open {
		return
	}
	e.out.Send(code, to, show)
	e.out.Send(code, to, tick)
}

// Disconnect handles a closed channel. A host leaving never ends the game.
func (e *Engine) Disconnect(_ context.Context, code string, who Recipient) error {
	if who.Host {
		_, err := e.store.AttachHost(code, false)
		return err
	}
	snap, err := e.store.MarkDisconnected(code, who.Player)
	if err != nil {
		return err
	}
	e.logger.Info().
		Str("session_code", snap.Code).
		Str("player", who.Player).
		Msg("player disconnected")
	e.out.Broadcast(snap.Code, PlayerLeft{Player: who.Player, Players: snap.Players})
	return nil
}

// HostCommand applies a host control command.
func (e *Engine) HostCommand(_ context.Context, code string, kind HostCommandKind) error {
	switch kind {
	case CommandStart:
		return e.start(code)
	case CommandShowResults, CommandEndQuestionEarly:
		return e.endQuestion(code, kind)
	case CommandEndGame:
		return e.endGame(code)
	default:
		return ErrUnknownCommand
	}
}

func (e *Engine) start(code string) error {
	var (
		sess    *Session
		started GameStarted
	)
	err := e.store.withSession(code, func(s *Session) error {
		if err := s.startLocked(); err != nil {
			return err
		}
		sess = s
		started = GameStarted{Title: s.title, TotalQuestions: len(s.questions)}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("session_code", sess.code).
		Int("questions", started.TotalQuestions).
		Msg("game started")

	e.out.Broadcast(sess.code, started)
	e.spawn(func(ctx context.Context) {
		e.runQuestions(ctx, sess, 0)
	})
	return nil
}

// endQuestion closes the open question on the host's behalf. Only the caller
// that flips the phase resolves; a concurrent expiry makes this a no-op error.
func (e *Engine) endQuestion(code string, kind HostCommandKind) error {
	var (
		sess *Session
		idx  int
	)
	err := e.store.withSession(code, func(s *Session) error {
		if s.status != StatusActive {
			return ErrNotActive
		}
		if s.phase != PhaseActive {
			return ErrNoActiveQuestion
		}
		s.phase = PhaseIdle
		sess, idx = s, s.current
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("session_code", sess.code).
		Int("question", idx+1).
		Str("command", string(kind)).
		Msg("question ended by host")

	e.out.Broadcast(sess.code, QuestionEnded{Ordinal: idx + 1})
	e.spawn(func(ctx context.Context) {
		next, ok := e.finishQuestion(ctx, sess, idx, "host")
		if ok {
			e.runQuestions(ctx, sess, next)
		}
	})
	return nil
}

// endGame terminates the game in any status and schedules the reset.
func (e *Engine) endGame(code string) error {
	var (
		sess    *Session
		wasLive bool
	)
	err := e.store.withSession(code, func(s *Session) error {
		wasLive = s.status == StatusActive
		s.status = StatusFinished
		s.phase = PhaseIdle
		sess = s
		return nil
	})
	if err != nil {
		return err
	}
	if wasLive {
		e.metrics.GameFinished("ended")
	}

	e.logger.Info().Str("session_code", sess.code).Msg("game ended by host")

	e.out.Broadcast(sess.code, GameEnded{})
	e.spawn(func(ctx context.Context) {
		if !e.sleep(ctx, e.timings.EndGameResetDelay) {
			return
		}
		e.reset(sess)
	})
	return nil
}

// SubmitAnswer records a player's answer for the open question. Remaining
// time is computed from the server clock; the client's figure is only logged.
func (e *Engine) SubmitAnswer(_ context.Context, code, playerName string, option int, clientTimeLeft float64) (SubmitResult, error) {
	var (
		res      SubmitResult
		ordinal  int
		elapsed  time.Duration
		remain   time.Duration
		sessCode string
	)
	err := e.store.withSession(code, func(sess *Session) error {
		sessCode = sess.code
		if sess.status != StatusActive || sess.phase != PhaseActive {
			return ErrAnswerWindowClosed
		}
		p := sess.findLocked(playerName)
		if p == nil {
			return ErrPlayerNotFound
		}

		now := e.clock.Now()
		elapsed = now.Sub(sess.startedAt)
		remain = sess.timeLimit - elapsed
		if remain < 0 {
			remain = 0
		}
		if remain > sess.timeLimit {
			remain = sess.timeLimit
		}

		if err := sess.ledger.Record(Answer{
			PlayerName:     p.Name,
			Option:         option,
			Remaining:      remain,
			ClientTimeLeft: clientTimeLeft,
			ReceivedAt:     now,
		}); err != nil {
			return err
		}
		p.LastAnswer = option
		p.LastTimeLeft = remain.Seconds()

		ordinal = sess.current + 1
		res = SubmitResult{Answered: sess.ledger.Len(), ConnectedTotal: sess.connectedLocked()}
		return nil
	})
	if err != nil {
		if IsExpectedRace(err) {
			reason := "late"
			if errors.Is(err, ErrAlreadyAnswered) {
				reason = "duplicate"
			}
			e.metrics.AnswerRejected(reason)
			e.logger.Debug().
				Err(err).
				Str("session_code", sessCode).
				Str("player", playerName).
				Msg("answer ignored")
		}
		return SubmitResult{}, err
	}
	e.metrics.AnswerAccepted(elapsed)

	e.logger.Debug().
		Str("session_code", sessCode).
		Str("player", playerName).
		Int("question", ordinal).
		Int("option", option).
		Dur("server_remaining", remain).
		Float64("client_time_left", clientTimeLeft).
		Msg("answer accepted")

	e.out.Send(sessCode, PlayerRecipient(playerName), AnswerReceived{Ordinal: ordinal, Option: option})
	e.out.Broadcast(sessCode, QuestionStatsUpdate{Answered: res.Answered, ConnectedTotal: res.ConnectedTotal})
	return res, nil
}

// reset replaces a finished session if it is still the registered instance.
func (e *Engine) reset(sess *Session) {
	if _, err := e.store.resetIfCurrent(sess); err != nil {
		e.logger.Debug().Err(err).Str("session_code", sess.code).Msg("reset skipped")
	}
}
