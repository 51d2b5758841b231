package session

import (
	"context"
	"time"
)

// runQuestions drives questions from idx onwards until the game ends, the
// host takes over a question, or the session is replaced.
func (e *Engine) runQuestions(ctx context.Context, sess *Session, idx int) {
	for {
		if !e.openQuestion(sess, idx) {
			return
		}
		if !e.watchQuestion(ctx, sess, idx) {
			return
		}

		// This goroutine closed the window, so it owns the resolution.
		e.out.Broadcast(sess.code, QuestionEnded{Ordinal: idx + 1})
		if !e.sleep(ctx, e.timings.ResultsDelay) {
			return
		}
		next, ok := e.finishQuestion(ctx, sess, idx, "timer")
		if !ok {
			return
		}
		idx = next
	}
}

// openQuestion activates question idx and announces it.
func (e *Engine) openQuestion(sess *Session, idx int) bool {
	sess.mu.Lock()
	if !sess.liveLocked(idx) || sess.phase != PhaseIdle || idx >= len(sess.questions) {
		sess.mu.Unlock()
		return false
	}
	now := e.clock.Now()
	sess.phase = PhaseActive
	sess.ledger.Reset()
	sess.startedAt = now
	sess.timeLimit = time.Duration(sess.questions[idx].TimeLimit) * time.Second

	show := sess.showQuestionLocked()
	tick := sess.timeUpdateLocked(now)
	stats := QuestionStatsUpdate{Answered: 0, ConnectedTotal: sess.connectedLocked()}
	sess.mu.Unlock()

	e.logger.Info().
		Str("session_code", sess.code).
		Int("question", idx+1).
		Int("time_limit", show.TimeLimit).
		Msg("question opened")

	e.out.Broadcast(sess.code, show)
	e.out.Broadcast(sess.code, tick)
	e.out.Broadcast(sess.code, stats)
	return true
}

// watchQuestion re-sends the clock every tick until the window expires. It
// returns true only when it flipped the phase itself; any other change
// (host end, end_game, reset) makes it return false without side effects.
func (e *Engine) watchQuestion(ctx context.Context, sess *Session, idx int) bool {
	for {
		if !e.sleep(ctx, e.timings.Tick) {
			return false
		}

		sess.mu.Lock()
		if !sess.liveLocked(idx) || sess.phase != PhaseActive {
			sess.mu.Unlock()
			return false
		}
		now := e.clock.Now()
		if !now.Before(sess.startedAt.Add(sess.timeLimit)) {
			sess.phase = PhaseIdle
			sess.mu.Unlock()
			e.logger.Debug().
				Str("session_code", sess.code).
				Int("question", idx+1).
				Msg("question expired")
			return true
		}
		tick := sess.timeUpdateLocked(now)
		sess.mu.Unlock()

		e.out.Broadcast(sess.code, tick)
	}
}

// finishQuestion resolves question idx, publishes the results and runs the
// countdown. It returns the next index when the game goes on.
func (e *Engine) finishQuestion(ctx context.Context, sess *Session, idx int, trigger string) (int, bool) {
	results, ok := e.resolve(sess, idx)
	if !ok {
		return 0, false
	}
	e.metrics.QuestionResolved(trigger)
	e.out.Broadcast(sess.code, ShowResults{Results: results})

	if results.IsLastQuestion {
		e.metrics.GameFinished("completed")
		e.finalStandings(ctx, sess)
		return 0, false
	}

	for left := e.timings.AutoNextSeconds; left > 0; left-- {
		if !e.sleep(ctx, time.Second) || !e.stillAt(sess, idx) {
			return 0, false
		}
		e.out.Broadcast(sess.code, AutoNextCountdown{SecondsLeft: left})
	}
	if !e.sleep(ctx, time.Second) {
		return 0, false
	}
	return e.advance(sess, idx)
}

// resolve scores every player for question idx. Its guard makes a second
// call for the same index a no-op.
func (e *Engine) resolve(sess *Session, idx int) (Results, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.liveLocked(idx) || sess.phase != PhaseIdle || sess.resolved >= idx {
		return Results{}, false
	}
	sess.resolved = idx

	q := sess.questions[idx]
	limit := time.Duration(q.TimeLimit) * time.Second
	perPlayer := make([]PlayerResult, 0, len(sess.players))
	for _, p := range sess.players {
		res := PlayerResult{Name: p.Name, Answer: NoAnswer}
		if ans, answered := sess.ledger.Get(p.Name); answered {
			correct, points := e.scorer.ScoreAnswer(ans.Option, q.CorrectIndex, ans.Remaining, limit)
			p.Score += points
			res.Answer = ans.Option
			res.AnswerText = q.OptionText(ans.Option)
			res.Correct = correct
			res.PointsEarned = points
			res.TimeLeft = ans.Remaining.Seconds()
		}
		res.TotalScore = p.Score
		perPlayer = append(perPlayer, res)
	}

	isLast := idx+1 >= len(sess.questions)
	if isLast {
		sess.status = StatusFinished
	}

	e.logger.Info().
		Str("session_code", sess.code).
		Int("question", idx+1).
		Int("answered", sess.ledger.Len()).
		Bool("last", isLast).
		Msg("question resolved")

	return Results{
		Ordinal:        idx + 1,
		Question:       q,
		CorrectIndex:   q.CorrectIndex,
		PerPlayer:      perPlayer,
		Leaderboard:    sess.standingsLocked(),
		IsLastQuestion: isLast,
	}, true
}

// stillAt reports whether sess is still showing the results of question idx.
func (e *Engine) stillAt(sess *Session, idx int) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.liveLocked(idx) && sess.phase == PhaseIdle && sess.resolved == idx
}

// advance moves the index forward by exactly one after question idx resolved.
func (e *Engine) advance(sess *Session, idx int) (int, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.liveLocked(idx) || sess.phase != PhaseIdle || sess.resolved != idx {
		return 0, false
	}
	sess.current = idx + 1
	return sess.current, true
}

// finalStandings publishes game_over, archives the standings and schedules
// the reset. Each step checks that the finished session was not replaced or
// ended in the meantime.
func (e *Engine) finalStandings(ctx context.Context, sess *Session) {
	if !e.sleep(ctx, e.timings.FinalStandingsDelay) {
		return
	}

	sess.mu.Lock()
	if sess.retired || sess.status != StatusFinished {
		sess.mu.Unlock()
		return
	}
	standings := sess.standingsLocked()
	title := sess.title
	sess.mu.Unlock()

	e.out.Broadcast(sess.code, GameOver{FinalStandings: standings})

	if e.recorder != nil {
		if err := e.recorder.RecordStandings(ctx, sess.code, title, standings); err != nil {
			e.logger.Warn().Err(err).Str("session_code", sess.code).Msg("archive standings")
		}
	}

	if !e.sleep(ctx, e.timings.ResetDelay) {
		return
	}
	e.reset(sess)
}
