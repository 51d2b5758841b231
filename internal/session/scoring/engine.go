package scoring

import (
	"math"
	"time"
)

// Config holds configurable scoring constants (defaults match requirements).
type Config struct {
	BaseScore    int // default: 100
	MaxTimeBonus int // default: 500
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BaseScore:    100,
		MaxTimeBonus: 500,
	}
}

// Engine computes server-side scores with configurable constants.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	if config.BaseScore <= 0 && config.MaxTimeBonus <= 0 {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// MaxScore is the most a single question can award.
func (e *Engine) MaxScore() int {
	return e.config.BaseScore + e.config.MaxTimeBonus
}

// CalculateScore computes points for a single answer.
// Formula: base + floor(max_bonus * remaining / limit)
// - base: always awarded if correct
// - time bonus: max when answered instantly, decays linearly to 0 at timeout
func (e *Engine) CalculateScore(isCorrect bool, timeRemaining, timeLimit time.Duration) int {
	if !isCorrect {
		return 0
	}

	score := e.config.BaseScore
	if timeLimit <= 0 {
		return score
	}

	if timeRemaining < 0 {
		timeRemaining = 0
	}
	if timeRemaining > timeLimit {
		timeRemaining = timeLimit
	}

	// Integer math keeps the floor exact. Durations too long for a
	// nanosecond product fall back to millisecond resolution.
	remaining, limit := int64(timeRemaining), int64(timeLimit)
	bonus := int64(e.config.MaxTimeBonus)
	if bonus > 0 && remaining > math.MaxInt64/bonus {
		remaining, limit = timeRemaining.Milliseconds(), timeLimit.Milliseconds()
	}
	score += int(bonus * remaining / limit)
	return score
}

// ScoreAnswer scores a recorded option against the correct one. A negative
// option means the player did not answer.
func (e *Engine) ScoreAnswer(option, correct int, timeRemaining, timeLimit time.Duration) (bool, int) {
	if option < 0 {
		return false, 0
	}
	isCorrect := option == correct
	return isCorrect, e.CalculateScore(isCorrect, timeRemaining, timeLimit)
}
