package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateScore(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		name      string
		correct   bool
		remaining time.Duration
		limit     time.Duration
		want      int
	}{
		{"incorrect", false, 10 * time.Second, 30 * time.Second, 0},
		{"instant", true, 30 * time.Second, 30 * time.Second, 600},
		{"at expiry", true, 0, 30 * time.Second, 100},
		{"two seconds into thirty", true, 28 * time.Second, 30 * time.Second, 566},
		{"half way", true, 5 * time.Second, 10 * time.Second, 350},
		{"floor not round", true, 1999 * time.Millisecond, 10 * time.Second, 199},
		{"negative clamps", true, -3 * time.Second, 10 * time.Second, 100},
		{"over limit clamps", true, 20 * time.Second, 10 * time.Second, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.CalculateScore(tt.correct, tt.remaining, tt.limit))
		})
	}
}

func TestCalculateScore_BoundsAndMonotonic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	limit := 17 * time.Second

	prev := -1
	for ms := 0; ms <= int(limit/time.Millisecond); ms += 37 {
		got := e.CalculateScore(true, time.Duration(ms)*time.Millisecond, limit)
		assert.GreaterOrEqual(t, got, 100)
		assert.LessOrEqual(t, got, e.MaxScore())
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestScoreAnswer(t *testing.T) {
	e := NewEngine(Config{})

	correct, pts := e.ScoreAnswer(2, 2, 5*time.Second, 10*time.Second)
	assert.True(t, correct)
	assert.Equal(t, 350, pts)

	correct, pts = e.ScoreAnswer(1, 2, 5*time.Second, 10*time.Second)
	assert.False(t, correct)
	assert.Zero(t, pts)

	correct, pts = e.ScoreAnswer(-1, 2, 5*time.Second, 10*time.Second)
	assert.False(t, correct)
	assert.Zero(t, pts)

	// out-of-range options are simply wrong
	correct, pts = e.ScoreAnswer(9, 2, 5*time.Second, 10*time.Second)
	assert.False(t, correct)
	assert.Zero(t, pts)
}

func TestCustomConfig(t *testing.T) {
	e := NewEngine(Config{BaseScore: 10, MaxTimeBonus: 90})
	assert.Equal(t, 100, e.MaxScore())
	assert.Equal(t, 55, e.CalculateScore(true, 5*time.Second, 10*time.Second))
}

func TestCalculateScore_LongDurations(t *testing.T) {
	e := NewEngine(DefaultConfig())
	day := 24 * time.Hour
	year := 365 * day

	assert.Equal(t, 600, e.CalculateScore(true, day, day))
	assert.Equal(t, 350, e.CalculateScore(true, day/2, day))
	assert.Equal(t, 600, e.CalculateScore(true, year, year))
	assert.Equal(t, 350, e.CalculateScore(true, year/2, year))
	assert.Equal(t, 100, e.CalculateScore(true, 0, year))

	for _, remaining := range []time.Duration{0, time.Hour, 100 * day, 300 * day, year} {
		score := e.CalculateScore(true, remaining, year)
		assert.GreaterOrEqual(t, score, 100)
		assert.LessOrEqual(t, score, 600)
	}
}
