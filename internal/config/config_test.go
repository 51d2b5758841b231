package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"HOST_TOKEN_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "quiz-live", cfg.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.QuestionTick)
	assert.Equal(t, 2*time.Second, cfg.Game.ResultsDelay)
	assert.Equal(t, 7, cfg.Game.AutoNextSeconds)
	assert.Equal(t, 5*time.Second, cfg.Game.FinalStandingsDelay)
	assert.Equal(t, 10*time.Second, cfg.Game.ResetDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.EndGameResetDelay)
	assert.Equal(t, 100, cfg.Scoring.BaseScore)
	assert.Equal(t, 500, cfg.Scoring.MaxTimeBonus)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"HOST_TOKEN_SECRET": "s3cret",
		"QUESTION_TICK":     "250ms",
		"AUTO_NEXT_SECONDS": "3",
		"REDIS_ADDR":        "localhost:6379",
		"SCORE_MAX_BONUS":   "900",
	})
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Game.QuestionTick)
	assert.Equal(t, 3, cfg.Game.AutoNextSeconds)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 900, cfg.Scoring.MaxTimeBonus)
}

func TestLoadFrom_RequiresSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	assert.Error(t, err)
}

func TestLoadFrom_RejectsBadTick(t *testing.T) {
	_, err := LoadFrom(map[string]string{"HOST_TOKEN_SECRET": "s", "QUESTION_TICK": "0s"})
	assert.Error(t, err)
}
