package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-live"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Game     Game
	Scoring  Scoring
	Redis    Redis
	Archive  Archive
	Security Security
	CORS     CORS
}

// Game controls the pacing of live sessions.
type Game struct {
	QuestionTick        time.Duration `env:"QUESTION_TICK" envDefault:"500ms"`
	ResultsDelay        time.Duration `env:"RESULTS_DELAY" envDefault:"2s"`
	AutoNextSeconds     int           `env:"AUTO_NEXT_SECONDS" envDefault:"7"`
	FinalStandingsDelay time.Duration `env:"FINAL_STANDINGS_DELAY" envDefault:"5s"`
	ResetDelay          time.Duration `env:"RESET_DELAY" envDefault:"10s"`
	EndGameResetDelay   time.Duration `env:"END_GAME_RESET_DELAY" envDefault:"500ms"`
}

// Scoring holds the points formula constants.
type Scoring struct {
	BaseScore    int `env:"SCORE_BASE" envDefault:"100"`
	MaxTimeBonus int `env:"SCORE_MAX_BONUS" envDefault:"500"`
}

// Redis holds the optional archive connection. An empty address disables it.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Archive governs how finished games are kept in Redis.
type Archive struct {
	KeyPrefix    string        `env:"ARCHIVE_KEY_PREFIX" envDefault:"quiz"`
	HistoryLimit int           `env:"ARCHIVE_HISTORY_LIMIT" envDefault:"20"`
	EntryTTL     time.Duration `env:"ARCHIVE_TTL" envDefault:"168h"`
}

// Security stores secrets for signing host tokens.
type Security struct {
	HostTokenSecret string        `env:"HOST_TOKEN_SECRET,notEmpty"`
	HostTokenTTL    time.Duration `env:"HOST_TOKEN_TTL" envDefault:"12h"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	return load(env.Options{RequiredIfNoDef: true})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*App, error) {
	return load(env.Options{RequiredIfNoDef: true, Environment: vars})
}

func load(opts env.Options) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	if c.Game.QuestionTick <= 0 {
		return fmt.Errorf("parse config: QUESTION_TICK must be positive")
	}
	if c.Game.AutoNextSeconds < 0 {
		return fmt.Errorf("parse config: AUTO_NEXT_SECONDS must not be negative")
	}
	if c.Scoring.BaseScore < 0 || c.Scoring.MaxTimeBonus < 0 {
		return fmt.Errorf("parse config: scoring constants must not be negative")
	}
	return nil
}
