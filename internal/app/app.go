package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/quiz-live/internal/auth"
	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/leaderboard"
	"github.com/gokatarajesh/quiz-live/internal/logging"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/question"
	"github.com/gokatarajesh/quiz-live/internal/server"
	"github.com/gokatarajesh/quiz-live/internal/session"
	"github.com/gokatarajesh/quiz-live/internal/session/scoring"
	ws "github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// Options tunes the bootstrap. Zero values are production defaults.
type Options struct {
	// Seed, when set, is registered as a waiting session at start-up.
	Seed *question.Set
	// Registerer receives the Prometheus collectors.
	Registerer prometheus.Registerer
	// Clock drives every session timer.
	Clock clockwork.Clock
}

// Application aggregates the session engine and its infrastructure.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis  *redis.Client
	engine *session.Engine
	tokens *jwt.Manager
	http   *http.Server
}

// New wires the store, engine, transport and optional Redis archive.
func New(ctx context.Context, cfg *config.App, opts Options) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	var (
		redisClient *redis.Client
		archive     *leaderboard.Service
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		archive = leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
			RedisKeyPrefix: cfg.Archive.KeyPrefix,
			HistoryLimit:   cfg.Archive.HistoryLimit,
			EntryTTL:       cfg.Archive.EntryTTL,
			Clock:          opts.Clock,
		})
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("standings archive enabled")
	} else {
		logger.Warn().Msg("REDIS_ADDR not configured; standings archive disabled")
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.HostTokenSecret),
		TTL:    cfg.Security.HostTokenTTL,
		Issuer: cfg.Name,
		Clock:  opts.Clock,
	})

	engineOpts := session.EngineOptions{
		Timings: session.Timings{
			Tick:                cfg.Game.QuestionTick,
			ResultsDelay:        cfg.Game.ResultsDelay,
			AutoNextSeconds:     cfg.Game.AutoNextSeconds,
			FinalStandingsDelay: cfg.Game.FinalStandingsDelay,
			ResetDelay:          cfg.Game.ResetDelay,
			EndGameResetDelay:   cfg.Game.EndGameResetDelay,
		},
		Scoring: scoring.Config{
			BaseScore:    cfg.Scoring.BaseScore,
			MaxTimeBonus: cfg.Scoring.MaxTimeBonus,
		},
		Metrics: metrics.New(opts.Registerer),
	}
	if archive != nil {
		engineOpts.Recorder = archive
	}

	hub := ws.NewHub(logger)
	store := session.NewStore(opts.Clock, logger)
	engine := session.NewEngine(store, session.NewHubBroadcaster(hub, logger), engineOpts, logger)

	wsHandler := session.NewHandler(engine, hub, tokens, server.NewUpgrader(cfg.CORS.AllowedOrigins), logger)
	restHandler := session.NewHTTPHandler(engine, tokens, logger)
	historyHandler := leaderboard.NewHTTPHandler(archive, logger)
	requireHost := auth.RequireHost(tokens, session.NormalizeCode, logger)

	routes := server.Routes{
		CreateSession: restHandler.CreateSession,
		JoinSession:   restHandler.JoinSession,
		GetSession:    restHandler.GetSession,
		HostCommand:   requireHost(http.HandlerFunc(restHandler.HostCommand)),
		History:       historyHandler.HandleHistory,
		WebSocket:     wsHandler.HandleWebSocket,
	}
	if redisClient != nil {
		routes.Health = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	a := &Application{
		cfg:    cfg,
		logger: logger,
		redis:  redisClient,
		engine: engine,
		tokens: tokens,
		http:   server.NewHTTPServer(cfg, logger, routes),
	}

	if opts.Seed != nil {
		if err := a.seed(ctx, *opts.Seed); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// seed registers set as a waiting session and logs its host credentials.
func (a *Application) seed(ctx context.Context, set question.Set) error {
	code, err := a.engine.CreateSession(ctx, set.Title, set.Questions)
	if err != nil {
		return fmt.Errorf("seed session: %w", err)
	}
	token, err := a.tokens.IssueHostToken(code)
	if err != nil {
		return fmt.Errorf("seed session token: %w", err)
	}
	a.logger.Info().
		Str("session_code", code).
		Str("title", set.Title).
		Str("host_token", token).
		Msg("seed session ready")
	return nil
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then
// shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()
	a.close()
	a.logger.Info().Msg("shutdown complete")
	return err
}

func (a *Application) close() {
	a.engine.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
