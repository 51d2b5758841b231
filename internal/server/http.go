package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/logging"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// NewUpgrader returns a WebSocket upgrader that accepts the configured
// origins. An empty list or "*" accepts every origin.
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowed = nil
			break
		}
		allowed[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// Routes carries the handlers mounted by NewHTTPServer. Nil handlers are
// answered with 501.
type Routes struct {
	CreateSession http.HandlerFunc
	JoinSession   http.HandlerFunc
	GetSession    http.HandlerFunc
	HostCommand   http.Handler
	History       http.HandlerFunc
	WebSocket     http.HandlerFunc

	// Health reports dependency health for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

// NewHTTPServer wires the session API, health and metrics routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, routes Routes) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, logger, routes),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, CORS-wrapped handler tree.
func NewHandler(cfg *config.App, logger zerolog.Logger, routes Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if routes.Health != nil {
			if err := routes.Health(r.Context()); err != nil {
				reqLogger := logging.FromContext(r.Context())
				reqLogger.Error().Err(err).Msg("dependency ping failed")
				httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "dependency unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /v1/sessions", orNotImplemented(routes.CreateSession))
	mux.Handle("POST /v1/sessions/{code}/players", orNotImplemented(routes.JoinSession))
	mux.Handle("GET /v1/sessions/{code}", orNotImplemented(routes.GetSession))
	mux.Handle("GET /v1/sessions/{code}/history", orNotImplemented(routes.History))
	mux.Handle("GET /ws", orNotImplemented(routes.WebSocket))
	if routes.HostCommand != nil {
		mux.Handle("POST /v1/sessions/{code}/commands", routes.HostCommand)
	} else {
		mux.Handle("POST /v1/sessions/{code}/commands", notImplemented())
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})

	return c.Handler(requestLogger(logger, mux))
}

func orNotImplemented(h http.HandlerFunc) http.Handler {
	if h == nil {
		return notImplemented()
	}
	return h
}

func notImplemented() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "handler not configured", http.StatusNotImplemented)
	})
}

// requestLogger puts a request-scoped logger into the context and logs each
// completed request.
func requestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ctx := logging.IntoContext(r.Context(), reqLogger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		evt := reqLogger.Debug()
		if rec.status >= http.StatusInternalServerError {
			evt = reqLogger.Warn()
		}
		evt.Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
