package leaderboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/session"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// HTTPHandler exposes the archived standings of a session code.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs the handler. svc may be nil when Redis is not
// configured; every request then answers 404.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

type historyResponse struct {
	Code string  `json:"code"`
	Runs []Run   `json:"runs"`
	Top  []Entry `json:"top"`
}

// HandleHistory responds with recent runs and the cumulative board.
// Route: GET /v1/sessions/{code}/history?limit=10
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeFeatureNotAvailable, "standings archive is disabled")
		return
	}

	code := session.NormalizeCode(r.PathValue("code"))
	if code == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "session code is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	runs, err := h.svc.History(ctx, code, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_code", code).Msg("history fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryFetchFailed, "failed to load history")
		return
	}
	top, err := h.svc.Top(ctx, code, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_code", code).Msg("leaderboard fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryFetchFailed, "failed to load leaderboard")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(historyResponse{Code: code, Runs: runs, Top: top})
}
