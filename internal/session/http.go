package session

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-live/internal/question"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// HTTPHandler exposes the REST bootstrap endpoints.
type HTTPHandler struct {
	engine *Engine
	tokens *jwt.Manager
	logger zerolog.Logger
}

// NewHTTPHandler constructs the REST handler.
func NewHTTPHandler(engine *Engine, tokens *jwt.Manager, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		engine: engine,
		tokens: tokens,
		logger: logger.With().Str("component", "session_http").Logger(),
	}
}

type createSessionRequest struct {
	Title     string            `json:"title"`
	Questions []question.Source `json:"questions"`
}

type createSessionResponse struct {
	Code      string `json:"code"`
	HostToken string `json:"host_token"`
}

type joinRequest struct {
	PlayerName string `json:"player_name"`
}

type joinResponse struct {
	Code       string     `json:"code"`
	PlayerName string     `json:"player_name"`
	Result     JoinResult `json:"result"`
	Players    []Player   `json:"players"`
}

type hostCommandRequest struct {
	Kind string `json:"kind"`
}

// CreateSession handles POST /v1/sessions.
func (h *HTTPHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "title is required", "title")
		return
	}

	code, err := h.engine.CreateSession(r.Context(), title, req.Questions)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.tokens.IssueHostToken(code)
	if err != nil {
		h.logger.Error().Err(err).Str("session_code", code).Msg("issue host token")
		httperrors.RespondInternalError(w, "Failed to issue host token")
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: code, HostToken: token})
}

// JoinSession handles POST /v1/sessions/{code}/players.
func (h *HTTPHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	code := NormalizeCode(r.PathValue("code"))
	result, err := h.engine.Join(r.Context(), code, req.PlayerName)
	if err != nil {
		respondError(w, err)
		return
	}

	snap, err := h.engine.Get(code)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{
		Code:       code,
		PlayerName: trimName(req.PlayerName),
		Result:     result,
		Players:    snap.Players,
	})
}

// GetSession handles GET /v1/sessions/{code}.
func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Get(r.PathValue("code"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HostCommand handles POST /v1/sessions/{code}/commands. It must sit behind
// auth.RequireHost.
func (h *HTTPHandler) HostCommand(w http.ResponseWriter, r *http.Request) {
	var req hostCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	kind, err := ParseHostCommand(req.Kind)
	if err != nil {
		respondError(w, err)
		return
	}

	code := NormalizeCode(r.PathValue("code"))
	if err := h.engine.HostCommand(r.Context(), code, kind); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "kind": string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
