package session

import (
	"errors"
	"net/http"

	"github.com/gokatarajesh/quiz-live/internal/question"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// ErrorCode maps an engine error onto the wire error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return httperrors.ErrCodeSessionNotFound
	case errors.Is(err, ErrPlayerNotFound):
		return httperrors.ErrCodePlayerNotFound
	case errors.Is(err, ErrNameTaken):
		return httperrors.ErrCodeNameTaken
	case errors.Is(err, ErrNotWaiting):
		return httperrors.ErrCodeNotWaiting
	case errors.Is(err, ErrNoPlayers):
		return httperrors.ErrCodeNoPlayers
	case errors.Is(err, ErrNoActiveQuestion):
		return httperrors.ErrCodeNoActiveQuestion
	case errors.Is(err, ErrUnknownCommand):
		return httperrors.ErrCodeUnknownCommand
	case errors.Is(err, question.ErrInvalid):
		return httperrors.ErrCodeInvalidQuestions
	case errors.Is(err, ErrNotFound):
		return httperrors.ErrCodeNotFound
	case errors.Is(err, ErrConflict):
		return httperrors.ErrCodeConflict
	case errors.Is(err, ErrInvalidState):
		return httperrors.ErrCodeInvalidState
	case errors.Is(err, ErrValidation):
		return httperrors.ErrCodeValidationFailed
	default:
		return httperrors.ErrCodeInternalError
	}
}

// HTTPStatus maps an engine error kind onto an HTTP status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status and code.
func respondError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		httperrors.RespondInternalError(w, "internal error")
		return
	}
	switch status {
	case http.StatusNotFound:
		httperrors.RespondNotFound(w, ErrorCode(err), err.Error())
	case http.StatusConflict:
		httperrors.RespondConflict(w, ErrorCode(err), err.Error())
	case http.StatusBadRequest:
		httperrors.RespondBadRequest(w, ErrorCode(err), err.Error())
	default:
		httperrors.RespondError(w, status, ErrorCode(err), err.Error())
	}
}
