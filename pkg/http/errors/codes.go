package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidQuestions = "invalid_questions"

	// Resource errors
	ErrCodeNotFound        = "not_found"
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodePlayerNotFound  = "player_not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeNameTaken       = "name_taken"

	// Session state errors
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeNotWaiting       = "not_waiting"
	ErrCodeNoPlayers        = "no_players"
	ErrCodeNoActiveQuestion = "no_active_question"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeUnknownCommand     = "unknown_command"
	ErrCodeNotAttached        = "not_attached"
	ErrCodeAlreadyBound       = "already_bound"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// Feature availability
	ErrCodeFeatureNotAvailable = "feature_not_available"

	// Archive errors
	ErrCodeHistoryFetchFailed = "history_fetch_failed"
)
