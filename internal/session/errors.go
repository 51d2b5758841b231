package session

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store or the engine wraps exactly
// one of these, so transports can map them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

var (
	// ErrSessionNotFound is returned for an unknown session code.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrNotFound)
	// ErrPlayerNotFound is returned when a name is not registered in the session.
	ErrPlayerNotFound = fmt.Errorf("%w: player not found", ErrNotFound)
	// ErrNotWaiting is returned when joining or starting a session that already began.
	ErrNotWaiting = fmt.Errorf("%w: session is not accepting players", ErrInvalidState)
	// ErrNoPlayers is returned when the host starts an empty session.
	ErrNoPlayers = fmt.Errorf("%w: no players", ErrInvalidState)
	// ErrNotActive is returned for question commands outside an active game.
	ErrNotActive = fmt.Errorf("%w: session is not active", ErrInvalidState)
	// ErrNotFinished is returned when resetting a session that has not finished.
	ErrNotFinished = fmt.Errorf("%w: session is not finished", ErrInvalidState)
	// ErrNoActiveQuestion is returned when ending a question that is not open.
	ErrNoActiveQuestion = fmt.Errorf("%w: no question is accepting answers", ErrInvalidState)
	// ErrAnswerWindowClosed is returned for answers submitted outside the active phase.
	ErrAnswerWindowClosed = fmt.Errorf("%w: answer window closed", ErrInvalidState)
	// ErrNameTaken is returned when a connected player already holds the name.
	ErrNameTaken = fmt.Errorf("%w: player name already taken", ErrConflict)
	// ErrAlreadyAnswered is returned for a second answer to the same question.
	ErrAlreadyAnswered = fmt.Errorf("%w: already answered", ErrConflict)
	// ErrEmptyName is returned for blank player names.
	ErrEmptyName = fmt.Errorf("%w: player name is required", ErrValidation)
	// ErrUnknownCommand is returned for host commands outside the closed set.
	ErrUnknownCommand = fmt.Errorf("%w: unknown host command", ErrValidation)
)

// IsExpectedRace reports whether err is a late or duplicate answer, which
// happen routinely around question boundaries and are only logged.
func IsExpectedRace(err error) bool {
	return errors.Is(err, ErrAnswerWindowClosed) || errors.Is(err, ErrAlreadyAnswered)
}
