package session

import "errors"

// Sentinel errors returned by the state machine and registry.
var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned when registering an id that is already taken.
	ErrExists = errors.New("session already exists")

	// ErrNotActive is returned for operations that require an active session.
	ErrNotActive = errors.New("session is not active")

	// ErrNotPaused is returned when resuming a session that is not paused.
	ErrNotPaused = errors.New("session is not paused")

	// ErrTerminal is returned for any transition out of completed or cancelled.
	ErrTerminal = errors.New("session is in a terminal state")

	// ErrNotTerminal is returned when removing a session that has not
	// yet completed or been cancelled.
	ErrNotTerminal = errors.New("session is not finished")

	// ErrUnknownQuestion is returned when an answer names a question
	// that is not part of the session.
	ErrUnknownQuestion = errors.New("question does not belong to session")

	// ErrAlreadyAnswered is returned when an answer names a question
	// that already has a stored record.
	ErrAlreadyAnswered = errors.New("question already answered")
)
