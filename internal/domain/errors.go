package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation is not allowed in the current session phase.
	ErrInvalidState = errors.New("operation not allowed in current session state")
	// ErrInvalidChoice indicates a submitted choice outside 1..4.
	ErrInvalidChoice = errors.New("choice must be between 1 and 4")
	// ErrNoResumableSession is returned when resuming a mode that has no suspended run.
	ErrNoResumableSession = errors.New("no resumable session for mode")
	// ErrUnknownDifficulty indicates a difficulty tag outside the known set.
	ErrUnknownDifficulty = errors.New("difficulty not found")
	// ErrPlayerNotFound indicates the player record does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrSessionNotFound is returned when a player has no session yet.
	ErrSessionNotFound = errors.New("game session not found")
)
