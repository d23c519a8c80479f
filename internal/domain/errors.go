package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session exists for a join code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotHost is returned when a host-only operation is called by someone else.
	ErrNotHost = errors.New("only the host may perform this action")
	// ErrNotParticipant is returned when a user acts before joining the session.
	ErrNotParticipant = errors.New("participant not in session")
	// ErrSessionNotState is returned when an operation is invalid for the
	// session's current status (e.g. starting a non-lobby session).
	ErrSessionNotState = errors.New("operation not valid in current session state")
	// ErrStaleQuestion is returned when a submission references a question
	// index that is no longer current.
	ErrStaleQuestion = errors.New("question is no longer current")
	// ErrAnswerWindowClosed is returned when a submission arrives after the
	// question's time window plus the configured grace period.
	ErrAnswerWindowClosed = errors.New("answer window has closed")
	// ErrNoQuestions is returned when a session is created with an empty
	// question list.
	ErrNoQuestions = errors.New("session requires at least one question")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
