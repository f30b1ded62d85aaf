package hunt

import (
	"errors"
	"fmt"
	"time"
)

// Code is the closed set of outcomes an engine operation can fail with.
type Code string

const (
	CodeDisqualified        Code = "disqualified"
	CodeEventInactive       Code = "event_inactive"
	CodeHuntNotStarted      Code = "hunt_not_started"
	CodeHuntTimedOut        Code = "hunt_timed_out"
	CodeInvalidToken        Code = "invalid_token"
	CodeHuntAlreadyComplete Code = "hunt_already_complete"
	CodeWrongClue           Code = "wrong_clue"
	CodeAlreadyScanned      Code = "already_scanned"
	CodeHintNotYetAvailable Code = "hint_not_yet_available"
	CodeNoCluesConfigured   Code = "no_clues_configured"
	CodeHuntInProgress      Code = "hunt_in_progress"
	CodeConflict            Code = "conflict"
	CodeNotFound            Code = "not_found"
	CodeInvalidInput        Code = "invalid_input"
	CodePersistence         Code = "persistence_error"
)

// Retriable reports whether repeating the same attempt can succeed.
func (c Code) Retriable() bool {
	switch c {
	case CodeDisqualified, CodeHuntTimedOut, CodeHuntAlreadyComplete, CodeWrongClue, CodeConflict:
		return false
	}
	return true
}

type Error struct {
	Code    Code
	Message string
	// Wait is how long until a HintNotYetAvailable hint unlocks.
	Wait time.Duration
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func persistence(msg string, err error) *Error {
	return &Error{Code: CodePersistence, Message: msg, Err: err}
}

// CodeOf returns the Code carried by err. Errors outside the taxonomy are
// reported as CodePersistence; nil yields "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var he *Error
	if errors.As(err, &he) {
		return he.Code
	}
	return CodePersistence
}
