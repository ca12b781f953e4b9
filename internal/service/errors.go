package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/validation"
)

var (
	// ErrSessionNotFound means the wizard session does not exist or its
	// TTL ran out.
	ErrSessionNotFound = errors.New("wizard session not found")

	// ErrInvalidTransition means the requested action is not allowed in
	// the session's current step.
	ErrInvalidTransition = errors.New("action not allowed in current step")

	// ErrUnknownStop rejects a stop id outside the configured timetable.
	ErrUnknownStop = errors.New("unknown shuttle stop")

	// ErrStaleQuery means a schedule response was issued under a token
	// the session has since moved past; its result must be discarded.
	ErrStaleQuery = errors.New("schedule query superseded")

	// ErrScheduleExpired means the chosen slot was lost before commit.
	// The session is parked on the Expired step; only Requery recovers.
	ErrScheduleExpired = errors.New("schedule slot expired")

	// ErrAmbiguousQuery means lookup received zero or several identifiers
	// where exactly one is required.
	ErrAmbiguousQuery = errors.New("exactly one of booking id, phone or email is required")

	// ErrRateLimited means the session exhausted its transition budget for
	// the current window.
	ErrRateLimited = errors.New("too many requests for this session")
)

// ValidationError carries the per-field results of a failed details check.
// Error keys inside are catalog keys, rendered by the presentation binder.
type ValidationError struct {
	Fields validation.Fields
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for name, key := range e.Fields.ErrorKeys() {
		keys = append(keys, fmt.Sprintf("%s=%s", name, key))
	}
	return "validation failed: " + strings.Join(keys, ", ")
}
