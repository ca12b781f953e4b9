package models

import "time"

// SessionState is one wizard session as persisted in the state repository.
// Step and Draft advance together; QueryToken increases monotonically so a
// schedule response that arrives after the session moved on can be dropped.
type SessionState struct {
	SessionID  string       `json:"session_id"`
	Step       Step         `json:"step"`
	Language   Language     `json:"language"`
	Draft      DraftBooking `json:"draft"`
	QueryToken int64        `json:"query_token"`
	ModifyOf   string       `json:"modify_of,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewSessionState starts a session at the Direction step with an empty draft.
func NewSessionState(sessionID string, lang Language) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Step:      StepDirection,
		Language:  lang,
		UpdatedAt: time.Now(),
	}
}

// NextToken bumps and returns the stale-response guard token.
func (s *SessionState) NextToken() int64 {
	s.QueryToken++
	return s.QueryToken
}

// Current reports whether a response issued under token may still be applied.
func (s *SessionState) Current(token int64) bool {
	return s.QueryToken == token
}
