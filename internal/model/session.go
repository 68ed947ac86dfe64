package model

import (
	"encoding/json"
	"time"
)

// GenerationSession is the persisted record of one business plan generation.
// One session corresponds to one full pipeline run; retrying a failed session
// starts a new run against the same record.
type GenerationSession struct {
	SessionID    string                     `json:"sessionId"`
	UserID       string                     `json:"userId,omitempty"`
	BusinessIdea string                     `json:"businessIdea"`
	Answers      map[string]string          `json:"answers,omitempty"`
	Status       SessionStatus              `json:"status"`
	CurrentStep  string                     `json:"currentStep,omitempty"`
	Progress     int                        `json:"progress"`
	Result       map[string]json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string                    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time                  `json:"createdAt"`
	UpdatedAt    time.Time                  `json:"updatedAt"`
	CompletedAt  *time.Time                 `json:"completedAt,omitempty"`
}

// SessionUpdate is a partial-field update applied to a session record.
// Nil fields are left untouched.
type SessionUpdate struct {
	Status       *SessionStatus
	CurrentStep  *string
	Progress     *int
	Result       map[string]json.RawMessage
	ErrorMessage *string
}

// SessionCreateRequest starts a new generation session
type SessionCreateRequest struct {
	Idea    string            `json:"idea" validate:"required,min=10,max=2000"`
	Answers map[string]string `json:"answers" validate:"omitempty,max=20"`
}

// SessionCreateResponse is returned when a session is queued
type SessionCreateResponse struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SessionStatusResponse reports generation progress (for polling)
type SessionStatusResponse struct {
	SessionID    string        `json:"sessionId"`
	Status       SessionStatus `json:"status"`
	CurrentStep  string        `json:"currentStep,omitempty"`
	Progress     int           `json:"progress"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// SessionResultResponse carries the full generated plan of a completed session
type SessionResultResponse struct {
	SessionID   string                     `json:"sessionId"`
	Result      map[string]json.RawMessage `json:"result"`
	CompletedAt *time.Time                 `json:"completedAt,omitempty"`
}

// SessionRetryResponse is returned when a failed session is re-queued
type SessionRetryResponse struct {
	Success   bool          `json:"success"`
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
}
