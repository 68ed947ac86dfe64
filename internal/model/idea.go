package model

import (
	"encoding/json"
	"time"
)

// Idea is a completed business plan saved under a user's account.
type Idea struct {
	ID          string                     `json:"id"`
	UserID      string                     `json:"userId"`
	SessionID   string                     `json:"sessionId"`
	Title       string                     `json:"title"`
	Description string                     `json:"description,omitempty"`
	Result      map[string]json.RawMessage `json:"result"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
}

// IdeaSaveRequest saves a completed session's result as a named idea
type IdeaSaveRequest struct {
	SessionID   string `json:"sessionId" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// IdeaSaveResponse is returned after saving an idea
type IdeaSaveResponse struct {
	IdeaID string `json:"ideaId"`
}

// IdeaSummary is the list-view projection of an idea
type IdeaSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IdeaListResponse lists a user's saved ideas
type IdeaListResponse struct {
	Ideas []IdeaSummary `json:"ideas"`
}
