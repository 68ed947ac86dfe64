package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bizgenius/api/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

const sessionTTL = 7 * 24 * time.Hour

// SessionStore persists generation sessions as JSON documents in Redis.
// It satisfies the pipeline orchestrator's store collaborator interface.
type SessionStore struct {
	redis *redis.Client
}

func NewSessionStore(redisClient *redis.Client) *SessionStore {
	return &SessionStore{redis: redisClient}
}

// CreateSession saves a new session record.
func (s *SessionStore) CreateSession(ctx context.Context, session *model.GenerationSession) error {
	return s.save(ctx, session)
}

// ReadSession loads a session by id.
func (s *SessionStore) ReadSession(ctx context.Context, sessionID string) (*model.GenerationSession, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var session model.GenerationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// WriteSessionStatus applies a partial-field update to a session record.
// Fields left nil in the update are untouched.
func (s *SessionStore) WriteSessionStatus(ctx context.Context, sessionID string, update model.SessionUpdate) error {
	session, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if update.Status != nil {
		session.Status = *update.Status
	}
	if update.CurrentStep != nil {
		session.CurrentStep = *update.CurrentStep
	}
	if update.Progress != nil {
		session.Progress = *update.Progress
	}
	if update.Result != nil {
		session.Result = update.Result
	}
	if update.ErrorMessage != nil {
		session.ErrorMessage = update.ErrorMessage
	}
	session.UpdatedAt = time.Now()
	if update.Status != nil && *update.Status == model.SessionStatusCompleted {
		now := time.Now()
		session.CompletedAt = &now
	}

	return s.save(ctx, session)
}

// ResetForRetry returns a failed session to pending so a new run can start.
func (s *SessionStore) ResetForRetry(ctx context.Context, sessionID string) error {
	session, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	session.Status = model.SessionStatusPending
	session.Progress = 0
	session.ErrorMessage = nil
	session.Result = nil
	session.CompletedAt = nil
	session.UpdatedAt = time.Now()

	return s.save(ctx, session)
}

func (s *SessionStore) save(ctx context.Context, session *model.GenerationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(session.SessionID), data, sessionTTL).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}
