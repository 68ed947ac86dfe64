package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/bizgenius/api/internal/generation"
	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/store"
)

const TaskTypeGeneration = "generation:run"

// generationTimeout bounds one full pipeline run inside the task queue.
const generationTimeout = 30 * time.Minute

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotCompleted = errors.New("session not completed")
	ErrSessionNotFailed    = errors.New("can only retry failed sessions")
	ErrAnalysisLimit       = errors.New("monthly analysis limit reached, please upgrade your plan")
)

// GenerationTaskPayload is the asynq task body for one pipeline run.
type GenerationTaskPayload struct {
	SessionID string `json:"sessionId"`
}

// SessionService manages generation session lifecycle: creation, status,
// result retrieval, and retry of failed sessions.
type SessionService struct {
	sessions    *store.SessionStore
	users       *store.UserStore
	asynqClient *asynq.Client
	registry    *generation.Registry
}

func NewSessionService(sessions *store.SessionStore, users *store.UserStore, asynqClient *asynq.Client, registry *generation.Registry) *SessionService {
	return &SessionService{
		sessions:    sessions,
		users:       users,
		asynqClient: asynqClient,
		registry:    registry,
	}
}

// CreateSession records a new pending session and queues its pipeline run.
func (s *SessionService) CreateSession(ctx context.Context, userID, email string, req *model.SessionCreateRequest) (*model.SessionCreateResponse, error) {
	user, err := s.users.GetOrCreate(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	limits := model.LimitsForTier(user.SubscriptionTier)
	if limits.AnalysesPerMonth != -1 && user.AnalysesUsedThisMonth >= limits.AnalysesPerMonth {
		return nil, ErrAnalysisLimit
	}

	now := time.Now()
	session := &model.GenerationSession{
		SessionID:    newSessionID(now),
		UserID:       userID,
		BusinessIdea: req.Idea,
		Answers:      req.Answers,
		Status:       model.SessionStatusPending,
		CurrentStep:  s.registry.Stages()[0].ID,
		Progress:     0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if err := s.enqueueRun(ctx, session.SessionID); err != nil {
		return nil, err
	}

	return &model.SessionCreateResponse{
		SessionID: session.SessionID,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
	}, nil
}

// GetStatus returns a session's progress snapshot for polling.
func (s *SessionService) GetStatus(ctx context.Context, sessionID string) (*model.SessionStatusResponse, error) {
	session, err := s.readSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &model.SessionStatusResponse{
		SessionID:    session.SessionID,
		Status:       session.Status,
		CurrentStep:  session.CurrentStep,
		Progress:     session.Progress,
		ErrorMessage: session.ErrorMessage,
		CreatedAt:    session.CreatedAt,
		CompletedAt:  session.CompletedAt,
	}, nil
}

// GetResult returns the full generated plan of a completed session.
func (s *SessionService) GetResult(ctx context.Context, sessionID string) (*model.SessionResultResponse, error) {
	session, err := s.readSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusCompleted || session.Result == nil {
		return nil, ErrSessionNotCompleted
	}

	return &model.SessionResultResponse{
		SessionID:   session.SessionID,
		Result:      session.Result,
		CompletedAt: session.CompletedAt,
	}, nil
}

// Retry re-runs a failed session's pipeline from the first stage. Context
// accumulation makes resuming mid-pipeline undefined, so a retry is always a
// full fresh run against the same record.
func (s *SessionService) Retry(ctx context.Context, sessionID string) (*model.SessionRetryResponse, error) {
	session, err := s.readSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusFailed {
		return nil, ErrSessionNotFailed
	}

	if err := s.sessions.ResetForRetry(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	if err := s.enqueueRun(ctx, sessionID); err != nil {
		return nil, err
	}

	return &model.SessionRetryResponse{
		Success:   true,
		SessionID: sessionID,
		Status:    model.SessionStatusPending,
	}, nil
}

func (s *SessionService) readSession(ctx context.Context, sessionID string) (*model.GenerationSession, error) {
	session, err := s.sessions.ReadSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) enqueueRun(ctx context.Context, sessionID string) error {
	payload, err := json.Marshal(GenerationTaskPayload{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeGeneration, payload)
	// Retries live inside the stage executor; a crashed run surfaces as a
	// failed session, re-runnable through the retry endpoint.
	_, err = s.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue("generation"),
		asynq.MaxRetry(0),
		asynq.Timeout(generationTimeout),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue generation: %w", err)
	}
	return nil
}

func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:13]
	return fmt.Sprintf("sess_%d_%s", now.UnixMilli(), suffix)
}
