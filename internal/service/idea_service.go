package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/store"
)

var (
	ErrIdeaNotFound = errors.New("idea not found")
	ErrIdeaLimit    = errors.New("maximum ideas limit reached, please upgrade your plan")
)

// IdeaService saves completed sessions as named ideas under a user's account,
// enforcing the subscription tier's idea cap.
type IdeaService struct {
	ideas    *store.IdeaStore
	sessions *store.SessionStore
	users    *store.UserStore
}

func NewIdeaService(ideas *store.IdeaStore, sessions *store.SessionStore, users *store.UserStore) *IdeaService {
	return &IdeaService{
		ideas:    ideas,
		sessions: sessions,
		users:    users,
	}
}

// SaveFromSession persists a completed session's result as an idea and counts
// the analysis against the user's monthly quota.
func (s *IdeaService) SaveFromSession(ctx context.Context, userID, email string, req *model.IdeaSaveRequest) (*model.IdeaSaveResponse, error) {
	user, err := s.users.GetOrCreate(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	session, err := s.sessions.ReadSession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.Status != model.SessionStatusCompleted || session.Result == nil {
		return nil, ErrSessionNotCompleted
	}

	limits := model.LimitsForTier(user.SubscriptionTier)
	if limits.MaxIdeas != -1 {
		count, err := s.ideas.CountByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= limits.MaxIdeas {
			return nil, ErrIdeaLimit
		}
	}

	description := req.Description
	if description == "" {
		description = session.BusinessIdea
	}

	generatedAt := time.Now()
	if session.CompletedAt != nil {
		generatedAt = *session.CompletedAt
	}

	now := time.Now()
	idea := &model.Idea{
		ID:          uuid.New().String(),
		UserID:      userID,
		SessionID:   session.SessionID,
		Title:       req.Title,
		Description: description,
		Result:      session.Result,
		GeneratedAt: generatedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.ideas.Save(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to save idea: %w", err)
	}

	if err := s.users.IncrementAnalyses(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to update usage: %w", err)
	}

	return &model.IdeaSaveResponse{IdeaID: idea.ID}, nil
}

// List returns the user's saved ideas, newest first.
func (s *IdeaService) List(ctx context.Context, userID string) (*model.IdeaListResponse, error) {
	ideas, err := s.ideas.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(ideas, func(i, j int) bool {
		return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
	})

	summaries := make([]model.IdeaSummary, 0, len(ideas))
	for _, idea := range ideas {
		summaries = append(summaries, model.IdeaSummary{
			ID:          idea.ID,
			Title:       idea.Title,
			Description: idea.Description,
			GeneratedAt: idea.GeneratedAt,
			CreatedAt:   idea.CreatedAt,
		})
	}

	return &model.IdeaListResponse{Ideas: summaries}, nil
}

// Get returns one idea, enforcing ownership.
func (s *IdeaService) Get(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	idea, err := s.ideas.Get(ctx, ideaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrIdeaNotFound
		}
		return nil, err
	}

	if idea.UserID != userID {
		return nil, ErrIdeaNotFound
	}
	return idea, nil
}

// Delete removes one idea, enforcing ownership.
func (s *IdeaService) Delete(ctx context.Context, userID, ideaID string) error {
	if _, err := s.Get(ctx, userID, ideaID); err != nil {
		return err
	}
	return s.ideas.Delete(ctx, userID, ideaID)
}
