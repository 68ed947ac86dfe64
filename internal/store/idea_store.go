package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bizgenius/api/internal/model"
)

// IdeaStore persists saved ideas, with a per-user index set for listing.
type IdeaStore struct {
	redis *redis.Client
}

func NewIdeaStore(redisClient *redis.Client) *IdeaStore {
	return &IdeaStore{redis: redisClient}
}

func (s *IdeaStore) Save(ctx context.Context, idea *model.Idea) error {
	data, err := json.Marshal(idea)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, ideaKey(idea.ID), data, 0)
	pipe.SAdd(ctx, userIdeasKey(idea.UserID), idea.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *IdeaStore) Get(ctx context.Context, ideaID string) (*model.Idea, error) {
	data, err := s.redis.Get(ctx, ideaKey(ideaID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var idea model.Idea
	if err := json.Unmarshal(data, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *IdeaStore) Delete(ctx context.Context, userID, ideaID string) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, ideaKey(ideaID))
	pipe.SRem(ctx, userIdeasKey(userID), ideaID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *IdeaStore) ListByUser(ctx context.Context, userID string) ([]*model.Idea, error) {
	ids, err := s.redis.SMembers(ctx, userIdeasKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	ideas := make([]*model.Idea, 0, len(ids))
	for _, id := range ids {
		idea, err := s.Get(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				// Stale index entry; skip it.
				continue
			}
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func (s *IdeaStore) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, userIdeasKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func ideaKey(ideaID string) string {
	return fmt.Sprintf("idea:%s", ideaID)
}

func userIdeasKey(userID string) string {
	return fmt.Sprintf("user:%s:ideas", userID)
}
