package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bizgenius/api/internal/model"
)

// UserStore persists user account records, indexed by id and by Stripe
// customer id (for webhook-driven subscription sync).
type UserStore struct {
	redis *redis.Client
}

func NewUserStore(redisClient *redis.Client) *UserStore {
	return &UserStore{redis: redisClient}
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.get(ctx, userKey(userID))
}

func (s *UserStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	userID, err := s.redis.Get(ctx, customerIndexKey(customerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, userID)
}

func (s *UserStore) Save(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	if user.StripeCustomerID != "" {
		pipe.Set(ctx, customerIndexKey(user.StripeCustomerID), user.ID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetOrCreate loads a user record, creating a free-tier record on first use.
func (s *UserStore) GetOrCreate(ctx context.Context, userID, email string) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	user = &model.User{
		ID:               userID,
		Email:            email,
		SubscriptionTier: model.TierFree,
		CreatedAt:        time.Now(),
	}
	if err := s.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IncrementAnalyses bumps the user's monthly analysis counter.
func (s *UserStore) IncrementAnalyses(ctx context.Context, userID string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.AnalysesUsedThisMonth++
	return s.Save(ctx, user)
}

func (s *UserStore) get(ctx context.Context, key string) (*model.User, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func userKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func customerIndexKey(customerID string) string {
	return fmt.Sprintf("user:customer:%s", customerID)
}
