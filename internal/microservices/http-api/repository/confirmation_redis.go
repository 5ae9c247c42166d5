package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound means no confirmation code is pending for the user, either
// none was issued or it expired.
var ErrCodeNotFound = errors.New("confirmation code not found")

// ConfirmationStore keeps pending signup confirmation codes. Codes are stored
// hashed and expire on their own through the TTL.
type ConfirmationStore interface {
	Save(ctx context.Context, userID, codeHash string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type confirmationRedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConfirmationRedisStore(client *redis.Client, ttl time.Duration) ConfirmationStore {
	return &confirmationRedisStore{client: client, ttl: ttl}
}

func confirmationKey(userID string) string {
	return fmt.Sprintf("confirm:user:%s", userID)
}

// Save stores the code hash, replacing any earlier pending code for the user.
func (s *confirmationRedisStore) Save(ctx context.Context, userID, codeHash string) error {
	if err := s.client.Set(ctx, confirmationKey(userID), codeHash, s.ttl).Err(); err != nil {
		return fmt.Errorf("save confirmation code: %w", err)
	}
	return nil
}

func (s *confirmationRedisStore) Get(ctx context.Context, userID string) (string, error) {
	hash, err := s.client.Get(ctx, confirmationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load confirmation code: %w", err)
	}
	return hash, nil
}

func (s *confirmationRedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, confirmationKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete confirmation code: %w", err)
	}
	return nil
}
