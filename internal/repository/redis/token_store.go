package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenUsed is returned when a reset token is presented a second
	// time.
	ErrTokenUsed = errors.New("token already used")
)

// TokenStore tracks consumed password-reset tokens in redis so each token
// is honoured at most once across all instances.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(url string) (*TokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &TokenStore{client: redis.NewClient(opts)}, nil
}

// Consume marks tokenID as used. The key only needs to outlive the token
// itself, so it expires with the given ttl.
func (s *TokenStore) Consume(ctx context.Context, tokenID string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, "reset-token:"+tokenID, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to mark token consumed: %w", err)
	}
	if !ok {
		return ErrTokenUsed
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}
