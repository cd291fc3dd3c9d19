package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore records which issued tokens are still signed in.
type SessionStore interface {
	Create(ctx context.Context, sessionID, profileID string, ttl time.Duration) error
	// Lookup returns the profile id of a live session, or "" when there is none.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "tilapiahub:session:"

// RedisSessionStore keeps one key per session, expiring with the token.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (r *RedisSessionStore) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *RedisSessionStore) Create(ctx context.Context, sessionID, profileID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(sessionID), profileID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	profileID, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return profileID, nil
}

func (r *RedisSessionStore) Revoke(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
