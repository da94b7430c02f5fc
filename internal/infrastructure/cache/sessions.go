package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the set of revoked access tokens.
// Logout writes the token id here with a TTL equal to the token's remaining
// life, so entries expire on their own once the token would be dead anyway.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("session:revoked:%s", tokenID)
}

// Revoke marks a token id as terminated. Returns an error if the write fails;
// the caller must treat that as "session unchanged".
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired, nothing to revoke.
		return nil
	}

	if err := s.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been terminated.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, revocationKey(tokenID)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return true, nil
}
