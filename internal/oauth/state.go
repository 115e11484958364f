package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateTTL       = 10 * time.Minute
	statePrefix    = "oauthstate:"
	stateByteCount = 24
)

// StateStore issues and consumes the single-use state nonces that bind
// an OAuth redirect to its callback. A nonce validates exactly once;
// replayed or invented states are rejected.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a state store backed by the given Valkey client.
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Issue generates a nonce and stores it with a short TTL.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	b := make([]byte, stateByteCount)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}
	state := hex.EncodeToString(b)

	if err := s.client.Set(ctx, statePrefix+state, "1", stateTTL).Err(); err != nil {
		return "", fmt.Errorf("oauth state store: %w", err)
	}
	return state, nil
}

// Consume validates a state nonce and deletes it so it cannot be
// replayed. Returns false for unknown, expired, or already-used states.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	_, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("oauth state consume: %w", err)
	}
	return true, nil
}
