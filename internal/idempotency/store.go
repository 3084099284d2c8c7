package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimTTL is how long a processed (transaction, status) pair stays claimed.
const ClaimTTL = 24 * time.Hour

// Store grants exclusive processing rights over webhook event keys. The
// claim is a single atomic SET NX, which makes it safe across multiple
// process instances receiving the same delivery.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Claim returns true exactly once per key within ttl; every later call with
// the same key returns false until the key expires.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "processed", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim, letting the event be processed again. Used when
// enqueueing fails after a successful claim.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// KeyFor derives the claim key for a provider transaction update. Status is
// part of the key so a legitimate progression (pending -> completed) is two
// distinct events while a redelivery of the same status is suppressed.
func KeyFor(transactionID, status string) string {
	return fmt.Sprintf("webhook:idempotency:%s:%s", transactionID, strings.ToLower(status))
}
