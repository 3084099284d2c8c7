package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func TestClaimIsExclusive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	key := KeyFor("tx_1", "completed")

	first, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	for i := 0; i < 3; i++ {
		again, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, again)
	}
}

func TestClaimExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	key := KeyFor("tx_1", "completed")

	first, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	mr.FastForward(2 * time.Minute)

	again, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestReleaseAllowsReclaim(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	key := KeyFor("tx_1", "pending")

	_, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, key))

	again, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestKeyForStatusProgression(t *testing.T) {
	// A status progression forms two distinct keys; a redelivery of the
	// same status does not.
	assert.NotEqual(t, KeyFor("tx_1", "pending"), KeyFor("tx_1", "completed"))
	assert.Equal(t, KeyFor("tx_1", "COMPLETED"), KeyFor("tx_1", "completed"))
	assert.Equal(t, "webhook:idempotency:tx_1:completed", KeyFor("tx_1", "completed"))
}
