package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/nala/pkg/adapters/redis"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunDeckStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	deck := &domain.Deck{ID: "elegant-layout-line-0000000000000001", Code: "elegant", Content: "Q1: KQUAD\n"}

	require.NoError(t, store.Save(ctx, deck))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, deck.ID)

	// Key expiration happens on miniredis' clock
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, deck.ID)
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)

	// Index pruning compares against the wall clock
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Deck{ID: "my-deck"}))

	assert.True(t, mr.Exists("custom:app:my-deck"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-deck"}, ids)
	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client)
	require.NoError(t, store.Save(context.Background(), &domain.Deck{ID: "d1"}))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"d1"))
}

func TestRedisStore_CorruptedValue(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"broken", "{not json"))

	_, err := store.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDeckNotFound)
}
