package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/domain"
)

// setupTestRedis connects to the redis instance named by REDIS_ADDR and
// skips the test when none is reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 9})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestRedisPutGet(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	job := domain.NewJob("j1", "a cat", "openai")
	require.NoError(t, s.Put(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, domain.JobStatusPending, got.Status)

	_, err = s.Get(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisTerminalRecordsConverge(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	job := domain.NewJob("j1", "a cat", "openai")
	require.NoError(t, s.Put(ctx, job))

	done := job
	require.True(t, done.Complete("aW1hZ2U="))
	require.NoError(t, s.Put(ctx, done))

	conflicting := job
	require.True(t, conflicting.Fail("late duplicate"))
	require.NoError(t, s.Put(ctx, conflicting))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, "aW1hZ2U=", got.Image)
}

func TestRedisTerminalWriteDoesNotExtendRetention(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	job := domain.NewJob("j1", "a cat", "openai")
	job.CreatedAt = time.Now().UTC().Add(-40 * time.Minute)
	require.NoError(t, s.Put(ctx, job))

	done := job
	require.True(t, done.Complete("aW1hZ2U="))
	require.NoError(t, s.Put(ctx, done))

	ttl, err := client.TTL(ctx, "job:j1").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 20*time.Minute)
	assert.Positive(t, ttl)
}

func TestRedisPutPastRetentionDeletes(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	job := domain.NewJob("j1", "a cat", "openai")
	require.NoError(t, s.Put(ctx, job))

	done := job
	done.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.True(t, done.Complete("aW1hZ2U="))
	require.NoError(t, s.Put(ctx, done))

	_, err := s.Get(ctx, "j1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisLenCountsJobKeysOnly(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	relay := NewRedisRelay(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.NewJob("j1", "a cat", "openai")))
	require.NoError(t, s.Put(ctx, domain.NewJob("j2", "a dog", "openai")))
	require.NoError(t, relay.Save(ctx, "m1", "{}"))

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedisRelayRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	relay := NewRedisRelay(client, time.Hour)
	ctx := context.Background()

	_, err := relay.Load(ctx, "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, relay.Save(ctx, "m1", `{"data":[{"b64_json":"abc"}]}`))
	payload, err := relay.Load(ctx, "m1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"b64_json":"abc"}]}`, payload)
}
