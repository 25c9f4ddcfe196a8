package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/domain"
)

// setupTestPostgres connects to TEST_DATABASE_URL and skips when the
// database is unreachable.
func setupTestPostgres(t *testing.T) *Postgres {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres not available: %v", err)
	}

	s := NewPostgres(pool)
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE jobs;`)
		pool.Close()
	})
	return s
}

func TestPostgresPutGetSweep(t *testing.T) {
	s := setupTestPostgres(t)
	ctx := context.Background()

	old := domain.NewJob("old", "a cat", "gemini")
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.Put(ctx, old))

	fresh := domain.NewJob("fresh", "a dog", "gemini")
	require.NoError(t, s.Put(ctx, fresh))

	got, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, got.Status)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := s.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresTerminalRecordsConverge(t *testing.T) {
	s := setupTestPostgres(t)
	ctx := context.Background()

	job := domain.NewJob("j1", "a cat", "gemini")
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
	assert.Empty(t, got.Error)
}
