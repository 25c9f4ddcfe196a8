package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mirage/internal/domain"
)

// Postgres is the durable job store backed by a jobs table. The terminal
// overwrite guard lives in the UPDATE predicate, so duplicate deliveries
// converge without a read-modify-write cycle.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a postgres-backed job store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the jobs table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    prompt     TEXT NOT NULL,
    provider   TEXT NOT NULL,
    status     TEXT NOT NULL,
    image      TEXT NOT NULL DEFAULT '',
    error      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *Postgres) Put(ctx context.Context, job domain.Job) error {
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `
INSERT INTO jobs (id, prompt, provider, status, image, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    image  = EXCLUDED.image,
    error  = EXCLUDED.error
WHERE jobs.status = 'pending'
   OR (jobs.status = EXCLUDED.status AND jobs.image = EXCLUDED.image AND jobs.error = EXCLUDED.error);
`
	_, err := s.pool.Exec(ctx, query,
		job.ID,
		job.Prompt,
		job.Provider,
		job.Status,
		job.Image,
		job.Error,
		createdAt,
	)
	return err
}

func (s *Postgres) Get(ctx context.Context, id string) (domain.Job, error) {
	query := `
SELECT id, prompt, provider, status, image, error, created_at
FROM jobs
WHERE id = $1;
`
	row := s.pool.QueryRow(ctx, query, id)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Prompt,
		&job.Provider,
		&job.Status,
		&job.Image,
		&job.Error,
		&job.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, err
	}
	return job, nil
}

func (s *Postgres) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Postgres) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ domain.JobStore = (*Postgres)(nil)
