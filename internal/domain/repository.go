package domain

import (
	"context"
	"time"
)

// JobStore persists job records keyed by job id. Implementations must be
// safe for concurrent use: the creating request writes the pending record
// while a later background task writes the terminal one.
type JobStore interface {
	// Put inserts or overwrites the record for job.ID. Overwriting a
	// terminal record with a different terminal payload is rejected so
	// duplicate deliveries converge instead of alternating.
	Put(ctx context.Context, job Job) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (Job, error)
	// Sweep removes records older than maxAge regardless of status and
	// reports how many were removed. Stores with external retention
	// (TTL-based) may implement this as a no-op.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
	// Len reports the number of live records, for health reporting.
	Len(ctx context.Context) (int, error)
}

// RelayStore holds decoded callback payloads keyed by the relay's source
// message id until the client polls them.
type RelayStore interface {
	Save(ctx context.Context, id, payload string) error
	// Load returns the stored payload, or ErrNotFound if the callback has
	// not been delivered yet.
	Load(ctx context.Context, id string) (string, error)
}
