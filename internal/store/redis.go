package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mirage/internal/domain"
)

const (
	jobKeyPrefix   = "job:"
	relayKeyPrefix = "relay:"
)

// Redis is the durable job store. Records are JSON values with a TTL equal
// to the retention threshold, so retention is enforced by redis itself and
// Sweep is a no-op.
type Redis struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedis creates a redis-backed job store with the given retention.
func NewRedis(client redis.UniversalClient, retention time.Duration) *Redis {
	return &Redis{client: client, retention: retention}
}

func (s *Redis) Put(ctx context.Context, job domain.Job) error {
	key := jobKeyPrefix + job.ID

	if prev, err := s.Get(ctx, job.ID); err == nil {
		job.CreatedAt = prev.CreatedAt
		if prev.Terminal() {
			if job.Status != prev.Status || job.Image != prev.Image || job.Error != prev.Error {
				return nil
			}
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	} else if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	// The TTL shrinks with the record's age so an overwrite never extends
	// its life past the retention threshold.
	ttl := s.retention - time.Since(job.CreatedAt)
	if ttl <= 0 {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (domain.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, fmt.Errorf("redis get: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return domain.Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}

// Sweep is a no-op: the per-key TTL already bounds record age.
func (s *Redis) Sweep(context.Context, time.Duration) (int, error) {
	return 0, nil
}

func (s *Redis) Len(ctx context.Context) (int, error) {
	var count int
	iter := s.client.Scan(ctx, 0, jobKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

var _ domain.JobStore = (*Redis)(nil)

// RedisRelay stores decoded callback payloads under the relay's source
// message id, mirroring what the callback route needs for polling.
type RedisRelay struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedisRelay creates a redis-backed relay payload store.
func NewRedisRelay(client redis.UniversalClient, retention time.Duration) *RedisRelay {
	return &RedisRelay{client: client, retention: retention}
}

func (s *RedisRelay) Save(ctx context.Context, id, payload string) error {
	if err := s.client.Set(ctx, relayKeyPrefix+id, payload, s.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisRelay) Load(ctx context.Context, id string) (string, error) {
	payload, err := s.client.Get(ctx, relayKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return payload, nil
}

var _ domain.RelayStore = (*RedisRelay)(nil)
