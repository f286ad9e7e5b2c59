package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Compile-time check that RedisRepository implements Repository.
var _ Repository = (*RedisRepository)(nil)

// redisKeyPrefix namespaces job records in the keyspace.
const redisKeyPrefix = "mediaforge:job:"

// RedisRepository persists jobs as JSON documents in Redis. It allows job
// state to survive restarts and be shared between instances; file paths it
// records are only meaningful on the host that owns the work directory.
type RedisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a Redis-backed job repository.
func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Save persists a snapshot of the job.
func (r *RedisRepository) Save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job.Clone())
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := r.client.Set(ctx, redisKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// FindByID retrieves a job by its ID.
// Returns ErrJobNotFound if the key does not exist.
func (r *RedisRepository) FindByID(ctx context.Context, id string) (*Job, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// List returns all jobs, scanning the keyspace in batches.
func (r *RedisRepository) List(ctx context.Context) ([]*Job, error) {
	var jobs []*Job
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// Deleted between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("unmarshal job at %s: %w", iter.Val(), err)
		}
		jobs = append(jobs, &job)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job record.
// Returns ErrJobNotFound if the job does not exist.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}
