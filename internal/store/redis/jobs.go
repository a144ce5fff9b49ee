// Package redis keeps import job status in Redis so it survives restarts
// and is visible to every server instance.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/JonMunkholm/materials/internal/config"
	"github.com/JonMunkholm/materials/internal/core"
)

// client is the part of *redis.Client the job store uses.
type client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// JobStore implements core.JobStore. Entries expire after the configured
// TTL, so Purge has nothing to do.
type JobStore struct {
	client client
	prefix string
	ttl    time.Duration
}

// Connect dials Redis using cfg and verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address not set")
	}

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("connected to redis", "addr", cfg.Addr, "db", cfg.DB)

	return c, nil
}

// NewJobStore wraps a connected client.
func NewJobStore(c *redis.Client, cfg config.RedisConfig) *JobStore {
	return newJobStore(c, cfg.KeyPrefix, cfg.JobTTL)
}

func newJobStore(c client, prefix string, ttl time.Duration) *JobStore {
	return &JobStore{client: c, prefix: prefix, ttl: ttl}
}

func (s *JobStore) key(id string) string {
	return s.prefix + id
}

// Save implements core.JobStore. Each save refreshes the TTL.
func (s *JobStore) Save(ctx context.Context, status core.JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", status.ID, err)
	}
	if err := s.client.Set(ctx, s.key(status.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", status.ID, err)
	}
	return nil
}

// Get implements core.JobStore.
func (s *JobStore) Get(ctx context.Context, id string) (core.JobStatus, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.JobStatus{}, core.ErrJobNotFound
	}
	if err != nil {
		return core.JobStatus{}, fmt.Errorf("load job %s: %w", id, err)
	}

	var status core.JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return core.JobStatus{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return status, nil
}

// Purge implements core.JobStore. Redis expires entries on its own.
func (s *JobStore) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}
