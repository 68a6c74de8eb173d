package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/causalite/causalite/pkg/observability"
)

const (
	redisKeyPrefix = "causalite:run:"
	redisIndexKey  = "causalite:runs"
)

// RedisConfig configures the Redis-backed run store.
type RedisConfig struct {
	Addr     string        // host:port
	Password string        // optional
	DB       int           // database number
	TTL      time.Duration // per-run expiration; <=0 keeps runs forever
}

// RedisStore is a Redis-backed run store for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+rec.ID, data, s.ttl)
	pipe.SAdd(ctx, redisIndexKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.Store().OnError(ctx, "redis", "save", err)
		return fmt.Errorf("save run: %w", err)
	}
	observability.Store().OnSave(ctx, "redis", rec.ID)
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.Store().OnLoad(ctx, "redis", id, false)
		return nil, ErrNotFound
	}
	if err != nil {
		observability.Store().OnError(ctx, "redis", "get", err)
		return nil, fmt.Errorf("get run: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	observability.Store().OnLoad(ctx, "redis", id, true)
	return &rec, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Record, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var out []*Record
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Expired run still in the index - drop the stale entry.
			s.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	sortNewestFirst(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+id)
	pipe.SRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
