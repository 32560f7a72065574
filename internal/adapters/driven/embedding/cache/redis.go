package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/custodia-labs/athena/internal/adapters/driven/vectorblob"
)

// DefaultKeyPrefix namespaces cache keys in a shared Redis.
const DefaultKeyPrefix = "athena:embedding:"

// RedisConfig configures a RedisBackend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// RedisBackend stores vectors as float32 blobs in Redis.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisBackend{client: client, ttl: cfg.TTL, prefix: cfg.KeyPrefix}, nil
}

// Get returns the vector stored under key.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := vectorblob.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set stores vec under key with the configured TTL.
func (r *RedisBackend) Set(ctx context.Context, key string, vec []float32) error {
	return r.client.Set(ctx, r.prefix+key, vectorblob.Encode(vec), r.ttl).Err()
}

// Close closes the client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
