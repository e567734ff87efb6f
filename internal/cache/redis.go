package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/classifier"
)

const defaultKeyPrefix = "dda:chatbot:response:"

// Redis stores responses as JSON strings with a TTL, so several API
// replicas share the same answers.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps an existing client. An empty prefix selects the default.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get reads and decodes a response. Any backend or decode error is a miss.
func (r *Redis) Get(ctx context.Context, key string) (classifier.Response, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache read failed", zap.Error(err))
		}
		return classifier.Response{}, false
	}

	var resp classifier.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		r.logger.Warn("cache entry corrupt", zap.Error(err))
		return classifier.Response{}, false
	}
	return resp, true
}

// Set encodes and stores a response; failures are logged and dropped
func (r *Redis) Set(ctx context.Context, key string, resp classifier.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.Error(err))
	}
}

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
