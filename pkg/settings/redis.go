package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where RedisStore keeps the settings document.
const DefaultRedisKey = "peekguard:settings"

// RedisStore implements Store on a Redis string key, so several devices
// signed in as the same user can share one preference set.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Key == "" {
		opts.Key = DefaultRedisKey
	}

	logger.Info("connecting to redis", "addr", opts.Addr, "db", opts.DB)

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return &RedisStore{client: client, key: opts.Key, logger: logger}, nil
}

// Load implements Store
func (r *RedisStore) Load(ctx context.Context) (Settings, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("no settings in redis", "key", r.key)
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decodeDocument(val)
}

// Save implements Store
func (r *RedisStore) Save(ctx context.Context, s Settings) error {
	data, err := encodeDocument(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	r.logger.Debug("settings saved to redis", "key", r.key)
	return nil
}

// Delete removes the saved document.
func (r *RedisStore) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
