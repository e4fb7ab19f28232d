package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KeyValue and represents the application's connection
// to a Redis server. It is the target backend: expiry relies on Redis
// TTLs, and the single-use nonce claim relies on GETSET being atomic.
type RedisKV struct {
	connection *redis.Client
	scanCount  int64
}

var _ KeyValue = (*RedisKV)(nil)

// NewRedisKV initializes the Redis connection. It is up to the caller to
// close the connection with Close().
func NewRedisKV(conf *RedisConfig) (*RedisKV, error) {
	c, err := conf.CheckAndSetDefaults()
	if err != nil {
		return nil, err
	}

	opts := &redis.Options{
		DB:          c.DB,
		Password:    c.Password,
		DialTimeout: c.DialTimeout,
	}
	if c.UnixSocket != "" {
		opts.Network = "unix"
		opts.Addr = c.UnixSocket
	} else {
		opts.Addr = c.Addr
	}

	return &RedisKV{
		connection: redis.NewClient(opts),
		scanCount:  int64(c.ScanCount),
	}, nil
}

// NewRedisKVFromClient wraps an existing go-redis client, for callers that
// manage their own connection pool. scanCount <= 0 selects the default
// SCAN count hint.
func NewRedisKVFromClient(client *redis.Client, scanCount int) *RedisKV {
	if scanCount <= 0 {
		scanCount = DefaultScanCount
	}
	return &RedisKV{connection: client, scanCount: int64(scanCount)}
}

// Get returns the value stored under key, if any.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.connection.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("can't retrieve a value for the key provided: %w", err)
	}
	return val, true, nil
}

// Set upserts an entry with no expiry.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.connection.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("could not set the KV pair: %w", err)
	}
	return nil
}

// SetWithTTL upserts an entry and its expiry in a single SET, so the key
// never exists without a TTL.
func (r *RedisKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.connection.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("could not set the KV pair: %w", err)
	}
	return nil
}

// Delete removes an entry by key.
func (r *RedisKV) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.connection.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("could not delete the key: %w", err)
	}
	return n > 0, nil
}

// Exchange performs an atomic GETSET: value replaces the current value and
// the previous one is returned. Note that, as with Redis GETSET, a
// successful exchange clears any TTL on the key; callers that need an
// expiry set it again via Expire.
func (r *RedisKV) Exchange(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	prev, err := r.connection.GetSet(ctx, key, value).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not exchange the key: %w", err)
	}
	return prev, true, nil
}

// Expire sets a TTL on an existing key.
func (r *RedisKV) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.connection.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("could not expire the key: %w", err)
	}
	return ok, nil
}

// ScanPrefix enumerates keys starting with prefix using SCAN, so it never
// blocks the server the way KEYS would. The result is a best-effort
// point-in-time view.
func (r *RedisKV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.connection.Scan(ctx, 0, prefix+"*", r.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("could not scan keys: %w", err)
	}
	return keys, nil
}

// MultiGet fetches keys in bulk via MGET. Keys that vanished since the
// scan come back as nil elements.
func (r *RedisKV) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := r.connection.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("could not fetch keys in bulk: %w", err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		// go-redis returns MGET elements as strings
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected MGET element type %T for key %v", v, keys[i])
		}
		out[i] = []byte(s)
	}
	return out, nil
}

// Ping verifies the server is reachable.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.connection.Ping(ctx).Err()
}

// Close tears down the connection pool.
func (r *RedisKV) Close() error {
	return r.connection.Close()
}
