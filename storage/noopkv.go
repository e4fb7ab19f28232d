package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is what every data operation on NoOpKV returns, and what
// callers should expect from a real backend that has lost its connection.
var ErrUnavailable = errors.New("the key-value backend is unavailable")

// NoOpKV is used when we need to avoid touching the storage layer while
// still preserving our interactions with an abstract database.
//
// For data operations, we always return an error, so the caller knows that
// no actual data has been read or written.
//
// For connection-wide operations, such as closing the database, we always
// return a nil error, since there is nothing to close.
type NoOpKV struct{}

var _ KeyValue = (*NoOpKV)(nil)

// Get always returns an error so callers don't assume a key has been read.
func (n *NoOpKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, ErrUnavailable
}

// Set always returns an error so callers don't assume a new key has been
// written.
func (n *NoOpKV) Set(ctx context.Context, key string, value []byte) error {
	return ErrUnavailable
}

// SetWithTTL always returns an error so callers don't assume a new key has
// been written.
func (n *NoOpKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return ErrUnavailable
}

// Delete always returns an error.
func (n *NoOpKV) Delete(ctx context.Context, key string) (bool, error) {
	return false, ErrUnavailable
}

// Exchange always returns an error so callers never treat a failed claim
// as a successful first use.
func (n *NoOpKV) Exchange(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	return nil, false, ErrUnavailable
}

// Expire always returns an error.
func (n *NoOpKV) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, ErrUnavailable
}

// ScanPrefix always returns an error.
func (n *NoOpKV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	return nil, ErrUnavailable
}

// MultiGet always returns an error.
func (n *NoOpKV) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	return nil, ErrUnavailable
}

// Ping always returns an error.
func (n *NoOpKV) Ping(ctx context.Context) error {
	return ErrUnavailable
}

// Close is a no-op.
func (n *NoOpKV) Close() error {
	return nil
}
