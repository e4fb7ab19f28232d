package storage

import (
	"context"
	"time"
)

// KeyValue is the capability set the OpenID store needs from a backing
// key-value service. Implementations deal only in opaque bytes and must be
// byte-for-byte transparent: Get returns exactly what Set stored.
//
// Implementations must be safe for concurrent use. Exchange is the one
// operation with a hard atomicity requirement: two concurrent calls for the
// same key must serialize, so that exactly one of them sees the key as
// absent.
type KeyValue interface {
	// Get returns (value, true, nil) on a hit and (nil, false, nil) when
	// the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with no expiry.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithTTL stores value under key and arranges for it to expire
	// after ttl. The write and the expiry are applied together; there is
	// no window where the key exists without its TTL.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key, reporting whether anything was actually removed.
	Delete(ctx context.Context, key string) (bool, error)

	// Exchange atomically stores value under key and returns the previous
	// value, with existed reporting whether the key was present before
	// the call.
	Exchange(ctx context.Context, key string, value []byte) (prev []byte, existed bool, err error)

	// Expire sets the TTL on an existing key, reporting whether the key
	// existed.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ScanPrefix returns the keys currently starting with prefix. The
	// enumeration is a point-in-time best effort: keys may appear or
	// expire while it runs, so a later fetch of a returned key can miss.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// MultiGet fetches several keys at once. The result matches the input
	// order; an absent key yields a nil element rather than an error.
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)

	// Ping verifies that the backend is reachable.
	Ping(ctx context.Context) error

	// Drain/tear down the connection, or something analogous for an
	// embedded database. You should defer this.
	Close() error
}
