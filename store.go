package openidredis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oidkv/openid-redis/storage"
)

// Store persists OpenID associations and single-use nonces in a backing
// key-value service. All durable state lives in the backend; a Store holds
// nothing beyond the connection, so independent instances pointed at the
// same backend behave as one.
//
// Operations are safe for concurrent use. The single correctness-critical
// race, two callers claiming the same nonce, is settled by the backend's
// atomic Exchange rather than any in-process locking.
type Store struct {
	kv     storage.KeyValue
	prefix string
	codec  Codec

	// skew is kept in seconds and read atomically so sweeps can lower it
	// at runtime while request handlers keep calling UseNonce.
	skew atomic.Int64

	// now is replaced in tests
	now func() time.Time
}

// New creates a Store over kv. The caller keeps ownership of kv's
// lifecycle and should close it when done with the store.
func New(kv storage.KeyValue, conf *Config) (*Store, error) {
	if conf == nil {
		conf = &Config{}
	}
	c, err := conf.CheckAndSetDefaults()
	if err != nil {
		return nil, err
	}
	s := &Store{
		kv:     kv,
		prefix: c.Prefix,
		codec:  KVFormCodec{},
		now:    time.Now,
	}
	s.skew.Store(int64(c.Skew / time.Second))
	return s, nil
}

// WithCodec replaces the association codec and returns the same store, for
// callers whose protocol library defines its own serialized form.
func (s *Store) WithCodec(c Codec) *Store {
	s.codec = c
	return s
}

// Skew returns the current nonce skew window.
func (s *Store) Skew() time.Duration {
	return time.Duration(s.skew.Load()) * time.Second
}

// SetSkew adjusts the nonce skew window at runtime. A zero or negative
// value makes UseNonce reject everything, and makes the next
// CleanupNonces sweep every record, so a configuration change never
// leaves orphans behind.
func (s *Store) SetSkew(d time.Duration) {
	s.skew.Store(int64(d / time.Second))
}

// AssociationKey builds the deterministic storage key for (serverURL,
// handle). An empty handle produces the server-level key prefix shared by
// every association for that URL. Returns ErrInvalidURL when serverURL has
// no "://" separator.
func (s *Store) AssociationKey(serverURL, handle string) (string, error) {
	return associationKey(s.prefix, serverURL, handle)
}

// storeErr wraps a failed backend round trip so callers can match it with
// errors.Is(err, ErrStoreUnavailable).
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// StoreAssociation persists assoc under its (serverURL, handle) key with a
// TTL equal to its remaining lifetime, so the backend retires it on its
// own. An association that has already expired on arrival is not written
// at all.
func (s *Store) StoreAssociation(ctx context.Context, serverURL string, assoc *Association) error {
	key, err := s.AssociationKey(serverURL, assoc.Handle)
	if err != nil {
		return err
	}

	remaining := assoc.ExpiresIn(s.now())
	if remaining <= 0 {
		log.Debug().Str("key", key).Int64("remaining", remaining).
			Msg("association expired on arrival, skipping the write")
		return nil
	}

	encoded, err := s.codec.Encode(assoc)
	if err != nil {
		return err
	}

	if err := s.kv.SetWithTTL(ctx, key, encoded, time.Duration(remaining)*time.Second); err != nil {
		return storeErr(err)
	}
	log.Debug().Str("key", key).Int64("ttl", remaining).Msg("stored association")
	return nil
}

// GetAssociation retrieves the association for (serverURL, handle), or nil
// when none is stored: not-found is a result, not an error. With an empty
// handle it enumerates every association for serverURL and returns the
// most recently issued one, regardless of which expires first.
func (s *Store) GetAssociation(ctx context.Context, serverURL, handle string) (*Association, error) {
	if handle != "" {
		key, err := s.AssociationKey(serverURL, handle)
		if err != nil {
			return nil, err
		}
		val, found, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, storeErr(err)
		}
		if !found {
			return nil, nil
		}
		assoc, err := s.codec.Decode(val)
		if err != nil {
			// The record stays in place: deleting on a decode failure
			// could destroy a record a concurrent writer just replaced.
			return nil, err
		}
		return assoc, nil
	}

	// No handle: enumerate the server-level prefix and pick the
	// association issued last.
	keyPrefix, err := s.AssociationKey(serverURL, "")
	if err != nil {
		return nil, err
	}
	keys, err := s.kv.ScanPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(keys) == 0 {
		log.Debug().Str("serverURL", serverURL).Msg("no association found")
		return nil, nil
	}

	vals, err := s.kv.MultiGet(ctx, keys)
	if err != nil {
		return nil, storeErr(err)
	}

	var newest *Association
	for _, val := range vals {
		if val == nil {
			// Expired between the scan and the fetch; absent, not an
			// error.
			continue
		}
		assoc, err := s.codec.Decode(val)
		if err != nil {
			return nil, err
		}
		if newest == nil || assoc.Issued > newest.Issued {
			newest = assoc
		}
	}
	if newest != nil {
		log.Debug().Str("handle", newest.Handle).Msg("returning the most recently issued association")
	}
	return newest, nil
}

// RemoveAssociation deletes the association for exactly (serverURL,
// handle) and reports whether anything was removed. It is idempotent:
// removing an absent pair is not an error, just false.
func (s *Store) RemoveAssociation(ctx context.Context, serverURL, handle string) (bool, error) {
	key, err := s.AssociationKey(serverURL, handle)
	if err != nil {
		return false, err
	}
	removed, err := s.kv.Delete(ctx, key)
	if err != nil {
		return false, storeErr(err)
	}
	log.Debug().Str("key", key).Bool("removed", removed).Msg("removed association")
	return removed, nil
}
