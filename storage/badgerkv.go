package storage

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
)

// BadgerKV implements KeyValue on top of an embedded BadgerDB. Redis is
// the deployment target; BadgerKV exists to prove that the store only
// needs the KeyValue capability set, and to give tests a backend that
// needs no server.
type BadgerKV struct {
	connection *badger.DB
}

var _ KeyValue = (*BadgerKV)(nil)

// NewBadgerKV initializes the BadgerDB embedded database at dirPath. It is
// up to the caller to close the database with Close().
func NewBadgerKV(dirPath string) (*BadgerKV, error) {
	db, err := badger.Open(badger.DefaultOptions(dirPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("can't open the db connection: %v", err)
	}
	return &BadgerKV{connection: db}, nil
}

// NewInMemoryBadgerKV initializes a BadgerDB instance that keeps all state
// in memory. Mainly useful in tests.
func NewInMemoryBadgerKV() (*BadgerKV, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("can't open the in-memory db: %v", err)
	}
	return &BadgerKV{connection: db}, nil
}

// Get returns the value stored under key, if any.
func (db *BadgerKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := db.connection.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		// We copy values rather than return them directly because
		// item.Value() is considered undefined behavior outside a
		// transaction.
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("can't retrieve a value for the key provided: %v", err)
	}
	return val, true, nil
}

// Set upserts an entry with no expiry.
func (db *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("could not set the KV pair: %v", err)
	}
	return nil
}

// SetWithTTL upserts an entry along with its expiry. Badger applies the
// TTL as part of the same write, so the key never exists without one.
func (db *BadgerKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("could not set the KV pair: %v", err)
	}
	return nil
}

// Delete removes an entry by key.
func (db *BadgerKV) Delete(ctx context.Context, key string) (bool, error) {
	existed := false
	err := db.connection.Update(func(txn *badger.Txn) error {
		existed = false
		if _, err := txn.Get([]byte(key)); err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("could not delete the key: %v", err)
	}
	return existed, nil
}

// Exchange stores value under key and returns the previous value. Badger
// has no native GETSET, so this is a read-modify-write transaction;
// Badger's conflict detection makes concurrent exchanges for the same key
// serialize, and we retry the loser until its transaction commits.
func (db *BadgerKV) Exchange(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	for {
		var (
			prev    []byte
			existed bool
		)
		err := db.connection.Update(func(txn *badger.Txn) error {
			prev, existed = nil, false
			item, err := txn.Get([]byte(key))
			if err == nil {
				existed = true
				if prev, err = item.ValueCopy(nil); err != nil {
					return err
				}
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			return txn.Set([]byte(key), value)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("could not exchange the key: %v", err)
		}
		return prev, existed, nil
	}
}

// Expire sets a TTL on an existing key. Badger only attaches TTLs at write
// time, so the entry is rewritten with its current value.
func (db *BadgerKV) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	existed := false
	for {
		err := db.connection.Update(func(txn *badger.Txn) error {
			existed = false
			item, err := txn.Get([]byte(key))
			if err == badger.ErrKeyNotFound {
				return nil
			} else if err != nil {
				return err
			}
			existed = true
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			e := badger.NewEntry([]byte(key), val).WithTTL(ttl)
			return txn.SetEntry(e)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("could not expire the key: %v", err)
		}
		return existed, nil
	}
}

// ScanPrefix enumerates keys starting with prefix. Values are not
// prefetched since only key names are needed.
func (db *BadgerKV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := db.connection.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan keys: %v", err)
	}
	return keys, nil
}

// MultiGet fetches several keys within one read transaction. Keys that
// vanished since the scan come back as nil elements.
func (db *BadgerKV) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	err := db.connection.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get([]byte(key))
			if err == badger.ErrKeyNotFound {
				continue
			} else if err != nil {
				return err
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not fetch keys in bulk: %v", err)
	}
	return out, nil
}

// Ping reports whether the database is open.
func (db *BadgerKV) Ping(ctx context.Context) error {
	if db.connection.IsClosed() {
		return fmt.Errorf("the database is closed")
	}
	return nil
}

// Cleanup performs BadgerDB's garbage collection routine with the
// recommended discardRatio. TTL'd entries stop being readable the moment
// they expire; this reclaims the space they occupied.
func (db *BadgerKV) Cleanup() error {
	var discardRatio float64 = .5
	err := db.connection.RunValueLogGC(discardRatio)
	// If the GC determines that it can't rewrite anything, don't worry
	// the caller--just skip it
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// Close tears down the database. You should defer this.
func (db *BadgerKV) Close() error {
	return db.connection.Close()
}
