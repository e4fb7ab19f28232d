package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerKV(t *testing.T) *BadgerKV {
	t.Helper()
	kv, err := NewInMemoryBadgerKV()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestBadgerKVConformance(t *testing.T) {
	checkKeyValue(t, newTestBadgerKV(t))
}

// We test the on-disk open/close path for a simple case here; everything
// else runs against the in-memory mode, which shares the same code paths
// past Open.
func TestBadgerKVOnDisk(t *testing.T) {
	kv, err := NewBadgerKV(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "hello", []byte("world")))

	got, found, err := kv.Get(ctx, "hello")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("world"), got)
}

func TestBadgerKVTTL(t *testing.T) {
	// Badger TTLs run on the real clock with one-second granularity, so
	// this is the one place the test suite actually sleeps.
	ctx := context.Background()
	kv := newTestBadgerKV(t)

	require.NoError(t, kv.SetWithTTL(ctx, "ttl-key", []byte("v"), time.Second))

	_, found, err := kv.Get(ctx, "ttl-key")
	require.NoError(t, err)
	require.True(t, found)

	time.Sleep(1500 * time.Millisecond)

	_, found, err = kv.Get(ctx, "ttl-key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBadgerKVPingAfterClose(t *testing.T) {
	kv, err := NewInMemoryBadgerKV()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, kv.Ping(ctx))
	require.NoError(t, kv.Close())
	assert.Error(t, kv.Ping(ctx))
}
