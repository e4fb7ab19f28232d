package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkKeyValue verifies the parts of the KeyValue contract that don't
// involve the passage of time, against an empty store. TTL behavior is
// backend-specific enough (fake clocks vs. the real one) that each
// implementation's own test covers it.
func checkKeyValue(t *testing.T, kv KeyValue) {
	ctx := context.Background()

	t.Run("get absent", func(t *testing.T) {
		val, found, err := kv.Get(ctx, "conf-missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, val)
	})

	t.Run("set then get round trips bytes", func(t *testing.T) {
		// Include a zero byte and high bytes: the store must be
		// byte-for-byte transparent.
		want := []byte{0x00, 'a', 0xff, '\n', 0x80}
		require.NoError(t, kv.Set(ctx, "conf-bytes", want))

		got, found, err := kv.Get(ctx, "conf-bytes")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want, got)
	})

	t.Run("delete reports presence", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "conf-del", []byte("v")))

		removed, err := kv.Delete(ctx, "conf-del")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = kv.Delete(ctx, "conf-del")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("exchange returns the previous value", func(t *testing.T) {
		prev, existed, err := kv.Exchange(ctx, "conf-xchg", []byte("first"))
		require.NoError(t, err)
		assert.False(t, existed)
		assert.Nil(t, prev)

		prev, existed, err = kv.Exchange(ctx, "conf-xchg", []byte("second"))
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, []byte("first"), prev)

		got, found, err := kv.Get(ctx, "conf-xchg")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("expire reports presence", func(t *testing.T) {
		existed, err := kv.Expire(ctx, "conf-no-such-key", 0)
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("scan by prefix", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "conf-scan-a", []byte("1")))
		require.NoError(t, kv.Set(ctx, "conf-scan-b", []byte("2")))
		require.NoError(t, kv.Set(ctx, "conf-other", []byte("3")))

		keys, err := kv.ScanPrefix(ctx, "conf-scan-")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"conf-scan-a", "conf-scan-b"}, keys)

		keys, err = kv.ScanPrefix(ctx, "conf-scan-nothing")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("multi get preserves order and absence", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "conf-mget-1", []byte("one")))
		require.NoError(t, kv.Set(ctx, "conf-mget-2", []byte("two")))

		vals, err := kv.MultiGet(ctx, []string{"conf-mget-2", "conf-mget-gone", "conf-mget-1"})
		require.NoError(t, err)
		require.Len(t, vals, 3)
		assert.Equal(t, []byte("two"), vals[0])
		assert.Nil(t, vals[1])
		assert.Equal(t, []byte("one"), vals[2])
	})

	t.Run("multi get with no keys", func(t *testing.T) {
		vals, err := kv.MultiGet(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vals)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, kv.Ping(ctx))
	})
}
