package openidredis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// nonceTimeFormat is the timestamp layout inside a nonce string, shared
// with the OpenID protocol libraries this store backs.
const nonceTimeFormat = "2006-01-02T15:04:05Z"

// UseNonce attempts to consume the nonce identified by (serverURL,
// timestamp, salt). The first call within the skew window returns true;
// every later call for the identical triple returns false until the
// record expires, after which the triple counts as brand new.
//
// The claim is an atomic exchange on the backend, so concurrent calls for
// the same triple produce exactly one true. Timestamps further than the
// skew window from the local clock are rejected without touching the
// backend; with a zero skew nothing is ever within the window.
func (s *Store) UseNonce(ctx context.Context, serverURL string, timestamp int64, salt string) (bool, error) {
	skew := int64(s.Skew() / time.Second)
	if skew <= 0 {
		return false, nil
	}
	now := s.now().Unix()
	if abs64(timestamp-now) > skew {
		log.Debug().Int64("timestamp", timestamp).Int64("skew", skew).
			Msg("nonce timestamp outside the skew window")
		return false, nil
	}

	key, err := nonceKey(s.prefix, serverURL, timestamp, salt)
	if err != nil {
		return false, err
	}

	_, existed, err := s.kv.Exchange(ctx, key, []byte(strconv.FormatInt(timestamp, 10)))
	if err != nil {
		return false, storeErr(err)
	}
	if existed {
		log.Debug().Str("key", key).Msg("nonce already consumed")
		return false, nil
	}

	// Keep the record for the rest of the skew window measured from when
	// the nonce was minted, not from now.
	ttl := (now - timestamp) + skew
	if _, err := s.kv.Expire(ctx, key, time.Duration(ttl)*time.Second); err != nil {
		return false, storeErr(err)
	}
	log.Debug().Str("key", key).Int64("ttl", ttl).Msg("unused nonce, stored")
	return true, nil
}

// CleanupNonces sweeps the nonce sub-namespace, deleting every record
// whose stored timestamp falls outside the current skew window, and
// returns how many it removed. TTLs already retire nonces on conforming
// backends, so the sweep is best effort; it exists for backends without
// reliable expiry and for skew values lowered mid-run, and is meant to be
// driven periodically by an external scheduler.
func (s *Store) CleanupNonces(ctx context.Context) (int, error) {
	skew := int64(s.Skew() / time.Second)
	now := s.now().Unix()

	keys, err := s.kv.ScanPrefix(ctx, s.prefix+nonceMarker)
	if err != nil {
		return 0, storeErr(err)
	}
	vals, err := s.kv.MultiGet(ctx, keys)
	if err != nil {
		return 0, storeErr(err)
	}

	expired := 0
	for i, val := range vals {
		if val == nil {
			// Already gone between the scan and the fetch.
			continue
		}
		timestamp, perr := strconv.ParseInt(string(val), 10, 64)
		if perr == nil && skew > 0 && abs64(timestamp-now) <= skew {
			continue
		}
		// Outside the window, or garbage where only our timestamps
		// belong: either way the record is done.
		removed, err := s.kv.Delete(ctx, keys[i])
		if err != nil {
			return expired, storeErr(err)
		}
		if removed {
			expired++
		}
	}
	log.Debug().Int("expired", expired).Msg("swept stale nonces")
	return expired, nil
}

// MkNonce mints a nonce string for the current time: a UTC timestamp in
// the protocol's fixed layout followed by a random salt.
func MkNonce() string {
	return MkNonceAt(time.Now())
}

// MkNonceAt mints a nonce string for an arbitrary time, which is mainly
// useful for exercising skew handling.
func MkNonceAt(when time.Time) string {
	return when.UTC().Format(nonceTimeFormat) + uuid.NewString()
}

// SplitNonce splits a nonce string into the timestamp and salt that
// UseNonce consumes.
func SplitNonce(nonce string) (timestamp int64, salt string, err error) {
	if len(nonce) < len(nonceTimeFormat) {
		return 0, "", fmt.Errorf("nonce %q is shorter than its timestamp", nonce)
	}
	stamp := nonce[:len(nonceTimeFormat)]
	t, err := time.Parse(nonceTimeFormat, stamp)
	if err != nil {
		return 0, "", err
	}
	return t.Unix(), nonce[len(nonceTimeFormat):], nil
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
