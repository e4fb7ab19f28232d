package openidredis

import "errors"

var (
	// ErrInvalidURL means a server URL was missing its "://" scheme
	// separator. It is returned before any backend round trip happens.
	ErrInvalidURL = errors.New("bad server URL: missing \"://\"")

	// ErrStoreUnavailable wraps a failed round trip to the backing
	// key-value service. Failures are propagated to the caller as-is;
	// nothing in this package retries or swallows them.
	ErrStoreUnavailable = errors.New("key-value store unavailable")

	// ErrBadAssociation means stored association bytes could not be
	// decoded. The record is left in place: a decode failure can be a
	// symptom of a racing writer rather than real corruption, so deleting
	// on read would destroy evidence.
	ErrBadAssociation = errors.New("can't decode the stored association")
)
