// Package openidredis is a persistence backend for OpenID protocol
// libraries. It stores cryptographic associations under deterministic,
// prefix-scannable key names with TTL-driven expiry, and enforces
// single-use nonces through an atomic claim on the backing store.
//
// The backing store is Redis in deployment, but the package only requires
// the storage.KeyValue capability set, so any conforming backend works;
// an embedded BadgerDB implementation ships alongside the Redis one.
//
// All keys live under a configurable prefix, which is the multi-tenancy
// mechanism for sharing a store instance: association keys look like
//
//	prefix-scheme-domain-urlHash-handleHash
//
// and nonce keys occupy a disjoint sub-namespace,
//
//	prefix-nonce-XXXXXXXX-scheme-domain-urlHash-saltHash
package openidredis
