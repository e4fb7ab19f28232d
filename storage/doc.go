// Package storage contains the KeyValue interface for working with a
// persistent key/value store, along with implementations for Redis and
// BadgerDB. Note that the storage package isn't designed to represent
// _what_ is stored in the database, and deals only in opaque binary data;
// key construction and association encoding live with the callers.
package storage
