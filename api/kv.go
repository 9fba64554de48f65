package api

import (
	"context"
	"time"

	"github.com/krisalay/kvstore/codec"
)

/*
KV defines the PUBLIC, non-generic API of the key-value store.
This is a contract that guarantees certain behaviors, without exposing internals.
Sharding, locking and expiration are hidden behind it.

Typed reads (kvstore.Get, kvstore.GetOrLoad) take a type parameter, and Go interfaces
cannot carry generic methods, so they are package functions and not part of KV.
*/
type KV interface {

	/*
		Set stores value under key.

		IMPORTANT:
		----------
		- A new key never expires
		- An existing key keeps its current TTL; only the value changes
		- The previous value, if any, is returned
	*/
	Set(key string, value codec.Value) (codec.Value, bool)

	/*
		SetWithTTL stores value under key and makes it expire ttl from now.

		TTL (Time-To-Live):
		-------------------
		- After TTL passes, the key is treated as absent by every read
		- Expired keys are removed lazily on access, and by the background sweepers
	*/
	SetWithTTL(key string, value codec.Value, ttl time.Duration) (codec.Value, bool)

	/*
		Remove deletes a key immediately and returns the value it had.

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Remove(key string) (codec.Value, bool)

	// Exists reports whether key is present and not expired.
	Exists(key string) bool

	/*
		Expire sets or updates the TTL for an existing key.

		BEHAVIOR:
		---------
		- If the key exists and is live: expiration becomes now + ttl, returns true
		- Otherwise: does nothing, returns false
	*/
	Expire(key string, ttl time.Duration) bool

	// Persist removes the TTL of an existing key. Returns false if the key does not exist.
	Persist(key string) bool

	/*
		TTL returns the remaining time-to-live for a key.

		RETURN VALUES (Redis-compatible semantics):
		-------------------------------------------
		>= 0  : Duration remaining before expiration
		-1    : Key exists but has no TTL
		-2    : Key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	// Keys returns every live key in ascending order.
	Keys() []string

	// Len returns the number of stored entries, expired ones not reclaimed yet included.
	Len() int

	/*
		StartBackgroundExpiration starts reclaiming expired keys that nobody reads.
		The work stops when ctx is cancelled or Close is called.
	*/
	StartBackgroundExpiration(ctx context.Context) error

	/*
		Close gracefully shuts down background work.

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close() error
}
