package shard

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/engine"
)

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the store.
Instead of having one big map and one big lock, the key space is split into many shards.
Each shard:
- Holds some portion of the data
- Has its own read/write lock over its map and key list together
- Is swept for expired keys by its own background sweeper

Operations on different shards never touch the same lock.

Locking rules:
  - Mutations take the lock exclusively and release it before returning.
  - Lookup takes it shared and hands it over to the returned Ref.
  - A shared lock is never upgraded in place. Code that finds an expired key under the
    shared lock drops it first, then takes the exclusive lock and checks again.
*/
type Shard struct {
	mu     sync.RWMutex
	data   *store
	engine *engine.Engine
	id     int
}

// NewShard creates an empty shard that uses e for time, expiration checks and metrics.
func NewShard(id int, e *engine.Engine) *Shard {
	return &Shard{
		data:   newStore(),
		engine: e,
		id:     id,
	}
}

// ID returns the shard's position in the store.
func (s *Shard) ID() int {
	return s.id
}

/*
Insert stores value under key and returns the previous value, if any.

expiresAt is an absolute Unix millisecond timestamp. Zero means "no new expiration":
a new key never expires, an existing key keeps whatever expiration it had.
*/
func (s *Shard) Insert(key string, value codec.Value, expiresAt int64) (codec.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.insert(key, value, expiresAt)
}

/*
Lookup finds key and decodes it as T.

BEHAVIOR:
---------
 1. Key absent: returns nil, nil.
 2. Key expired: the entry is deleted (passive expiration) and nil, nil is returned.
 3. Key live: the value is decoded while the shard is read-locked. On success the lock is
    NOT released; it is owned by the returned Ref until Ref.Release.
 4. Decode failure: the lock is released and the error returned. Nothing is changed.

Lookup is a function and not a method because Go methods cannot have type parameters.
*/
func Lookup[T any](s *Shard, key string, dec codec.Decoder[T]) (*Ref[T], error) {
	s.mu.RLock()

	ent, ok := s.data.get(key)
	if !ok {
		s.mu.RUnlock()
		s.engine.Metrics.Miss()
		return nil, nil
	}

	if s.engine.IsExpired(ent) {
		s.mu.RUnlock()
		s.engine.Metrics.Miss()
		s.removeExpired(key)
		return nil, nil
	}

	v, err := dec.Decode(ent.Value)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("shard %d: key %q: %w", s.id, key, err)
	}

	s.engine.Metrics.Hit()
	return newRef(v, s.mu.RUnlock), nil
}

// Remove deletes key and returns its value. Removing an absent key is a no-op.
func (s *Shard) Remove(key string) (codec.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.delete(key)
}

/*
removeExpired deletes key if it is still expired once the exclusive lock is held.
Between dropping a shared lock and getting here another goroutine may have removed the
key or replaced it with a fresh one, so the check must be repeated.
*/
func (s *Shard) removeExpired(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.data.get(key)
	if !ok || !s.engine.IsExpired(ent) {
		return false
	}

	s.data.delete(key)
	s.engine.Metrics.Expire()
	return true
}

/*
ExpireRandom checks one key picked at a random position and deletes it if expired.
It returns true when a key was deleted.

The check runs under the shared lock so that live keys never block readers; only an
expired key costs an exclusive pass. r is owned by the caller and must not be shared.
*/
func (s *Shard) ExpireRandom(r *rand.Rand) bool {
	s.mu.RLock()

	n := s.data.size()
	if n == 0 {
		s.mu.RUnlock()
		return false
	}

	key := s.data.keyAt(r.IntN(n))
	ent, _ := s.data.get(key)
	expired := s.engine.IsExpired(ent)
	s.mu.RUnlock()

	if !expired {
		return false
	}
	return s.removeExpired(key)
}

// Len returns the number of entries, including expired ones not reclaimed yet.
func (s *Shard) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.size()
}

// Exists reports whether key is present and live. It never deletes.
func (s *Shard) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.data.get(key)
	return ok && !s.engine.IsExpired(ent)
}

// TTL returns the remaining time to live of key: -1 when it has no TTL,
// -2 when it is absent or expired.
func (s *Shard) TTL(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.data.get(key)
	if !ok {
		return -2
	}
	return s.engine.Remaining(ent)
}

/*
SetExpiry replaces the expiration of a live key. expiresAt == 0 clears it.
It returns false when the key is absent or already expired; an expired key is
treated exactly like an absent one and is not revived.
*/
func (s *Shard) SetExpiry(key string, expiresAt int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.data.get(key)
	if !ok || s.engine.IsExpired(ent) {
		return false
	}

	ent.ExpiresAt = expiresAt
	return true
}

// AppendKeys appends the live keys starting with prefix to dst, in no particular order.
func (s *Shard) AppendKeys(dst []string, prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.engine.NowMillis()
	for _, key := range s.data.keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if s.data.entries[key].ExpiredAt(now) {
			continue
		}
		dst = append(dst, key)
	}
	return dst
}
