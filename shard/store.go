package shard

import (
	"fmt"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/types"
)

/*
store is the data held by one shard: a map for lookups plus a dense list of keys
for picking a random key by position (active expiration needs that, a Go map has no
random access).

Invariant, always:
- keys and entries hold the same key set
- keys[entries[k].KeyIndex] == k for every k

store does no locking. Every method must be called with the shard lock held
(exclusive for insert/delete, shared or exclusive for the rest).
*/
type store struct {
	entries map[string]*types.Entry
	keys    []string
}

func newStore() *store {
	return &store{entries: make(map[string]*types.Entry)}
}

func (s *store) get(key string) (*types.Entry, bool) {
	ent, ok := s.entries[key]
	return ent, ok
}

/*
insert adds key or replaces its value.

For an existing key the value is swapped and the previous one returned. The expiration
is only replaced when expiresAt is not zero: an update without a TTL keeps the old one.
*/
func (s *store) insert(key string, value codec.Value, expiresAt int64) (codec.Value, bool) {
	if ent, ok := s.entries[key]; ok {
		prev := ent.Value
		ent.Value = value
		if expiresAt != 0 {
			ent.ExpiresAt = expiresAt
		}
		return prev, true
	}

	s.keys = append(s.keys, key)
	s.entries[key] = &types.Entry{
		Value:     value,
		KeyIndex:  len(s.keys) - 1,
		ExpiresAt: expiresAt,
	}
	return codec.Value{}, false
}

/*
delete removes key in O(1).

The last key of the list is moved into the hole left by the removed one, and only
that moved key's KeyIndex is patched. Removing from the middle of the list by
shifting would silently break the index of every key after it.
*/
func (s *store) delete(key string) (codec.Value, bool) {
	ent, ok := s.entries[key]
	if !ok {
		return codec.Value{}, false
	}

	i, last := ent.KeyIndex, len(s.keys)-1
	if i > last || s.keys[i] != key {
		panic(fmt.Sprintf("shard: key index %d out of sync for %q", i, key))
	}

	if i != last {
		moved := s.keys[last]
		s.keys[i] = moved
		s.entries[moved].KeyIndex = i
	}
	s.keys[last] = ""
	s.keys = s.keys[:last]
	delete(s.entries, key)

	return ent.Value, true
}

func (s *store) keyAt(pos int) string {
	return s.keys[pos]
}

func (s *store) size() int {
	return len(s.keys)
}
