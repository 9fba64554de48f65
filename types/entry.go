package types

import "github.com/krisalay/kvstore/codec"

// Entry is one stored record inside a shard.
//
// KeyIndex is the position of the entry's key in the shard key list and must be kept
// in sync on every removal. ExpiresAt is a Unix timestamp in milliseconds; zero => no TTL.
type Entry struct {
	Value     codec.Value
	KeyIndex  int
	ExpiresAt int64
}

// HasExpiry reports whether the entry carries a TTL.
func (e *Entry) HasExpiry() bool {
	return e.ExpiresAt != 0
}

// ExpiredAt reports whether the entry is expired at the given Unix millisecond.
// An entry is still live during the millisecond it expires in.
func (e *Entry) ExpiredAt(nowMillis int64) bool {
	return e.ExpiresAt != 0 && nowMillis > e.ExpiresAt
}
