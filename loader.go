package kvstore

import (
	"context"
	"fmt"

	"github.com/krisalay/kvstore/codec"
)

/*
GetOrLoad returns the decoded value of key, loading it through Options.Loader on a miss.

READ-THROUGH FLOW:
------------------
 1. Live key in memory: the value is decoded and returned. The shard lock is released before
    returning, so unlike Get there is nothing to Release.
 2. Miss (absent or expired): the Loader is called once per key even if many goroutines miss
    at the same time; they all wait for that single call and share its result.
 3. The loaded value is stored with the expiration returned by the Loader (zero => none)
    and decoded for every waiting caller.

Loader errors are returned wrapped; errors.Is still matches them.
*/
func GetOrLoad[T any](ctx context.Context, s *Storage, key string, dec codec.Decoder[T]) (T, error) {
	var zero T

	ref, err := Get(s, key, dec)
	if err != nil {
		return zero, err
	}
	if ref != nil {
		defer ref.Release()
		return ref.Value(), nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		value, expiresAt, err := s.engine.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		s.shardFor(key).Insert(key, value, s.engine.ExpiryMillis(expiresAt))
		return value, nil
	})
	if err != nil {
		return zero, fmt.Errorf("kvstore: load %q: %w", key, err)
	}

	out, err := dec.Decode(v.(codec.Value))
	if err != nil {
		return zero, fmt.Errorf("kvstore: key %q: %w", key, err)
	}
	return out, nil
}
