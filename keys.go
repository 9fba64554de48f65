package kvstore

import "github.com/google/btree"

// keysDegree is the branching factor of the temporary tree used to sort keys.
const keysDegree = 32

// Keys returns every live key in ascending order.
func (s *Storage) Keys() []string {
	return s.KeysWithPrefix("")
}

/*
KeysWithPrefix returns the live keys starting with prefix, in ascending order.

Shards are visited one at a time and each is read-locked only while its keys are copied,
so the result is NOT a point-in-time snapshot of the whole store: a key written to a shard
that was already visited is missing from it.
*/
func (s *Storage) KeysWithPrefix(prefix string) []string {
	tree := s.collect(prefix)

	keys := make([]string, 0, tree.Len())
	tree.Ascend(func(key string) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// KeysInRange returns the live keys k with start <= k < end, in ascending order.
func (s *Storage) KeysInRange(start, end string) []string {
	tree := s.collect("")

	var keys []string
	tree.AscendRange(start, end, func(key string) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func (s *Storage) collect(prefix string) *btree.BTreeG[string] {
	tree := btree.NewOrderedG[string](keysDegree)

	var buf []string
	for _, sh := range s.shards {
		buf = sh.AppendKeys(buf[:0], prefix)
		for _, key := range buf {
			tree.ReplaceOrInsert(key)
		}
	}
	return tree
}
