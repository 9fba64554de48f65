package shard

import "sync"

/*
Ref is a value read from a shard together with that shard's read lock.

While a Ref is alive the shard cannot be mutated: Set, Remove, passive and active
expiration on any key of the same shard block until Release is called. Readers are
not blocked, any number of Refs can be alive on one shard.

The value is decoded once, inside the lock, and owned by the Ref, so it never aliases
shard memory. Value keeps working after Release, but the freeze guarantee ends there.

Rules for callers:
  - Always call Release, usually with defer. A leaked Ref blocks writers of that shard forever.
  - Do not write to a key of the same shard while holding a Ref for it: the write waits
    for the Ref, which is never released, so the goroutine deadlocks.
  - Do not take a second Ref on a shard you already hold one for while writers may be waiting:
    sync.RWMutex queues new readers behind a waiting writer.
*/
type Ref[T any] struct {
	value   T
	release func()
	once    sync.Once
}

func newRef[T any](v T, release func()) *Ref[T] {
	return &Ref[T]{value: v, release: release}
}

// Value returns the decoded value.
func (r *Ref[T]) Value() T {
	return r.value
}

// Release gives the shard lock back. Calling it more than once is safe.
func (r *Ref[T]) Release() {
	r.once.Do(r.release)
}
