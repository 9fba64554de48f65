package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/engine"
	"github.com/krisalay/kvstore/expiration"
	"github.com/krisalay/kvstore/shard"
)

// Ref is a decoded value that keeps its shard read-locked until Release.
type Ref[T any] = shard.Ref[T]

/*
Storage is the main key-value store.
This struct is the orchestrator that connects:
- shards, each with its own lock
- the selector that routes a key to its shard
- the engine (clock, expiration rules, metrics, loader)
- one background sweeper per shard

Storage never takes more than one shard lock in the same operation.
*/
type Storage struct {

	// shards are the actual storage units. Fixed for the lifetime of the Storage.
	shards []*shard.Shard

	// selector decides which shard a key goes to.
	selector shard.Selector

	// engine contains the rules shared by every shard.
	engine *engine.Engine

	// sweep is the validated sweeper configuration.
	sweep expiration.Config

	// sf prevents concurrent GetOrLoad misses for one key from loading it more than once.
	sf singleflight.Group

	// mu protects the sweeper lifecycle below, never the data.
	// done is closed once the sweepers' context ends, including when the caller cancels it.
	mu     sync.Mutex
	group  *errgroup.Group
	cancel context.CancelFunc
	done   <-chan struct{}
	closed bool
}

/*
New creates a Storage with opts.Shards empty shards.

ERRORS:
-------
- ErrInvalidShardCount: opts.Shards is not positive
- ErrInvalidExpirationConfig: the sweeper settings are unusable

No background work starts until StartBackgroundExpiration is called.
*/
func New(opts Options) (*Storage, error) {
	selector, err := shard.NewSelector(opts.Shards)
	if err != nil {
		return nil, err
	}

	sweep := opts.Expiration.WithDefaults()
	if err := sweep.Validate(); err != nil {
		return nil, err
	}

	e := engine.New(opts.Clock, opts.Metrics, opts.Loader, opts.Logger)

	shards := make([]*shard.Shard, opts.Shards)
	for i := range shards {
		shards[i] = shard.NewShard(i, e)
	}

	return &Storage{
		shards:   shards,
		selector: selector,
		engine:   e,
		sweep:    sweep,
	}, nil
}

// Default creates a Storage with DefaultOptions.
func Default() *Storage {
	s, err := New(DefaultOptions())
	if err != nil {
		panic(fmt.Sprintf("kvstore: default options rejected: %v", err))
	}
	return s
}

// shardFor routes key to its shard. An index out of range is a selector bug.
func (s *Storage) shardFor(key string) *shard.Shard {
	idx := s.selector.Select(key)
	if idx < 0 || idx >= len(s.shards) {
		panic(fmt.Sprintf("kvstore: shard with index %d does not exist", idx))
	}
	return s.shards[idx]
}

/*
Set stores value under key without touching its expiration: a new key never expires,
an existing key keeps its TTL. It returns the previous value if there was one.
*/
func (s *Storage) Set(key string, value codec.Value) (codec.Value, bool) {
	return s.shardFor(key).Insert(key, value, 0)
}

// SetWithExpiry stores value under key and makes it expire at expiresAt.
// The zero time behaves like Set.
func (s *Storage) SetWithExpiry(key string, value codec.Value, expiresAt time.Time) (codec.Value, bool) {
	return s.shardFor(key).Insert(key, value, s.engine.ExpiryMillis(expiresAt))
}

// SetWithTTL stores value under key and makes it expire ttl from now.
func (s *Storage) SetWithTTL(key string, value codec.Value, ttl time.Duration) (codec.Value, bool) {
	return s.shardFor(key).Insert(key, value, s.engine.ExpiryAfter(ttl))
}

/*
Get looks key up and decodes it with dec.

BEHAVIOR:
---------
 1. Key absent or expired: returns nil, nil. An expired entry is deleted on the way.
 2. Key live: returns a Ref holding the decoded value and the shard's read lock.
    The caller MUST call Ref.Release. Until then every write to that shard waits,
    including writes made by the caller itself.
 3. Stored bytes are not a valid T: returns nil and an error matching codec.ErrDecode.
*/
func Get[T any](s *Storage, key string, dec codec.Decoder[T]) (*Ref[T], error) {
	return shard.Lookup(s.shardFor(key), key, dec)
}

// Remove deletes key and returns its value. Removing an absent key does nothing.
func (s *Storage) Remove(key string) (codec.Value, bool) {
	return s.shardFor(key).Remove(key)
}

// Exists reports whether key is present and not expired.
func (s *Storage) Exists(key string) bool {
	return s.shardFor(key).Exists(key)
}

/*
TTL returns the remaining time-to-live for a key.

RETURN VALUES (Redis-compatible semantics):
-------------------------------------------
>= 0 : duration remaining
-1   : key exists but has no TTL
-2   : key does not exist or is already expired
*/
func (s *Storage) TTL(key string) time.Duration {
	return s.shardFor(key).TTL(key)
}

// Expire makes an existing, live key expire ttl from now. It returns false if there is no such key.
func (s *Storage) Expire(key string, ttl time.Duration) bool {
	return s.shardFor(key).SetExpiry(key, s.engine.ExpiryAfter(ttl))
}

// ExpireAt makes an existing, live key expire at t. It returns false if there is no such key.
func (s *Storage) ExpireAt(key string, t time.Time) bool {
	return s.shardFor(key).SetExpiry(key, s.engine.ExpiryMillis(t))
}

// Persist removes the TTL of an existing, live key. It returns false if there is no such key.
func (s *Storage) Persist(key string) bool {
	return s.shardFor(key).SetExpiry(key, 0)
}

// Len returns the number of stored entries, including expired ones that have not been reclaimed yet.
func (s *Storage) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// ShardCount returns the number of shards.
func (s *Storage) ShardCount() int {
	return len(s.shards)
}

/*
StartBackgroundExpiration launches one sweeper goroutine per shard.

All sweepers stop when ctx is cancelled, or when StopBackgroundExpiration or Close is
called. Stopping them only slows down reclamation of expired keys that nobody reads;
reads keep hiding expired keys either way.

ErrExpirationRunning is returned only while sweepers are live. Sweepers whose context
was cancelled by the caller are reaped here and a new set is started.
*/
func (s *Storage) StartBackgroundExpiration(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.group != nil {
		select {
		case <-s.done:
			// Sweepers return nil as soon as their context ends, so this does not block.
			_ = s.group.Wait()
			s.cancel()
			s.group, s.cancel, s.done = nil, nil, nil
		default:
			return ErrExpirationRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, sh := range s.shards {
		sw := expiration.NewSweeper(sh, s.sweep, s.engine.Metrics, s.engine.Logger.With("shard", sh.ID()))
		g.Go(func() error {
			return sw.Run(gctx)
		})
	}

	s.group, s.cancel, s.done = g, cancel, gctx.Done()
	s.engine.Logger.Info("background expiration started",
		"shards", len(s.shards),
		"period", s.sweep.Period,
		"sample_size", s.sweep.SampleSize,
		"threshold", s.sweep.Threshold)
	return nil
}

// StopBackgroundExpiration stops the sweepers and waits for them to return.
// It is a no-op when they are not running. Expiration can be started again afterwards.
func (s *Storage) StopBackgroundExpiration() error {
	s.mu.Lock()
	g, cancel := s.group, s.cancel
	s.group, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	if g == nil {
		return nil
	}

	cancel()
	err := g.Wait()
	s.engine.Logger.Info("background expiration stopped")
	return err
}

/*
Close stops background expiration for good.
Data stays readable and writable; only StartBackgroundExpiration is refused afterwards.
Close is safe to call multiple times.
*/
func (s *Storage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.StopBackgroundExpiration()
}
