package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/types"
)

// ErrNoLoader is returned by Load when no Loader is configured.
var ErrNoLoader = errors.New("kvstore: no loader configured")

/*
Engine is the policy layer shared by every shard.
It is responsible for the "behavior" of the store, NOT storage.

It decides:
- What time it is (injectable clock, used by tests)
- When an entry is expired
- How absolute expiration times are stored
- How data is loaded on a read-through miss
- Where metrics and logs go

It does NOT:
- Store data
- Handle sharding
- Handle locking

An Engine is immutable after New and safe for concurrent use.
*/
type Engine struct {

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Metrics receives hit/miss/expire/sweep events. Never nil.
	Metrics types.Metrics

	// Loader produces values for GetOrLoad misses. May be nil.
	Loader types.Loader

	// Logger is used for background work. Never nil.
	Logger *slog.Logger
}

/*
New creates an Engine.
Nil arguments are replaced by defaults so the rest of the code never checks for nil.
*/
func New(
	clock func() time.Time,
	metrics types.Metrics,
	loader types.Loader,
	logger *slog.Logger,
) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		Clock:   clock,
		Metrics: metrics,
		Loader:  loader,
		Logger:  logger,
	}
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.Clock()
}

// NowMillis returns the engine's current time as Unix milliseconds.
func (e *Engine) NowMillis() int64 {
	return e.Clock().UnixMilli()
}

/*
IsExpired checks whether an entry is expired right now.

BEHAVIOR:
---------
- Entries without a TTL never expire
- An entry is live up to and including the millisecond stored in ExpiresAt
*/
func (e *Engine) IsExpired(ent *types.Entry) bool {
	return ent.ExpiredAt(e.NowMillis())
}

// ExpiryMillis converts an absolute expiration time into the stored form.
// The zero time means "no expiration" and maps to 0.
func (e *Engine) ExpiryMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	ms := t.UnixMilli()
	if ms == 0 {
		// 0 is reserved for "no TTL"; the epoch itself is long past anyway.
		ms = -1
	}
	return ms
}

// ExpiryAfter returns the stored form of now+ttl.
func (e *Engine) ExpiryAfter(ttl time.Duration) int64 {
	return e.ExpiryMillis(e.Now().Add(ttl))
}

/*
Remaining returns the time left before ent expires.

RETURN VALUES (Redis-compatible semantics):
-------------------------------------------
>= 0: duration remaining
-1  : entry has no TTL
-2  : entry is already expired
*/
func (e *Engine) Remaining(ent *types.Entry) time.Duration {
	if !ent.HasExpiry() {
		return -1
	}
	if e.IsExpired(ent) {
		return -2
	}
	// Still inside the expiring millisecond.
	return max(time.UnixMilli(ent.ExpiresAt).Sub(e.Now()), 0)
}

/*
Load is used when the store does NOT have the data.
This usually means a database call, a network request, or an expensive computation.
*/
func (e *Engine) Load(ctx context.Context, key string) (codec.Value, time.Time, error) {
	if e.Loader == nil {
		return codec.Value{}, time.Time{}, ErrNoLoader
	}
	return e.Loader.Load(ctx, key)
}
