// Package expiration reclaims expired entries that nobody reads again.
//
// Lookups already hide and delete expired entries (passive expiration), but a key that is
// written once with a TTL and never read would stay in memory forever. A Sweeper fixes
// that by periodically sampling random keys of one shard and deleting the expired ones.
package expiration

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/krisalay/kvstore/types"
)

// Target is what a Sweeper works on, usually one shard.
type Target interface {

	// Len returns the number of keys, expired or not.
	Len() int

	// ExpireRandom checks the key at a random position and deletes it if expired.
	// It returns true when a key was deleted.
	ExpireRandom(r *rand.Rand) bool
}

// Stats describes one sweep.
type Stats struct {
	Passes  int
	Sampled int
	Expired int
}

/*
Sweeper runs adaptive, sampling-based active expiration for one Target.

It is NOT a full scan. Each pass checks a bounded number of random keys, so the cost per
tick stays small no matter how big the shard is. When a pass finds many expired keys the
shard is assumed to be full of stale data and the pass is repeated at once.

A Sweeper is used by one goroutine at a time.
*/
type Sweeper struct {
	target  Target
	cfg     Config
	rng     *rand.Rand
	metrics types.Metrics
	logger  *slog.Logger
}

// NewSweeper creates a sweeper for target. cfg must be valid; nil metrics and logger
// are replaced by no-op and default implementations.
func NewSweeper(target Target, cfg Config, metrics types.Metrics, logger *slog.Logger) *Sweeper {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		target:  target,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		metrics: metrics,
		logger:  logger,
	}
}

/*
Run sweeps once per period until ctx is cancelled, then returns nil.

Cancellation is checked on every tick and before every pass of a sweep, never in the
middle of a deletion.
*/
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

/*
Sweep runs one adaptive sweep.

 1. samples = min(SampleSize, number of keys). Nothing to do on an empty target.
 2. Check that many random positions (with replacement), deleting expired keys.
 3. If expired/samples is above Threshold, start over at once; otherwise stop.

A repeated pass always deleted at least one key, so a sweep over a shard that is not
being refilled ends after at most Len passes. MaxPasses and ctx bound it further.
*/
func (s *Sweeper) Sweep(ctx context.Context) Stats {
	var st Stats

	for ctx.Err() == nil {
		if s.cfg.MaxPasses > 0 && st.Passes >= s.cfg.MaxPasses {
			break
		}

		samples := min(s.cfg.SampleSize, s.target.Len())
		if samples <= 0 {
			break
		}

		expired := 0
		for range samples {
			if s.target.ExpireRandom(s.rng) {
				expired++
			}
		}

		st.Passes++
		st.Sampled += samples
		st.Expired += expired
		s.metrics.Sweep(samples, expired)

		if float64(expired)/float64(samples) <= s.cfg.Threshold {
			break
		}
		s.logger.Debug("expired ratio above threshold, sweeping again",
			"sampled", samples, "expired", expired, "pass", st.Passes)
	}

	return st
}
