package kvstore

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/krisalay/kvstore/expiration"
	"github.com/krisalay/kvstore/shard"
	"github.com/krisalay/kvstore/types"
)

// Options configures a Storage. The zero value of every field except Shards means "use the default".
type Options struct {

	// Shards is the number of independently locked partitions. Must be positive.
	// Powers of two select shards with a mask, other counts with a modulo.
	Shards int

	// Expiration tunes the background sweepers started by StartBackgroundExpiration.
	Expiration expiration.Config

	// Metrics receives hit/miss/expire/sweep events.
	Metrics types.Metrics

	// Loader is used by GetOrLoad on a miss.
	Loader types.Loader

	// Logger is used for background work.
	Logger *slog.Logger

	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time
}

// DefaultShardCount returns 4 shards per CPU rounded up to a power of two.
func DefaultShardCount() int {
	return shard.NextPowerOfTwo(runtime.NumCPU() * 4)
}

// DefaultOptions returns options with the default shard count and sweeper settings.
func DefaultOptions() Options {
	return Options{
		Shards:     DefaultShardCount(),
		Expiration: expiration.DefaultConfig(),
	}
}
