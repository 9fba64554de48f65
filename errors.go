package kvstore

import (
	"errors"

	"github.com/krisalay/kvstore/engine"
	"github.com/krisalay/kvstore/expiration"
	"github.com/krisalay/kvstore/shard"
)

var (
	// ErrInvalidShardCount is returned by New when Options.Shards is not positive.
	ErrInvalidShardCount = shard.ErrInvalidShardCount

	// ErrInvalidExpirationConfig is returned by New for unusable sweeper settings.
	ErrInvalidExpirationConfig = expiration.ErrInvalidConfig

	// ErrNoLoader is returned by GetOrLoad when Options.Loader is nil.
	ErrNoLoader = engine.ErrNoLoader

	// ErrExpirationRunning is returned when background expiration is started twice.
	ErrExpirationRunning = errors.New("kvstore: background expiration already running")

	// ErrClosed is returned when background expiration is started on a closed Storage.
	ErrClosed = errors.New("kvstore: storage is closed")
)
