package types

import (
	"context"
	"time"

	"github.com/krisalay/kvstore/codec"
)

// Loader is the contract between the store and whatever produces values on a miss.
type Loader interface {

	/*
		Load is called when a read misses. The key was not found in memory (or it had expired),
		so the store asks the Loader to produce it.
		1. Store checks memory → key not found
		2. Store calls Load(key)
		3. Loader builds the value (DB, API, computation)
		4. Store keeps the value, with the returned expiration if it is not zero
		5. Store returns the decoded value
	*/
	Load(ctx context.Context, key string) (value codec.Value, expiresAt time.Time, err error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (codec.Value, time.Time, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (codec.Value, time.Time, error) {
	return f(ctx, key)
}
