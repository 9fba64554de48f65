package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/types"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestNewFillsDefaults(t *testing.T) {
	e := New(nil, nil, nil, nil)

	assert.NotNil(t, e.Clock)
	assert.Equal(t, types.NoopMetrics{}, e.Metrics)
	assert.Nil(t, e.Loader)
	assert.NotNil(t, e.Logger)
	assert.WithinDuration(t, time.Now(), e.Now(), time.Second)
}

func TestIsExpired(t *testing.T) {
	e := New(fixedClock(1000), nil, nil, nil)

	assert.False(t, e.IsExpired(&types.Entry{}), "no TTL never expires")
	assert.False(t, e.IsExpired(&types.Entry{ExpiresAt: 1001}))
	assert.False(t, e.IsExpired(&types.Entry{ExpiresAt: 1000}), "live during the expiring millisecond")
	assert.True(t, e.IsExpired(&types.Entry{ExpiresAt: 999}))
}

func TestExpiryMillis(t *testing.T) {
	e := New(fixedClock(1000), nil, nil, nil)

	assert.Equal(t, int64(0), e.ExpiryMillis(time.Time{}))
	assert.Equal(t, int64(-1), e.ExpiryMillis(time.UnixMilli(0)), "the epoch must not read as 'no TTL'")
	assert.Equal(t, int64(5000), e.ExpiryMillis(time.UnixMilli(5000)))
	assert.Equal(t, int64(3000), e.ExpiryAfter(2*time.Second))
	assert.True(t, e.IsExpired(&types.Entry{ExpiresAt: e.ExpiryAfter(-time.Second)}))
}

func TestRemaining(t *testing.T) {
	e := New(fixedClock(1000), nil, nil, nil)

	assert.Equal(t, time.Duration(-1), e.Remaining(&types.Entry{}))
	assert.Equal(t, time.Duration(-2), e.Remaining(&types.Entry{ExpiresAt: 999}))
	assert.Equal(t, time.Duration(0), e.Remaining(&types.Entry{ExpiresAt: 1000}))
	assert.Equal(t, 1500*time.Millisecond, e.Remaining(&types.Entry{ExpiresAt: 2500}))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	_, _, err := New(nil, nil, nil, nil).Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNoLoader)

	boom := errors.New("boom")
	loader := types.LoaderFunc(func(ctx context.Context, key string) (codec.Value, time.Time, error) {
		if key == "bad" {
			return codec.Value{}, time.Time{}, boom
		}
		return codec.StringValue("v:" + key), time.UnixMilli(42), nil
	})
	e := New(nil, nil, loader, nil)

	v, exp, err := e.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v:k", v.String())
	assert.Equal(t, time.UnixMilli(42), exp)

	_, _, err = e.Load(ctx, "bad")
	assert.ErrorIs(t, err, boom)
}
