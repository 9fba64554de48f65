package expiration

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/engine"
	"github.com/krisalay/kvstore/shard"
)

type testClock struct {
	ms atomic.Int64
}

func (c *testClock) Now() time.Time { return time.UnixMilli(c.ms.Load()) }

func (c *testClock) Advance(d time.Duration) { c.ms.Add(d.Milliseconds()) }

type sweepMetrics struct {
	passes, sampled, expired atomic.Int64
}

func (m *sweepMetrics) Hit()    {}
func (m *sweepMetrics) Miss()   {}
func (m *sweepMetrics) Expire() {}
func (m *sweepMetrics) Sweep(sampled, expired int) {
	m.passes.Add(1)
	m.sampled.Add(int64(sampled))
	m.expired.Add(int64(expired))
}

func newSweptShard(t *testing.T, live, expiring int) (*shard.Shard, *testClock) {
	t.Helper()
	clock := &testClock{}
	clock.ms.Store(1_700_000_000_000)

	s := shard.NewShard(0, engine.New(clock.Now, nil, nil, nil))
	for i := range live {
		s.Insert("live-"+strconv.Itoa(i), codec.Int.Encode(i), 0)
	}
	exp := clock.Now().Add(100 * time.Millisecond).UnixMilli()
	for i := range expiring {
		s.Insert("ttl-"+strconv.Itoa(i), codec.Int.Encode(i), exp)
	}
	return s, clock
}

func newSeededSweeper(target Target, cfg Config, m *sweepMetrics) *Sweeper {
	sw := NewSweeper(target, cfg, m, nil)
	sw.rng = rand.New(rand.NewPCG(42, 7))
	return sw
}

func TestSweepEmptyTarget(t *testing.T) {
	s, _ := newSweptShard(t, 0, 0)
	m := &sweepMetrics{}

	st := newSeededSweeper(s, DefaultConfig(), m).Sweep(context.Background())
	assert.Equal(t, Stats{}, st)
	assert.Equal(t, int64(0), m.passes.Load())
}

func TestSweepNothingExpired(t *testing.T) {
	s, _ := newSweptShard(t, 50, 0)

	st := newSeededSweeper(s, DefaultConfig(), &sweepMetrics{}).Sweep(context.Background())
	assert.Equal(t, 1, st.Passes)
	assert.Equal(t, DefaultSampleSize, st.Sampled)
	assert.Equal(t, 0, st.Expired)
	assert.Equal(t, 50, s.Len())
}

func TestSweepSamplesAtMostKeyCount(t *testing.T) {
	s, _ := newSweptShard(t, 3, 0)

	st := newSeededSweeper(s, DefaultConfig(), &sweepMetrics{}).Sweep(context.Background())
	assert.Equal(t, 1, st.Passes)
	assert.Equal(t, 3, st.Sampled)
}

func TestSweepConvergesWhenEverythingExpired(t *testing.T) {
	s, clock := newSweptShard(t, 0, 1000)
	clock.Advance(time.Second)
	m := &sweepMetrics{}

	st := newSeededSweeper(s, DefaultConfig(), m).Sweep(context.Background())

	// Every sampled key is expired, so the ratio stays at 100% until the shard is empty.
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1000, st.Expired)
	assert.Equal(t, int64(st.Passes), m.passes.Load())
	assert.Equal(t, int64(1000), m.expired.Load())
}

func TestSweepConvergesWithLiveKeys(t *testing.T) {
	s, clock := newSweptShard(t, 200, 800)
	clock.Advance(time.Second)
	sw := newSeededSweeper(s, DefaultConfig(), &sweepMetrics{})

	for range 20 {
		sw.Sweep(context.Background())
	}

	assert.GreaterOrEqual(t, s.Len(), 200, "live keys are never swept")
	assert.Less(t, s.Len(), 400, "most expired keys should be gone")
	for i := range 200 {
		assert.True(t, s.Exists("live-"+strconv.Itoa(i)))
	}
}

func TestSweepStopsAtThreshold(t *testing.T) {
	s, clock := newSweptShard(t, 1000, 10)
	clock.Advance(time.Second)

	st := newSeededSweeper(s, DefaultConfig(), &sweepMetrics{}).Sweep(context.Background())
	assert.Equal(t, 1, st.Passes, "1% expired keys is below the threshold")
}

func TestSweepMaxPasses(t *testing.T) {
	s, clock := newSweptShard(t, 0, 500)
	clock.Advance(time.Second)

	cfg := DefaultConfig()
	cfg.MaxPasses = 2
	st := newSeededSweeper(s, cfg, &sweepMetrics{}).Sweep(context.Background())

	assert.Equal(t, 2, st.Passes)
	assert.Equal(t, 40, st.Expired)
	assert.Equal(t, 460, s.Len())
}

func TestSweepHonoursCancelledContext(t *testing.T) {
	s, clock := newSweptShard(t, 0, 100)
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := newSeededSweeper(s, DefaultConfig(), &sweepMetrics{}).Sweep(ctx)
	assert.Equal(t, 0, st.Passes)
	assert.Equal(t, 100, s.Len())
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	s, clock := newSweptShard(t, 10, 100)
	clock.Advance(time.Second)

	cfg := DefaultConfig()
	cfg.Period = 5 * time.Millisecond
	sw := newSeededSweeper(s, cfg, &sweepMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Len() <= 30 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{Period: 0, SampleSize: 20, Threshold: 0.2},
		{Period: time.Second, SampleSize: 0, Threshold: 0.2},
		{Period: time.Second, SampleSize: 20, Threshold: 0},
		{Period: time.Second, SampleSize: 20, Threshold: -0.1},
		{Period: time.Second, SampleSize: 20, Threshold: 1.5},
		{Period: time.Second, SampleSize: 20, Threshold: 0.2, MaxPasses: -1},
	}
	for _, cfg := range bad {
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "%+v", cfg)
	}

	edge := Config{Period: time.Second, SampleSize: 20, Threshold: 1}
	assert.NoError(t, edge.Validate())
}

func TestConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.WithDefaults())

	cfg := Config{Period: 5 * time.Second}.WithDefaults()
	assert.Equal(t, 5*time.Second, cfg.Period)
	assert.Equal(t, DefaultSampleSize, cfg.SampleSize)
}
