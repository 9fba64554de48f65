package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	kvstore "github.com/krisalay/kvstore"
	"github.com/krisalay/kvstore/api"
	"github.com/krisalay/kvstore/codec"
	"github.com/krisalay/kvstore/config"
)

// ================= BACKING STORE =================
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]string)}
}

func (s *InMemoryStore) Load(ctx context.Context, key string) (codec.Value, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fmt.Println("STORE  → load:", key)
	v, ok := s.data[key]
	if !ok {
		return codec.Value{}, time.Time{}, fmt.Errorf("store: %q not found", key)
	}
	return codec.StringValue(v), time.Time{}, nil
}

func (s *InMemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// ================= METRICS =================
type Metrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	expired int
	sweeps  int
	sampled int
	swept   int
}

func (m *Metrics) Hit()    { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()   { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Expire() { m.mu.Lock(); m.expired++; m.mu.Unlock() }
func (m *Metrics) Sweep(sampled, expired int) {
	m.mu.Lock()
	m.sweeps++
	m.sampled += sampled
	m.swept += expired
	m.mu.Unlock()
}

func (m *Metrics) Print() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS           : %d\n", m.hits)
	fmt.Printf("MISSES         : %d\n", m.misses)
	fmt.Printf("EXPIRED        : %d\n", m.expired)
	fmt.Printf("SWEEP PASSES   : %d\n", m.sweeps)
	fmt.Printf("SAMPLED KEYS   : %d\n", m.sampled)
	fmt.Printf("SWEPT KEYS     : %d\n", m.swept)
}

// ================= MAIN =================

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	shards := flag.Int("shards", 0, "number of shards (overrides the config file)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *shards); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, shards int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if shards != 0 {
		cfg.Shards = shards
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("SHARDS          :", cfg.Shards)
	fmt.Println("SWEEP PERIOD    :", cfg.Expiration.Period)
	fmt.Println("SWEEP SAMPLES   :", cfg.Expiration.SampleSize)
	fmt.Println("SWEEP THRESHOLD :", cfg.Expiration.Threshold)

	// ---------------- Backing Store ----------------
	store := NewInMemoryStore()
	store.Put("a", "alpha")
	store.Put("b", "beta")

	// ---------------- Metrics ----------------
	metrics := &Metrics{}

	// ---------------- Storage ----------------
	opts := cfg.Options()
	opts.Metrics = metrics
	opts.Loader = store
	opts.Logger = logger

	kv, err := kvstore.New(opts)
	if err != nil {
		return err
	}
	if err := kv.StartBackgroundExpiration(ctx); err != nil {
		return err
	}

	if err := demo(ctx, kv); err != nil {
		return err
	}

	metrics.Print()

	fmt.Println("\n==================== SHUTDOWN ====================")
	if err := kv.Close(); err != nil {
		return err
	}
	fmt.Println("SYSTEM → storage closed cleanly")
	return nil
}

func demo(ctx context.Context, kv *kvstore.Storage) error {
	// ====================================================
	fmt.Println("\n==================== 1) SET / GET ====================")
	kv.Set("greeting", codec.StringValue("hello"))
	kv.Set("answer", codec.Int64.Encode(42))

	greeting, err := kvstore.Get(kv, "greeting", codec.String)
	if err != nil {
		return err
	}
	fmt.Println("KV     → GET greeting =", greeting.Value())
	greeting.Release()

	answer, err := kvstore.Get(kv, "answer", codec.Int64)
	if err != nil {
		return err
	}
	fmt.Println("KV     → GET answer =", answer.Value())
	answer.Release()

	// ====================================================
	fmt.Println("\n==================== 2) DECODE ERROR ====================")
	_, err = kvstore.Get(kv, "greeting", codec.Int128)
	fmt.Println("KV     → GET greeting as int128:", err)

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	kv.SetWithTTL("x", codec.StringValue("temp-value"), 500*time.Millisecond)
	fmt.Println("KV     → SET x (TTL = 500ms), TTL now", kv.TTL("x").Round(time.Millisecond))

	if err := sleep(ctx, time.Second); err != nil {
		return err
	}
	ref, err := kvstore.Get(kv, "x", codec.String)
	if err != nil {
		return err
	}
	fmt.Println("KV     → GET x after TTL found =", ref != nil)
	if ref != nil {
		ref.Release()
	}

	// ====================================================
	fmt.Println("\n==================== 4) READ-THROUGH + SINGLEFLIGHT ====================")
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, err := kvstore.GetOrLoad(ctx, kv, "b", codec.String)
			fmt.Printf("GOROUTINE-%d → GET b = %v (err: %v)\n", id, val, err)
		}(i)
	}
	wg.Wait()

	// ====================================================
	fmt.Println("\n==================== 5) ACTIVE EXPIRATION ====================")
	for i := 0; i < 200; i++ {
		kv.SetWithTTL(fmt.Sprintf("session:%d", i), codec.Int.Encode(i), 100*time.Millisecond)
	}
	fmt.Println("KV     → 200 session keys written, len =", kv.Len())
	if err := sleep(ctx, 3*time.Second); err != nil {
		return err
	}
	fmt.Println("KV     → len after sweeping =", kv.Len())

	// ====================================================
	fmt.Println("\n==================== 6) KEYS + REMOVE ====================")
	describe(kv)
	kv.Remove("b")
	fmt.Println("KV     → REMOVE b")
	describe(kv)
	return nil
}

// describe only needs the non-generic contract.
func describe(kv api.KV) {
	fmt.Println("KV     → KEYS [" + strings.Join(kv.Keys(), ", ") + "]")
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
