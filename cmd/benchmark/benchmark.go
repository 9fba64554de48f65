package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	kvstore "github.com/krisalay/kvstore"
	"github.com/krisalay/kvstore/codec"
)

// ================= BENCHMARK =================

func main() {
	shards := flag.Int("shards", kvstore.DefaultShardCount(), "number of shards")
	preloadKeys := flag.Int("keys", 100000, "keys written before the run")
	goroutines := flag.Int("goroutines", 200, "concurrent workers")
	opsPerG := flag.Int("ops", 5000, "operations per worker")
	writeRatio := flag.Int("writes", 10, "percentage of operations that are writes")
	flag.Parse()

	fmt.Println("\n================ KV LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", *shards)
	fmt.Println("Preload Keys :", *preloadKeys)
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("Writes (%)   :", *writeRatio)
	fmt.Println("---------------------------------")

	if *preloadKeys <= 0 {
		fmt.Println("error: -keys must be positive")
		return
	}

	kv, err := kvstore.New(kvstore.Options{Shards: *shards})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// ---------------- Preload ----------------
	fmt.Println("Preloading...")
	keys := make([]string, *preloadKeys)
	for i := range keys {
		keys[i] = uuid.NewString()
		kv.SetWithTTL(keys[i], codec.Int.Encode(i), time.Hour)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(*goroutines)

	for i := 0; i < *goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				key := keys[(id*7919+j)%len(keys)]
				if j%100 < *writeRatio {
					kv.Set(key, codec.Int.Encode(j))
					continue
				}
				ref, _ := kvstore.Get(kv, key, codec.Int)
				if ref != nil {
					ref.Release()
				}
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Stored Keys      : %d\n", kv.Len())
	fmt.Println("=========================================")

	kv.Close()
}
