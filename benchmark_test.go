package kvstore_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	kvstore "github.com/krisalay/kvstore"
	"github.com/krisalay/kvstore/codec"
)

func newBenchmarkStorage(b *testing.B) *kvstore.Storage {
	s, err := kvstore.New(kvstore.Options{Shards: 8})
	if err != nil {
		b.Fatal(err)
	}
	return s
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkStorageGetHit(b *testing.B) {
	s := newBenchmarkStorage(b)
	s.Set("key", codec.StringValue("value"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref, _ := kvstore.Get(s, "key", codec.String)
		ref.Release()
	}
}

func BenchmarkStorageGetMiss(b *testing.B) {
	s := newBenchmarkStorage(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kvstore.Get(s, fmt.Sprintf("miss-%d", i), codec.String)
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkStorageParallelGet(b *testing.B) {
	s := newBenchmarkStorage(b)

	for i := 0; i < 1000; i++ {
		s.Set(fmt.Sprintf("key-%d", i), codec.Int.Encode(i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ref, _ := kvstore.Get(s, "key-42", codec.Int)
			ref.Release()
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkStorageSet(b *testing.B) {
	s := newBenchmarkStorage(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(fmt.Sprintf("key-%d", i), codec.Int.Encode(i))
	}
}

func BenchmarkStorageSetWithTTL(b *testing.B) {
	s := newBenchmarkStorage(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetWithTTL(fmt.Sprintf("key-%d", i), codec.Int.Encode(i), time.Minute)
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkStorageHighConcurrency(b *testing.B) {
	s := newBenchmarkStorage(b)

	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		s.Set(keys[i], codec.Int.Encode(i))
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				key := keys[(id+j)%len(keys)]
				if j%10 == 0 {
					s.Set(key, codec.Int.Encode(j))
					continue
				}
				ref, _ := kvstore.Get(s, key, codec.Int)
				if ref != nil {
					ref.Release()
				}
			}
		}(i)
	}
	wg.Wait()
}
