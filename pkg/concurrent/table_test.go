package concurrent

import (
	"sync"
	"testing"
)

func TestTable_SearchEmptyBucket(t *testing.T) {
	tbl := NewTable[int](8)

	v, code := tbl.Search(3)
	if code != OpNotFound || v != 0 {
		t.Errorf("Expected (0, OpNotFound), got (%d, %v)", v, code)
	}
}

func TestTable_InsertAndSearch(t *testing.T) {
	tbl := NewTable[string](4)

	// More keys than buckets forces chaining.
	keys := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	for _, k := range keys {
		_, code := tbl.InsertIfAbsent(k, "v")
		if code != OpInserted {
			t.Fatalf("Key %d: expected OpInserted, got %v", k, code)
		}
	}
	for _, k := range keys {
		_, code := tbl.Search(k)
		if code != OpFound {
			t.Errorf("Key %d: expected OpFound, got %v", k, code)
		}
	}
	if _, code := tbl.Search(100); code != OpNotFound {
		t.Errorf("Expected OpNotFound for absent key, got %v", code)
	}
}

func TestTable_NegativeKeysStayInRange(t *testing.T) {
	tbl := NewTable[int](7)

	for _, k := range []int64{-1, -7, -100, -9223372036854775808} {
		if _, code := tbl.InsertIfAbsent(k, 1); code != OpInserted {
			t.Fatalf("Key %d: expected OpInserted, got %v", k, code)
		}
		if _, code := tbl.Search(k); code != OpFound {
			t.Errorf("Key %d: expected OpFound, got %v", k, code)
		}
	}
}

func TestTable_HighContentionSingleKey(t *testing.T) {
	const workers = 100
	tbl := NewTable[int](DefaultBucketCount(workers))

	payloads := make([]int, workers)
	codes := make([]OpStatus, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				v, code := tbl.InsertIfAbsent(42, i)
				if code == OpFailed {
					continue
				}
				payloads[i], codes[i] = v, code
				return
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	winner := -1
	for i := range codes {
		if codes[i] == OpInserted {
			winners++
			winner = i
		}
	}
	if winners != 1 {
		t.Fatalf("Expected exactly 1 successful insert, got %d", winners)
	}
	for i := range payloads {
		if payloads[i] != winner {
			t.Errorf("Worker %d observed payload %d, want %d", i, payloads[i], winner)
		}
	}
}

func TestTable_ConcurrentDistinctKeys(t *testing.T) {
	const n = 1000
	tbl := NewTable[int64](DefaultBucketCount(n))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(k int64) {
			defer wg.Done()
			for {
				if _, code := tbl.InsertIfAbsent(k, k); code != OpFailed {
					return
				}
			}
		}(int64(i))
	}
	wg.Wait()

	keys := tbl.Keys()
	if len(keys) != n {
		t.Fatalf("Expected %d keys, got %d", n, len(keys))
	}
	seen := make(map[int64]bool, n)
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("Key %d appears twice", k)
		}
		seen[k] = true
	}
}

func TestDefaultBucketCount(t *testing.T) {
	if got := DefaultBucketCount(0); got != 1 {
		t.Errorf("DefaultBucketCount(0) = %d, want 1", got)
	}
	if got := DefaultBucketCount(250); got != 3 {
		t.Errorf("DefaultBucketCount(250) = %d, want 3", got)
	}
}

func TestNewTable_RejectsNonPositiveBuckets(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for zero buckets")
		}
	}()
	NewTable[int](0)
}
