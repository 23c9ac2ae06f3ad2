package concurrent

import (
	"sync"
	"testing"
)

func TestList_SearchEmpty(t *testing.T) {
	l := NewList[string]()

	v, code := l.Search(7)
	if code != OpNotFound {
		t.Errorf("Expected OpNotFound, got %v", code)
	}
	if v != "" {
		t.Errorf("Expected zero value, got %q", v)
	}
}

func TestList_InsertAndSearch(t *testing.T) {
	l := NewList[string]()

	v, code := l.InsertIfAbsent(1, "one")
	if code != OpInserted || v != "one" {
		t.Fatalf("Expected (one, OpInserted), got (%q, %v)", v, code)
	}

	v, code = l.InsertIfAbsent(2, "two")
	if code != OpInserted || v != "two" {
		t.Fatalf("Expected (two, OpInserted), got (%q, %v)", v, code)
	}

	v, code = l.Search(1)
	if code != OpFound || v != "one" {
		t.Errorf("Expected (one, OpFound), got (%q, %v)", v, code)
	}

	v, code = l.Search(3)
	if code != OpNotFound || v != "" {
		t.Errorf("Expected (, OpNotFound), got (%q, %v)", v, code)
	}
}

func TestList_InsertDuplicateReturnsExisting(t *testing.T) {
	l := NewList[string]()

	l.InsertIfAbsent(1, "first")
	v, code := l.InsertIfAbsent(1, "second")
	if code != OpFound {
		t.Errorf("Expected OpFound, got %v", code)
	}
	if v != "first" {
		t.Errorf("Expected the existing payload, got %q", v)
	}
}

func TestList_ConcurrentInsertSameKey(t *testing.T) {
	const workers = 64
	l := NewList[int]()

	results := make([]struct {
		v    int
		code OpStatus
	}, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				v, code := l.InsertIfAbsent(42, i)
				if code == OpFailed {
					continue
				}
				results[i].v = v
				results[i].code = code
				return
			}
		}(i)
	}
	wg.Wait()

	inserted := -1
	for i, r := range results {
		if r.code == OpInserted {
			if inserted >= 0 {
				t.Fatalf("Both worker %d and worker %d inserted", inserted, i)
			}
			inserted = i
		}
	}
	if inserted < 0 {
		t.Fatal("No worker inserted")
	}
	for i, r := range results {
		if r.v != inserted {
			t.Errorf("Worker %d observed payload %d, want %d", i, r.v, inserted)
		}
	}
}

func TestList_ConcurrentInsertDistinctKeys(t *testing.T) {
	const n = 500
	l := NewList[int64]()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(k int64) {
			defer wg.Done()
			for {
				_, code := l.InsertIfAbsent(k, k*10)
				if code != OpFailed {
					return
				}
			}
		}(int64(i))
	}
	wg.Wait()

	if got := l.UpdateSizeEstimate(); got != n {
		t.Errorf("Expected %d entries, got %d", n, got)
	}
	for i := int64(0); i < n; i++ {
		v, code := l.Search(i)
		if code != OpFound || v != i*10 {
			t.Fatalf("Key %d: got (%d, %v)", i, v, code)
		}
	}
}

func TestList_Keys(t *testing.T) {
	l := NewList[int]()
	for i := int64(0); i < 5; i++ {
		l.InsertIfAbsent(i, int(i))
	}

	keys := l.Keys()
	if len(keys) != 5 {
		t.Fatalf("Expected 5 keys, got %d", len(keys))
	}
	// Head insertion yields newest first.
	for i, k := range keys {
		if want := int64(4 - i); k != want {
			t.Errorf("keys[%d] = %d, want %d", i, k, want)
		}
	}
}

func TestList_SizeEstimateAdvisory(t *testing.T) {
	l := NewList[int]()
	for i := int64(0); i < 10; i++ {
		l.InsertIfAbsent(i, int(i))
	}
	// Single-threaded inserts keep the estimate exact.
	if got := l.SizeEstimate(); got != 10 {
		t.Errorf("Expected estimate 10, got %d", got)
	}
}

func TestOpStatus_String(t *testing.T) {
	cases := map[OpStatus]string{
		OpNull:     "null",
		OpFound:    "found",
		OpNotFound: "not_found",
		OpFailed:   "failed",
		OpInserted: "inserted",
		OpDeleted:  "deleted",
		OpError:    "error",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", code, got, want)
		}
	}
}
