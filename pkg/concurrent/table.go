package concurrent

import (
	"fmt"
	"sync/atomic"
)

// Table is a concurrent hash table from int64 keys to values of type V.
// It has a fixed number of buckets; each bucket is a List created lazily
// and racily (losing allocations are discarded). There is no resize, so
// callers must size the table for the expected population.
type Table[V any] struct {
	buckets     []atomic.Pointer[List[V]]
	retryBudget int
}

// DefaultBucketCount returns a reasonable bucket count for an expected
// population of n keys.
func DefaultBucketCount(n int) int {
	return 1 + n/100
}

// NewTable creates a table with the given number of buckets.
// The bucket count must be positive.
func NewTable[V any](numBuckets int) *Table[V] {
	if numBuckets <= 0 {
		panic(fmt.Sprintf("concurrent: table needs a positive bucket count, got %d", numBuckets))
	}
	return &Table[V]{
		buckets:     make([]atomic.Pointer[List[V]], numBuckets),
		retryBudget: DefaultRetryBudget,
	}
}

// WithRetryBudget sets the retry budget used for bucket creation and for
// the bucket lists, and returns the table. Call before the table is shared.
func (t *Table[V]) WithRetryBudget(n int) *Table[V] {
	if n > 0 {
		t.retryBudget = n
	}
	return t
}

// NumBuckets returns the fixed bucket count.
func (t *Table[V]) NumBuckets() int {
	return len(t.buckets)
}

// bucketIndex hashes on the unsigned bit pattern so negative keys still
// land in range.
func (t *Table[V]) bucketIndex(k int64) int {
	return int(uint64(k) % uint64(len(t.buckets)))
}

// Search looks up key k. An empty bucket reports OpNotFound without
// touching any list.
func (t *Table[V]) Search(k int64) (V, OpStatus) {
	b := t.buckets[t.bucketIndex(k)].Load()
	if b == nil {
		var zero V
		return zero, OpNotFound
	}
	return b.Search(k)
}

// InsertIfAbsent ensures the bucket for k has a list and delegates the
// insert to it. Result codes are those of List.InsertIfAbsent, plus
// OpFailed if the bucket could not be created under contention.
func (t *Table[V]) InsertIfAbsent(k int64, v V) (V, OpStatus) {
	idx := t.bucketIndex(k)

	for retry := 0; t.buckets[idx].Load() == nil && retry < t.retryBudget; retry++ {
		t.tryCreateBucket(idx)
	}

	b := t.buckets[idx].Load()
	if b == nil {
		var zero V
		return zero, OpFailed
	}
	return b.InsertIfAbsent(k, v)
}

// tryCreateBucket installs a fresh list at the slot unless one is already
// there. The allocation of a losing racer is simply dropped.
func (t *Table[V]) tryCreateBucket(idx int) {
	if t.buckets[idx].Load() != nil {
		return
	}
	empty := NewList[V]().WithRetryBudget(t.retryBudget)
	t.buckets[idx].CompareAndSwap(nil, empty)
}

// Keys returns a snapshot of all keys in the table. Only meaningful on a
// quiescent table.
func (t *Table[V]) Keys() []int64 {
	var keys []int64
	for i := range t.buckets {
		if b := t.buckets[i].Load(); b != nil {
			keys = append(keys, b.Keys()...)
		}
	}
	return keys
}

// SizeEstimate sums the advisory sizes of all bucket lists.
func (t *Table[V]) SizeEstimate() int64 {
	var n int64
	for i := range t.buckets {
		if b := t.buckets[i].Load(); b != nil {
			n += b.SizeEstimate()
		}
	}
	return n
}
