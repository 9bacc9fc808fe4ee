package alloc

import (
	"sort"
)

// BucketKey positions an inner bucket within its outer bucket.
// Both indices are 1-based (server1/pod1 is {1, 1}).
type BucketKey struct {
	Outer int
	Inner int
}

// Assignment maps every inner bucket to the items placed in it.
// Empty buckets are present with a zero-length slice.
type Assignment[T any] map[BucketKey][]T

// Keys returns all bucket keys in ascending (outer, inner) order.
func (a Assignment[T]) Keys() []BucketKey {
	keys := make([]BucketKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Outer != keys[j].Outer {
			return keys[i].Outer < keys[j].Outer
		}
		return keys[i].Inner < keys[j].Inner
	})
	return keys
}

// InnerCounts returns the number of inner buckets per outer bucket,
// keyed by the outer index.
func (a Assignment[T]) InnerCounts() map[int]int {
	counts := make(map[int]int)
	for k := range a {
		counts[k.Outer]++
	}
	return counts
}

// ItemCount returns the total number of items across all buckets.
func (a Assignment[T]) ItemCount() int {
	total := 0
	for _, items := range a {
		total += len(items)
	}
	return total
}

// DistributePods partitions numServers*podsPerServer pods across numServers
// servers using allocator. The result is indexed by server (0-based).
func DistributePods(numServers, podsPerServer int, allocator Allocator) (AllocationResult, error) {
	return allocator.Allocate(numServers, numServers*podsPerServer)
}

// DistributeItems places items across the inner buckets described by
// bucketCounts, where bucketCounts[s] is the number of inner buckets of
// outer bucket s+1. Counts come from a single allocation over the flattened
// inner buckets; items are then sliced off in input order, walking outer
// buckets then inner buckets ascending.
func DistributeItems[T any](items []T, bucketCounts []int, allocator Allocator) (Assignment[T], error) {
	totalInner := 0
	for _, c := range bucketCounts {
		totalInner += max(c, 0)
	}

	counts, err := allocator.Allocate(totalInner, len(items))
	if err != nil {
		return nil, err
	}

	assignment := make(Assignment[T], totalInner)
	next, flat := 0, 0
	for s, innerCount := range bucketCounts {
		for p := 1; p <= innerCount; p++ {
			// Under a degraded floor counts may exceed the items left.
			end := min(next+counts[flat], len(items))
			assignment[BucketKey{Outer: s + 1, Inner: p}] = items[next:end:end]
			next = end
			flat++
		}
	}
	return assignment, nil
}
