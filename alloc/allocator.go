package alloc

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// AllocationResult holds the integer count assigned to each bucket.
// When the floor is feasible, its entries sum exactly to the allocated total.
type AllocationResult []int

// Sum returns the total count across all buckets.
func (r AllocationResult) Sum() int {
	total := 0
	for _, c := range r {
		total += c
	}
	return total
}

// Order selects how the correction step walks buckets.
type Order int

const (
	// ByWeight hands surplus to the heaviest buckets first and takes deficit
	// from the lightest first. Ties break on index ascending.
	ByWeight Order = iota
	// ByRank walks indices directly: surplus from index 0 upward, deficit
	// from the last index downward. Equivalent to ByWeight for
	// monotone non-increasing weights such as zipf.
	ByRank
)

// FloorPolicy decides what happens when k*minCount exceeds the total.
type FloorPolicy string

const (
	// FloorDegrade keeps every bucket at the floor and returns a result
	// whose sum exceeds the requested total.
	FloorDegrade FloorPolicy = "degrade"
	// FloorStrict fails with ErrInfeasibleFloor.
	FloorStrict FloorPolicy = "strict"
)

// ParseFloorPolicy validates a floor policy name. Empty selects FloorDegrade.
func ParseFloorPolicy(name string) (FloorPolicy, error) {
	switch p := FloorPolicy(name); p {
	case "":
		return FloorDegrade, nil
	case FloorDegrade, FloorStrict:
		return p, nil
	default:
		return "", fmt.Errorf("unknown floor policy %q; valid: degrade, strict", name)
	}
}

// FloorFeasible reports whether k buckets can each hold minCount out of n.
func FloorFeasible(k, n, minCount int) bool {
	return k <= 0 || minCount <= 0 || k*minCount <= n
}

// Allocate turns weights into integer bucket counts over n units, each at
// least minCount. See Order for how truncation error is corrected.
//
// If k*minCount > n the floor wins: every bucket keeps minCount and the
// result sums to more than n.
func Allocate(weights WeightVector, n, minCount int, order Order) AllocationResult {
	k := len(weights)
	if k <= 0 {
		return AllocationResult{}
	}

	result := make(AllocationResult, k)
	for i, w := range weights {
		result[i] = max(int(math.Floor(w*float64(n))), minCount)
	}

	diff := n - result.Sum()
	switch {
	case diff > 0:
		surplus := surplusOrder(weights, order)
		for i := 0; i < diff; i++ {
			result[surplus[i%k]]++
		}
	case diff < 0:
		deficit := deficitOrder(weights, order)
		for remaining := -diff; remaining > 0; {
			removed := 0
			for _, idx := range deficit {
				if remaining == 0 {
					break
				}
				if result[idx] > minCount {
					result[idx]--
					remaining--
					removed++
				}
			}
			if removed == 0 {
				break // every bucket sits at the floor
			}
		}
	}
	return result
}

// surplusOrder lists bucket indices in the order they receive extra units.
func surplusOrder(weights WeightVector, order Order) []int {
	idx := identity(len(weights))
	if order == ByRank {
		return idx
	}
	sort.SliceStable(idx, func(a, b int) bool { return weights[idx[a]] > weights[idx[b]] })
	return idx
}

// deficitOrder lists bucket indices in the order they give up units.
func deficitOrder(weights WeightVector, order Order) []int {
	idx := identity(len(weights))
	if order == ByRank {
		for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
		return idx
	}
	sort.SliceStable(idx, func(a, b int) bool { return weights[idx[a]] < weights[idx[b]] })
	return idx
}

func identity(k int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Allocator bundles a shape with its floor so the same allocation can be
// applied at any level of the hierarchy.
type Allocator struct {
	Shape    Shape
	Params   Params
	MinCount int
	Floor    FloorPolicy
	// RNG feeds pareto weights. Required for Pareto, ignored otherwise.
	RNG *rand.Rand
}

// Allocate distributes n units over k buckets.
// k <= 0 yields an empty result and no error.
func (a Allocator) Allocate(k, n int) (AllocationResult, error) {
	if _, err := ParseShape(string(a.Shape)); err != nil {
		return nil, err
	}
	if k <= 0 {
		return AllocationResult{}, nil
	}
	if a.Floor == FloorStrict && !FloorFeasible(k, n, a.MinCount) {
		return nil, fmt.Errorf("%w: %d buckets x %d minimum > %d units", ErrInfeasibleFloor, k, a.MinCount, n)
	}
	if a.Shape == Pareto && a.RNG == nil {
		return nil, fmt.Errorf("pareto allocation requires a random source")
	}

	weights, err := Weights(a.Shape, k, a.Params, a.RNG)
	if err != nil {
		return nil, err
	}
	order := ByWeight
	if a.Shape == Zipf {
		order = ByRank
	}
	return Allocate(weights, n, a.MinCount, order), nil
}
