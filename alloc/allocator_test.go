package alloc

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_Uniform_RemainderGoesToLowestIndices(t *testing.T) {
	tests := []struct {
		n, k int
		want AllocationResult
	}{
		{10, 3, AllocationResult{4, 3, 3}},
		{10, 4, AllocationResult{3, 3, 2, 2}},
		{9, 3, AllocationResult{3, 3, 3}},
		{49, 49, make49Ones()},
		{2, 5, AllocationResult{1, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		w, err := Weights(Uniform, tt.k, Params{}, nil)
		require.NoError(t, err)
		got := Allocate(w, tt.n, 0, ByWeight)
		assert.Equal(t, tt.want, got, "n=%d k=%d", tt.n, tt.k)
	}
}

func make49Ones() AllocationResult {
	r := make(AllocationResult, 49)
	for i := range r {
		r[i] = 1
	}
	return r
}

func TestAllocate_EmptyWeights_EmptyResult(t *testing.T) {
	assert.Empty(t, Allocate(WeightVector{}, 10, 1, ByWeight))
}

func TestAllocate_SurplusGoesToHeaviestFirst(t *testing.T) {
	// GIVEN weights whose truncation leaves 2 units undistributed
	w := WeightVector{0.15, 0.55, 0.30}

	// WHEN 10 units are allocated (raw 1, 5, 3)
	got := Allocate(w, 10, 0, ByWeight)

	// THEN the heaviest bucket receives the surplus
	assert.Equal(t, AllocationResult{1, 6, 3}, got, "raw [1,5,3] has diff 1")

	got = Allocate(w, 11, 0, ByWeight)
	assert.Equal(t, AllocationResult{1, 7, 3}, got, "raw [1,6,3] has diff 1")
}

func TestAllocate_DeficitSkipsBucketsAtFloor(t *testing.T) {
	// GIVEN a light bucket clamped up to the floor
	w := WeightVector{0.9, 0.1}

	// WHEN the clamp overshoots by 2 (raw [9,1] -> [9,3])
	got := Allocate(w, 10, 3, ByWeight)

	// THEN the deficit comes entirely from the bucket above the floor
	assert.Equal(t, AllocationResult{7, 3}, got)
}

func TestAllocate_Zipf_ByRank(t *testing.T) {
	tests := []struct {
		k, n, min int
		want      AllocationResult
	}{
		{3, 100, 0, AllocationResult{59, 26, 15}},
		{3, 100, 1, AllocationResult{59, 26, 15}},
		{4, 40, 1, AllocationResult{22, 9, 5, 4}},
		{5, 20, 3, AllocationResult{8, 3, 3, 3, 3}},
	}
	for _, tt := range tests {
		w, err := Weights(Zipf, tt.k, Params{}, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Allocate(w, tt.n, tt.min, ByRank), "k=%d n=%d min=%d", tt.k, tt.n, tt.min)
	}
}

func TestAllocate_InfeasibleFloor_KeepsFloor(t *testing.T) {
	// GIVEN 4 buckets with floor 1 but only 2 units
	w, _ := Weights(Uniform, 4, Params{}, nil)

	// WHEN allocated
	got := Allocate(w, 2, 1, ByWeight)

	// THEN the floor wins and the sum overshoots
	assert.Equal(t, AllocationResult{1, 1, 1, 1}, got)
	assert.False(t, FloorFeasible(4, 2, 1))
}

func TestFloorFeasible(t *testing.T) {
	assert.True(t, FloorFeasible(4, 4, 1))
	assert.True(t, FloorFeasible(4, 0, 0))
	assert.True(t, FloorFeasible(0, 0, 5))
	assert.False(t, FloorFeasible(3, 5, 2))
}

// TestAllocate_Conservation_AllShapes verifies that whenever the floor is
// feasible the counts sum to n and every count is at least the floor.
func TestAllocate_Conservation_AllShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, shape := range []Shape{Uniform, Pareto, Zipf} {
		for k := 1; k <= 12; k++ {
			for _, n := range []int{0, 1, 7, 12, 50, 101, 1000} {
				for _, minCount := range []int{0, 1, 2, 5} {
					if k*minCount > n {
						continue
					}
					a := Allocator{Shape: shape, MinCount: minCount, RNG: rng}
					got, err := a.Allocate(k, n)
					require.NoError(t, err)
					require.Len(t, got, k)
					if got.Sum() != n {
						t.Fatalf("%s k=%d n=%d min=%d: sum=%d, counts=%v", shape, k, n, minCount, got.Sum(), got)
					}
					for i, c := range got {
						if c < minCount {
							t.Fatalf("%s k=%d n=%d min=%d: bucket %d has %d", shape, k, n, minCount, i, c)
						}
					}
				}
			}
		}
	}
}

func TestAllocate_Zipf_MonotoneNonIncreasing(t *testing.T) {
	for _, alpha := range []float64{0.3, 1.2, 3.0} {
		for k := 1; k <= 15; k++ {
			for _, n := range []int{k, 3 * k, 100, 997} {
				for _, minCount := range []int{0, 1} {
					a := Allocator{Shape: Zipf, Params: Params{Alpha: alpha}, MinCount: minCount}
					got, err := a.Allocate(k, n)
					require.NoError(t, err)
					for i := 1; i < len(got); i++ {
						if got[i] > got[i-1] {
							t.Fatalf("alpha=%.1f k=%d n=%d: counts %v not monotone", alpha, k, n, got)
						}
					}
				}
			}
		}
	}
}

func TestAllocator_Pareto_SameSeedSameResult(t *testing.T) {
	a1 := Allocator{Shape: Pareto, Params: Params{Alpha: 1.5}, MinCount: 1, RNG: rand.New(rand.NewSource(99))}
	a2 := Allocator{Shape: Pareto, Params: Params{Alpha: 1.5}, MinCount: 1, RNG: rand.New(rand.NewSource(99))}
	r1, err := a1.Allocate(25, 500)
	require.NoError(t, err)
	r2, err := a2.Allocate(25, 500)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestAllocator_Pareto_RequiresRNG(t *testing.T) {
	_, err := Allocator{Shape: Pareto}.Allocate(3, 9)
	assert.Error(t, err)
}

func TestAllocator_UnknownShape(t *testing.T) {
	_, err := Allocator{Shape: "normal"}.Allocate(3, 9)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestAllocator_Strict_InfeasibleFloorFails(t *testing.T) {
	a := Allocator{Shape: Uniform, MinCount: 1, Floor: FloorStrict}
	_, err := a.Allocate(4, 2)
	assert.ErrorIs(t, err, ErrInfeasibleFloor)

	// A feasible floor is unaffected by the strict policy
	got, err := a.Allocate(4, 4)
	require.NoError(t, err)
	assert.Equal(t, AllocationResult{1, 1, 1, 1}, got)
}

func TestAllocator_NonPositiveK_EmptyNoError(t *testing.T) {
	got, err := Allocator{Shape: Zipf, MinCount: 1, Floor: FloorStrict}.Allocate(0, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFloorPolicy(t *testing.T) {
	p, err := ParseFloorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FloorDegrade, p)

	p, err = ParseFloorPolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, FloorStrict, p)

	_, err = ParseFloorPolicy("lenient")
	assert.Error(t, err)
}
