package access

import (
	"math/rand"
	"sort"
)

// Grant maps an item key to the set of identity IDs allowed to access it.
type Grant map[string]map[string]struct{}

// NewGrant seeds every item with an empty identity set.
func NewGrant(items []string) Grant {
	g := make(Grant, len(items))
	for _, item := range items {
		g[item] = make(map[string]struct{})
	}
	return g
}

// Add grants id access to item.
func (g Grant) Add(item, id string) {
	set, ok := g[item]
	if !ok {
		set = make(map[string]struct{})
		g[item] = set
	}
	set[id] = struct{}{}
}

// IDs returns the identities granted item, sorted.
func (g Grant) IDs(item string) []string {
	ids := make([]string, 0, len(g[item]))
	for id := range g[item] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns all item keys, sorted.
func (g Grant) Items() []string {
	items := make([]string, 0, len(g))
	for item := range g {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Lists returns the grant as item -> sorted identity IDs.
func (g Grant) Lists() map[string][]string {
	out := make(map[string][]string, len(g))
	for item := range g {
		out[item] = g.IDs(item)
	}
	return out
}

// Sampler draws grants from a single random source.
//
// Thread-safety: NOT thread-safe.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler drawing from rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// GrantByPower gives each identity floor(len(items)*power/100) distinct,
// uniformly chosen items. Selections are independent across identities.
func (s *Sampler) GrantByPower(g Grant, items []string, identities []Identity) {
	for _, id := range identities {
		count := len(items) * ClampPower(id.Power) / 100
		if count <= 0 {
			continue
		}
		for _, i := range s.sample(len(items), count) {
			g.Add(items[i], id.ID)
		}
	}
}

// GrantRegular gives every item a uniformly sized, uniformly chosen,
// non-empty subset of regular. It grants nothing when regular is empty.
func (s *Sampler) GrantRegular(g Grant, items []string, regular []string) {
	if len(regular) == 0 {
		return
	}
	for _, item := range items {
		r := 1 + s.rng.Intn(len(regular))
		for _, i := range s.sample(len(regular), r) {
			g.Add(item, regular[i])
		}
	}
}

// sample returns k distinct indices drawn uniformly from [0, n)
// using a partial Fisher-Yates shuffle.
func (s *Sampler) sample(n, k int) []int {
	k = min(k, n)
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
