// Package access assigns simulated identities to items.
//
// Grants are built in passes over a shared Grant: NewGrant seeds every item,
// Sampler.GrantByPower adds power-weighted identities and
// Sampler.GrantRegular adds a random non-empty subset of regular identities
// per item. Passes only ever extend the sets.
package access

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identity is a simulated WebID that may carry an access power.
type Identity struct {
	ID    string `json:"webid"`
	Email string `json:"email"`
	// Power is the percentage of items granted to this identity, in [0, 100].
	Power int `json:"power"`
}

// Agents returns n regular identities numbered from 0.
func Agents(n int) []Identity {
	agents := make([]Identity, 0, max(n, 0))
	for i := 0; i < n; i++ {
		agents = append(agents, Identity{
			ID:    fmt.Sprintf("http://example.org/agent%d/profile/card#me", i),
			Email: fmt.Sprintf("agent%d@example.org", i),
		})
	}
	return agents
}

// SocialAgents returns one powered identity per entry of powers.
// Powers are clamped to [0, 100].
func SocialAgents(powers []int) []Identity {
	agents := make([]Identity, 0, len(powers))
	for i, p := range powers {
		agents = append(agents, Identity{
			ID:    fmt.Sprintf("http://example.org/sagent%d/profile/card#me", i),
			Email: fmt.Sprintf("sagent%d@example.org", i),
			Power: ClampPower(p),
		})
	}
	return agents
}

// IDs returns the WebIDs of identities, in order.
func IDs(identities []Identity) []string {
	ids := make([]string, len(identities))
	for i, id := range identities {
		ids[i] = id.ID
	}
	return ids
}

// ClampPower bounds p to [0, 100].
func ClampPower(p int) int {
	return min(max(p, 0), 100)
}

// ParsePower parses a power percentage from configuration text.
// Integers and decimals are accepted (decimals truncate toward zero) and the
// value is clamped to [0, 100]. Anything else yields 0 and ok == false.
func ParsePower(s string) (power int, ok bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return ClampPower(v), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Max(math.Min(f, 100), 0)), true
}

// NormalizeWebID converts a WebID to a filesystem-safe identifier:
// http://example.org/agent0/profile/card#me -> httpexampleorgagent0profilecardme
func NormalizeWebID(webID string) string {
	return strings.NewReplacer(
		"://", "",
		"/", "",
		"#", "",
		".", "",
	).Replace(webID)
}
