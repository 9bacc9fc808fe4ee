// Package experiment turns a Config into a concrete experiment layout:
// which source files land on which server and pod, which WebIDs may read
// them, and the on-disk artifacts the indexer and content servers consume.
package experiment

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/espresso-bench/scalegen/alloc"
	"github.com/espresso-bench/scalegen/alloc/access"
)

// ErrInsufficientItems is returned when the source directory holds fewer
// files than num_servers*pods_per_server*files_per_pod.
var ErrInsufficientItems = errors.New("not enough source files")

// Placement records where one source file is copied.
type Placement struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Server int    `json:"server"`
	Pod    int    `json:"pod"`
}

// IdentityStructure is webid -> server name -> pod name -> file base names.
type IdentityStructure map[string]map[string]map[string][]string

// Plan is a fully computed experiment, ready to be written.
type Plan struct {
	PodCounts  alloc.AllocationResult
	Assignment alloc.Assignment[string]
	Placements []Placement

	Agents       []access.Identity
	SocialAgents []access.Identity
	// Grant is keyed by Placement.Dest.
	Grant     access.Grant
	Structure IdentityStructure

	Stats               alloc.Stats
	TotalFilesNeeded    int
	TotalFilesAvailable int
}

// ServerName returns the directory name of 1-based server s.
func ServerName(s int) string { return fmt.Sprintf("server%d", s) }

// PodName returns the directory name of 1-based pod p.
func PodName(p int) string { return fmt.Sprintf("pod%d", p) }

// BuildPlan computes the full experiment for cfg over the available source
// file paths. All randomness is drawn from rng's subsystems.
func BuildPlan(cfg *Config, sources []string, rng *alloc.PartitionedRNG) (*Plan, error) {
	needed := cfg.TotalFilesNeeded()
	if len(sources) < needed {
		return nil, fmt.Errorf("%w: need %d, but only %d available in %s",
			ErrInsufficientItems, needed, len(sources), cfg.SourceDir())
	}

	selected := sampleSources(sources, needed, rng.ForSubsystem(alloc.SubsystemSelection))
	logrus.Infof("Using %d out of %d available source files", len(selected), len(sources))

	podAllocator := cfg.PodAllocator(rng.ForSubsystem(alloc.SubsystemPods))
	totalPods := cfg.NumServers * cfg.PodsPerServer
	if !alloc.FloorFeasible(cfg.NumServers, totalPods, podAllocator.MinCount) {
		logrus.Warnf("min_pods_per_server=%d cannot hold for %d servers sharing %d pods; pods will exceed the target",
			podAllocator.MinCount, cfg.NumServers, totalPods)
	}
	podCounts, err := alloc.DistributePods(cfg.NumServers, cfg.PodsPerServer, podAllocator)
	if err != nil {
		return nil, fmt.Errorf("distributing pods: %w", err)
	}

	fileAllocator := cfg.FileAllocator(rng.ForSubsystem(alloc.SubsystemFiles))
	if !alloc.FloorFeasible(podCounts.Sum(), len(selected), fileAllocator.MinCount) {
		logrus.Warnf("min_files_per_pod=%d cannot hold for %d pods sharing %d files; trailing pods stay short",
			fileAllocator.MinCount, podCounts.Sum(), len(selected))
	}
	assignment, err := alloc.DistributeItems(selected, podCounts, fileAllocator)
	if err != nil {
		return nil, fmt.Errorf("distributing files: %w", err)
	}

	plan := &Plan{
		PodCounts:           podCounts,
		Assignment:          assignment,
		Placements:          placements(cfg.BaseDir(), assignment),
		Agents:              access.Agents(cfg.NumberOfWebIDs),
		SocialAgents:        access.SocialAgents(cfg.Powers()),
		Stats:               alloc.Summarize(assignment),
		TotalFilesNeeded:    needed,
		TotalFilesAvailable: len(sources),
	}
	for _, a := range plan.SocialAgents {
		logrus.Debugf("Social agent %s: power=%d%%", a.ID, a.Power)
	}

	dests := make([]string, len(plan.Placements))
	for i, p := range plan.Placements {
		dests[i] = p.Dest
	}
	plan.Grant = access.NewGrant(dests)
	sampler := access.NewSampler(rng.ForSubsystem(alloc.SubsystemGrants))
	sampler.GrantByPower(plan.Grant, dests, plan.SocialAgents)
	sampler.GrantRegular(plan.Grant, dests, access.IDs(plan.Agents))

	plan.Structure = BuildIdentityStructure(plan.Placements, plan.Grant)
	return plan, nil
}

// sampleSources draws n distinct sources uniformly. The input is sorted
// first so directory listing order cannot change the outcome for a seed.
func sampleSources(sources []string, n int, rng *rand.Rand) []string {
	pool := append([]string(nil), sources...)
	sort.Strings(pool)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}

func placements(base string, assignment alloc.Assignment[string]) []Placement {
	out := make([]Placement, 0, assignment.ItemCount())
	for _, key := range assignment.Keys() {
		for _, src := range assignment[key] {
			out = append(out, Placement{
				Source: src,
				Dest:   filepath.Join(base, ServerName(key.Outer), PodName(key.Inner), filepath.Base(src)),
				Server: key.Outer,
				Pod:    key.Inner,
			})
		}
	}
	return out
}

// BuildIdentityStructure groups every granted file under its identity,
// server and pod. File names keep placement order within a pod.
func BuildIdentityStructure(placements []Placement, grant access.Grant) IdentityStructure {
	structure := make(IdentityStructure)
	for _, p := range placements {
		server, pod, name := ServerName(p.Server), PodName(p.Pod), filepath.Base(p.Dest)
		for _, id := range grant.IDs(p.Dest) {
			servers, ok := structure[id]
			if !ok {
				servers = make(map[string]map[string][]string)
				structure[id] = servers
			}
			pods, ok := servers[server]
			if !ok {
				pods = make(map[string][]string)
				servers[server] = pods
			}
			pods[pod] = append(pods[pod], name)
		}
	}
	return structure
}
