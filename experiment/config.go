package experiment

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/espresso-bench/scalegen/alloc"
	"github.com/espresso-bench/scalegen/alloc/access"
)

// Defaults applied by LoadConfig when a key is absent.
const (
	DefaultSourcePattern = "*.txt"
	DefaultStrategy      = "uniform"
	DefaultServerHost    = "localhost"
	DefaultBasePort      = 3001
	DefaultSeed          = 42
	DefaultCopyWorkers   = 8
)

// DefaultSocialAgentPowers is used when social_agent_powers is absent.
var DefaultSocialAgentPowers = []Power{100, 75, 50, 25}

// Config is the experiment configuration.
// Loaded from YAML or JSON via LoadConfig(path).
type Config struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	SourceDirectory string `yaml:"source_directory" json:"source_directory"`
	IndexDirectory  string `yaml:"index_directory,omitempty" json:"index_directory,omitempty"`
	SourcePattern   string `yaml:"source_pattern,omitempty" json:"source_pattern,omitempty"`

	NumServers     int `yaml:"num_servers" json:"num_servers"`
	PodsPerServer  int `yaml:"pods_per_server" json:"pods_per_server"`
	FilesPerPod    int `yaml:"files_per_pod" json:"files_per_pod"`
	NumberOfWebIDs int `yaml:"number_of_webids" json:"number_of_webids"`

	SocialAgentPowers []Power `yaml:"social_agent_powers,omitempty" json:"social_agent_powers,omitempty"`

	PodDistributionStrategy  string   `yaml:"pod_distribution_strategy,omitempty" json:"pod_distribution_strategy,omitempty"`
	FileDistributionStrategy string   `yaml:"file_distribution_strategy,omitempty" json:"file_distribution_strategy,omitempty"`
	ParetoAlpha              *float64 `yaml:"pareto_alpha,omitempty" json:"pareto_alpha,omitempty"`
	ZipfAlpha                *float64 `yaml:"zipf_alpha,omitempty" json:"zipf_alpha,omitempty"`
	MinPodsPerServer         *int     `yaml:"min_pods_per_server,omitempty" json:"min_pods_per_server,omitempty"`
	MinFilesPerPod           *int     `yaml:"min_files_per_pod,omitempty" json:"min_files_per_pod,omitempty"`
	FloorPolicy              string   `yaml:"floor_policy,omitempty" json:"floor_policy,omitempty"`

	ServerHost  string `yaml:"server_host,omitempty" json:"server_host,omitempty"`
	BasePort    int    `yaml:"base_port,omitempty" json:"base_port,omitempty"`
	Seed        *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	CopyWorkers int    `yaml:"copy_workers,omitempty" json:"copy_workers,omitempty"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// Power is a social agent power percentage clamped to [0, 100].
// Unparsable values decode as 0 with a warning.
type Power int

// UnmarshalYAML accepts integers, decimals and numeric strings.
func (p *Power) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: social agent power must be a scalar", value.Line)
	}
	v, ok := access.ParsePower(value.Value)
	if !ok {
		logrus.Warnf("line %d: unparsable social agent power %q treated as 0", value.Line, value.Value)
	}
	*p = Power(v)
	return nil
}

// LoadConfig reads and parses an experiment configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.dir = abs
	}
	return cfg, nil
}

// ParseConfig decodes configuration bytes and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourcePattern == "" {
		c.SourcePattern = DefaultSourcePattern
	}
	if c.SocialAgentPowers == nil {
		c.SocialAgentPowers = append([]Power(nil), DefaultSocialAgentPowers...)
	}
	if c.PodDistributionStrategy == "" {
		c.PodDistributionStrategy = DefaultStrategy
	}
	if c.FileDistributionStrategy == "" {
		c.FileDistributionStrategy = DefaultStrategy
	}
	if c.ParetoAlpha == nil {
		c.ParetoAlpha = ptr(alloc.DefaultParetoAlpha)
	}
	if c.ZipfAlpha == nil {
		c.ZipfAlpha = ptr(alloc.DefaultZipfAlpha)
	}
	if c.MinPodsPerServer == nil {
		c.MinPodsPerServer = ptr(1)
	}
	if c.MinFilesPerPod == nil {
		c.MinFilesPerPod = ptr(1)
	}
	if c.FloorPolicy == "" {
		c.FloorPolicy = string(alloc.FloorDegrade)
	}
	if c.ServerHost == "" {
		c.ServerHost = DefaultServerHost
	}
	if c.BasePort == 0 {
		c.BasePort = DefaultBasePort
	}
	if c.Seed == nil {
		c.Seed = ptr(int64(DefaultSeed))
	}
	if c.CopyWorkers == 0 {
		c.CopyWorkers = DefaultCopyWorkers
	}
}

func ptr[T any](v T) *T { return &v }

// Validate checks that all fields in the config are valid.
func (c *Config) Validate() error {
	if c.BaseDirectory == "" {
		return fmt.Errorf("base_directory is required")
	}
	if c.SourceDirectory == "" {
		return fmt.Errorf("source_directory is required")
	}
	for name, v := range map[string]int{
		"num_servers":      c.NumServers,
		"pods_per_server":  c.PodsPerServer,
		"files_per_pod":    c.FilesPerPod,
		"number_of_webids": c.NumberOfWebIDs,
		"copy_workers":     c.CopyWorkers,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if _, err := alloc.ParseShape(c.PodDistributionStrategy); err != nil {
		return fmt.Errorf("pod_distribution_strategy: %w", err)
	}
	if _, err := alloc.ParseShape(c.FileDistributionStrategy); err != nil {
		return fmt.Errorf("file_distribution_strategy: %w", err)
	}
	if _, err := alloc.ParseFloorPolicy(c.FloorPolicy); err != nil {
		return fmt.Errorf("floor_policy: %w", err)
	}
	if err := validateFinitePositive("pareto_alpha", *c.ParetoAlpha); err != nil {
		return err
	}
	if *c.ParetoAlpha < alloc.MinParetoAlpha {
		return fmt.Errorf("pareto_alpha must be at least %g, got %g", alloc.MinParetoAlpha, *c.ParetoAlpha)
	}
	if err := validateFinitePositive("zipf_alpha", *c.ZipfAlpha); err != nil {
		return err
	}
	if *c.MinPodsPerServer < 0 {
		return fmt.Errorf("min_pods_per_server must be non-negative, got %d", *c.MinPodsPerServer)
	}
	if *c.MinFilesPerPod < 0 {
		return fmt.Errorf("min_files_per_pod must be non-negative, got %d", *c.MinFilesPerPod)
	}
	if c.BasePort < 1 || c.BasePort+c.NumServers-1 > math.MaxUint16 {
		return fmt.Errorf("base_port %d leaves no room for %d servers", c.BasePort, c.NumServers)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// Resolve returns p unchanged if absolute, else joined onto the config's directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// BaseDir is the resolved experiment output directory.
func (c *Config) BaseDir() string { return c.Resolve(c.BaseDirectory) }

// SourceDir is the resolved source file directory.
func (c *Config) SourceDir() string { return c.Resolve(c.SourceDirectory) }

// IndexDir is the resolved indexer output directory.
func (c *Config) IndexDir() string { return c.Resolve(c.IndexDirectory) }

// TotalFilesNeeded is the number of source files a run consumes.
func (c *Config) TotalFilesNeeded() int {
	return c.NumServers * c.PodsPerServer * c.FilesPerPod
}

// Powers returns the social agent powers as plain integers.
func (c *Config) Powers() []int {
	out := make([]int, len(c.SocialAgentPowers))
	for i, p := range c.SocialAgentPowers {
		out[i] = int(p)
	}
	return out
}

// Port returns the port of 1-based server s.
func (c *Config) Port(server int) int {
	return c.BasePort + server - 1
}

// HostPort returns the host:port locator of 1-based server s.
func (c *Config) HostPort(server int) string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.Port(server))
}

// alphaFor returns the configured exponent for shape.
func (c *Config) alphaFor(shape alloc.Shape) float64 {
	if shape == alloc.Zipf {
		return *c.ZipfAlpha
	}
	return *c.ParetoAlpha
}

// PodAllocator builds the server->pod allocator. rng feeds pareto weights.
func (c *Config) PodAllocator(rng *rand.Rand) alloc.Allocator {
	return c.allocator(c.PodDistributionStrategy, *c.MinPodsPerServer, rng)
}

// FileAllocator builds the pod->file allocator. rng feeds pareto weights.
func (c *Config) FileAllocator(rng *rand.Rand) alloc.Allocator {
	return c.allocator(c.FileDistributionStrategy, *c.MinFilesPerPod, rng)
}

func (c *Config) allocator(strategy string, minCount int, rng *rand.Rand) alloc.Allocator {
	shape := alloc.Shape(strategy)
	floor, _ := alloc.ParseFloorPolicy(c.FloorPolicy)
	return alloc.Allocator{
		Shape:    shape,
		Params:   alloc.Params{Alpha: c.alphaFor(shape)},
		MinCount: minCount,
		Floor:    floor,
		RNG:      rng,
	}
}
