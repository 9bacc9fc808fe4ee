package experiment

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/espresso-bench/scalegen/alloc"
)

// Results is the content of experiment_results.json.
type Results struct {
	RunID                string      `json:"run_id"`
	Config               *Config     `json:"config"`
	FileDistributionTime float64     `json:"file_distribution_time"`
	IndexingTime         float64     `json:"indexing_time"`
	TotalTime            float64     `json:"total_time"`
	FilesCopied          int         `json:"files_copied"`
	BytesCopied          int64       `json:"bytes_copied"`
	DistributionStats    alloc.Stats `json:"distribution_stats"`
	PodStrategy          string      `json:"pod_distribution_strategy"`
	FileStrategy         string      `json:"file_distribution_strategy"`
}

// NewResults assembles the results of one generation run.
// Indexing is run separately, so IndexingTime starts at zero.
func NewResults(cfg *Config, plan *Plan, summary *WriteSummary, elapsed time.Duration) *Results {
	r := &Results{
		RunID:                uuid.NewString(),
		Config:               cfg,
		FileDistributionTime: elapsed.Seconds(),
		TotalTime:            elapsed.Seconds(),
		DistributionStats:    plan.Stats,
		PodStrategy:          cfg.PodDistributionStrategy,
		FileStrategy:         cfg.FileDistributionStrategy,
	}
	if summary != nil {
		r.FilesCopied, r.BytesCopied = summary.FilesCopied, summary.BytesCopied
	}
	return r
}

// WriteResults stores r as experiment_results.json under cfg.BaseDir().
func WriteResults(fs afero.Fs, cfg *Config, r *Results) (string, error) {
	path := filepath.Join(cfg.BaseDir(), ResultsFile)
	return path, WriteJSON(fs, path, r)
}
