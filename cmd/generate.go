package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/espresso-bench/scalegen/alloc"
	"github.com/espresso-bench/scalegen/experiment"
)

var seed int64 // Seed overriding the config's seed

// generateCmd builds the experiment layout described by the config
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Distribute source files across servers and pods and write the experiment layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = &seed
		}
		_, err = runGenerate(cmd.Context(), afero.NewOsFs(), cfg, os.Stdout)
		if errors.Is(err, experiment.ErrInsufficientItems) {
			logrus.Warn("Add more files to the source directory, or reduce num_servers, pods_per_server or files_per_pod")
		}
		return err
	},
}

// runGenerate plans and writes one experiment, then prints its statistics to out.
func runGenerate(ctx context.Context, fs afero.Fs, cfg *experiment.Config, out io.Writer) (*experiment.Results, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logrus.Infof("Using %s distribution for pods and %s distribution for files",
		cfg.PodDistributionStrategy, cfg.FileDistributionStrategy)
	start := time.Now()

	sources, err := experiment.ListSources(fs, cfg.SourceDir(), cfg.SourcePattern)
	if err != nil {
		return nil, err
	}
	rng := alloc.NewPartitionedRNG(alloc.NewRunKey(*cfg.Seed))
	plan, err := experiment.BuildPlan(cfg, sources, rng)
	if err != nil {
		return nil, err
	}

	writer := &experiment.Writer{Fs: fs, Workers: cfg.CopyWorkers}
	summary, err := writer.Write(ctx, cfg, plan)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	logrus.Infof("Created experiment structure with %d servers, %d total pods in %.2f seconds",
		cfg.NumServers, summary.PodsCreated, elapsed.Seconds())
	logrus.Infof("Generated %d regular WebIDs and %d social WebIDs with power levels",
		len(plan.Agents), len(plan.SocialAgents))

	results := experiment.NewResults(cfg, plan, summary, elapsed)
	path, err := experiment.WriteResults(fs, cfg, results)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Run %s\n", results.RunID)
	if err := experiment.PrintStats(out, plan.Stats); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Results saved to %s\n", path)
	return results, nil
}

func init() {
	generateCmd.Flags().Int64Var(&seed, "seed", experiment.DefaultSeed, "Seed for file selection, pareto weights and access grants (overrides the config)")
	rootCmd.AddCommand(generateCmd)
}
