package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/espresso-bench/scalegen/alloc"
	"github.com/espresso-bench/scalegen/experiment"
	"github.com/espresso-bench/scalegen/launch"
)

var (
	indexerJar  string // Path to the WebID-specific indexer jar
	javaBinary  string // Java executable
	indexOutput string // Indexer output directory (defaults to index_directory)
)

// indexCmd runs the external indexer over the generated WebID structure
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run the WebID-specific indexer over a generated experiment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		output, err := resolveIndexOutput(cfg)
		if err != nil {
			return err
		}
		ix := &launch.Indexer{
			Fs:        afero.NewOsFs(),
			Java:      javaBinary,
			Jar:       indexerJar,
			Structure: filepath.Join(cfg.BaseDir(), experiment.WebIDStructureFile),
			SourceDir: cfg.SourceDir(),
			OutputDir: output,
		}
		out, err := ix.Run(cmd.Context())
		if out != nil {
			fmt.Fprintf(os.Stdout, "STDOUT:\n%s\n", out.Stdout)
			fmt.Fprintf(os.Stdout, "STDERR:\n%s\n", out.Stderr)
		}
		return err
	},
}

// distributeIndexesCmd moves indexer output into the experiment layout
var distributeIndexesCmd = &cobra.Command{
	Use:   "distribute-indexes",
	Short: "Move indexer output into pod and server index directories and write overlaynetwork.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		output, err := resolveIndexOutput(cfg)
		if err != nil {
			return err
		}
		rng := alloc.NewPartitionedRNG(alloc.NewRunKey(*cfg.Seed))
		summary, err := experiment.DistributeIndexes(afero.NewOsFs(), cfg, cfg.BaseDir(), output,
			rng.ForSubsystem(alloc.SubsystemOverlay))
		if err != nil {
			return err
		}
		logrus.Infof("Index distribution completed: %d moved, %d server-level", summary.Moved, summary.Overlay)
		return nil
	},
}

func resolveIndexOutput(cfg *experiment.Config) (string, error) {
	if indexOutput != "" {
		return indexOutput, nil
	}
	if cfg.IndexDirectory == "" {
		return "", fmt.Errorf("index output directory not set: use --output or index_directory")
	}
	return cfg.IndexDir(), nil
}

func init() {
	indexCmd.Flags().StringVar(&indexerJar, "jar", "jars/Webid-Specific-Indexer.jar", "Indexer jar file")
	indexCmd.Flags().StringVar(&javaBinary, "java", "java", "Java executable")
	for _, c := range []*cobra.Command{indexCmd, distributeIndexesCmd} {
		c.Flags().StringVar(&indexOutput, "output", "", "Indexer output directory (defaults to index_directory)")
		rootCmd.AddCommand(c)
	}
}
