package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/espresso-bench/scalegen/experiment"
)

var cleanIndex bool // Remove the index directory instead of the experiment directory

// cleanCmd removes generated output
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the experiment directory (or, with --index, the index directory)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := cfg.BaseDir()
		if cleanIndex {
			if cfg.IndexDirectory == "" {
				return fmt.Errorf("index_directory is not set")
			}
			dir = cfg.IndexDir()
		}
		_, err = experiment.Clean(afero.NewOsFs(), dir)
		return err
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanIndex, "index", false, "Remove the index directory")
	rootCmd.AddCommand(cleanCmd)
}
