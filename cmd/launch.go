package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/espresso-bench/scalegen/experiment"
	"github.com/espresso-bench/scalegen/launch"
)

var (
	solidPackage string // npm package of the community server
	solidConfig  string // Server configuration file
	serverLogDir string // Directory receiving per-server logs
	baseURLHost  string // Scheme and host of server base URLs; empty derives it from server_host
)

// launchCmd starts one content server per generated server directory
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a Solid server for every generated server directory until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return newLauncher(afero.NewOsFs(), cfg).Run(ctx)
	},
}

// newLauncher builds the launcher for cfg from the command's flags.
// Servers listen on the same host and ports the metaindexes advertise.
func newLauncher(fs afero.Fs, cfg *experiment.Config) *launch.Launcher {
	host := baseURLHost
	if host == "" {
		host = "http://" + cfg.ServerHost
	}
	return &launch.Launcher{
		Fs:          fs,
		Root:        cfg.BaseDir(),
		BasePort:    cfg.BasePort,
		BaseURLHost: host,
		Package:     solidPackage,
		ConfigFile:  solidConfig,
		LogDir:      serverLogDir,
	}
}

func init() {
	launchCmd.Flags().StringVar(&solidPackage, "package", launch.DefaultSolidPackage, "Community server npm package")
	launchCmd.Flags().StringVar(&solidConfig, "solid-config", launch.DefaultSolidConfig, "Community server config file")
	launchCmd.Flags().StringVar(&serverLogDir, "log-dir", launch.DefaultLogDir, "Directory for per-server logs")
	launchCmd.Flags().StringVar(&baseURLHost, "base-url-host", "", "Scheme and host used for server base URLs (defaults to http://<server_host>)")
	rootCmd.AddCommand(launchCmd)
}
