package cmd

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espresso-bench/scalegen/experiment"
)

func TestRunGenerate_EndToEnd(t *testing.T) {
	// GIVEN 30 source files and a zipf/pareto experiment over 3 servers
	fs := afero.NewMemMapFs()
	for i := 0; i < 30; i++ {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/src/doc%02d.txt", i), []byte("payload"), 0644))
	}
	cfg, err := experiment.ParseConfig([]byte(`
base_directory: /exp
source_directory: /src
num_servers: 3
pods_per_server: 2
files_per_pod: 4
number_of_webids: 3
pod_distribution_strategy: zipf
file_distribution_strategy: pareto
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// WHEN the experiment is generated
	var out bytes.Buffer
	results, err := runGenerate(context.Background(), fs, cfg, &out)
	require.NoError(t, err)

	// THEN every needed file is copied and the results file is written
	assert.Equal(t, 24, results.FilesCopied)
	assert.Equal(t, int64(24*len("payload")), results.BytesCopied)
	assert.Equal(t, 24, results.DistributionStats.TotalFiles)
	assert.Equal(t, 6, results.DistributionStats.TotalPods)
	assert.Contains(t, out.String(), "Results saved to /exp/experiment_results.json")
	assert.Contains(t, out.String(), results.RunID)

	for _, f := range []string{
		experiment.ResultsFile,
		experiment.AccessControlFile,
		experiment.WebIDStructureFile,
		experiment.OverlayServersFile,
		"server1/ESPRESSO/metaindex.csv",
		"server3/ESPRESSO/metaindex.csv",
	} {
		ok, err := afero.Exists(fs, "/exp/"+f)
		require.NoError(t, err)
		assert.True(t, ok, f)
	}
}

func TestRunGenerate_TooFewSources(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/only.txt", []byte("x"), 0644))
	cfg, err := experiment.ParseConfig([]byte(`
base_directory: /exp
source_directory: /src
num_servers: 1
pods_per_server: 1
files_per_pod: 2
number_of_webids: 1
`))
	require.NoError(t, err)

	_, err = runGenerate(context.Background(), fs, cfg, &bytes.Buffer{})

	assert.ErrorIs(t, err, experiment.ErrInsufficientItems)
	ok, _ := afero.Exists(fs, "/exp")
	assert.False(t, ok, "nothing written")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"generate", "index", "distribute-indexes", "launch", "clean"} {
		assert.Contains(t, names, want)
	}
}
