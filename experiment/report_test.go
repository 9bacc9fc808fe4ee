package experiment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espresso-bench/scalegen/alloc"
)

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	err := PrintStats(&buf, alloc.Stats{
		TotalServers:     3,
		TotalPods:        12,
		TotalFiles:       1234,
		MinFilesPerPod:   50,
		MaxFilesPerPod:   200,
		AvgFilesPerPod:   102.83,
		StdDevFiles:      40.5,
		MinPodsPerServer: 4,
		MaxPodsPerServer: 4,
		AvgPodsPerServer: 4,
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "files per pod")
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "102.83")
	assert.Contains(t, out, "4.00")
}

func TestPrintStats_EmptyStats(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, PrintStats(&buf, alloc.Stats{}))

	assert.Contains(t, buf.String(), "servers")
	assert.Contains(t, buf.String(), "0.00")
}
