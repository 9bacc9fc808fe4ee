package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Empty_ZeroStats(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(Assignment[string]{}))
	assert.Equal(t, Stats{}, Summarize[string](nil))
}

func TestSummarize_TwoServers(t *testing.T) {
	// GIVEN server1 with pods of 3 and 1 files, server2 with one pod of 2 files
	a := Assignment[string]{
		{1, 1}: {"a", "b", "c"},
		{1, 2}: {"d"},
		{2, 1}: {"e", "f"},
	}

	s := Summarize(a)

	assert.Equal(t, 2, s.TotalServers)
	assert.Equal(t, 3, s.TotalPods)
	assert.Equal(t, 6, s.TotalFiles)

	assert.Equal(t, 1, s.MinFilesPerPod)
	assert.Equal(t, 3, s.MaxFilesPerPod)
	assert.InDelta(t, 2.0, s.AvgFilesPerPod, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdDevFiles, 1e-12)

	assert.Equal(t, 1, s.MinPodsPerServer)
	assert.Equal(t, 2, s.MaxPodsPerServer)
	assert.InDelta(t, 1.5, s.AvgPodsPerServer, 1e-12)
	assert.InDelta(t, 0.5, s.StdDevPods, 1e-12)
}

func TestSummarize_EmptyPodsCounted(t *testing.T) {
	a := Assignment[int]{
		{1, 1}: {1, 2},
		{1, 2}: {},
	}
	s := Summarize(a)
	assert.Equal(t, 2, s.TotalPods)
	assert.Equal(t, 0, s.MinFilesPerPod)
	assert.Equal(t, 2, s.TotalFiles)
}
