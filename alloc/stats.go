package alloc

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes a finished two-level assignment.
// Field names follow the servers/pods/files vocabulary of the layout.
type Stats struct {
	TotalServers int `json:"total_servers"`
	TotalPods    int `json:"total_pods"`
	TotalFiles   int `json:"total_files"`

	MinFilesPerPod int     `json:"min_files_per_pod"`
	MaxFilesPerPod int     `json:"max_files_per_pod"`
	AvgFilesPerPod float64 `json:"avg_files_per_pod"`
	StdDevFiles    float64 `json:"std_dev_files"`

	MinPodsPerServer int     `json:"min_pods_per_server"`
	MaxPodsPerServer int     `json:"max_pods_per_server"`
	AvgPodsPerServer float64 `json:"avg_pods_per_server"`
	StdDevPods       float64 `json:"std_dev_pods"`
}

// Summarize computes Stats over assignment. Standard deviations are
// population (not sample) deviations. An empty assignment yields zero Stats.
func Summarize[T any](assignment Assignment[T]) Stats {
	if len(assignment) == 0 {
		return Stats{}
	}

	files := make([]float64, 0, len(assignment))
	for _, items := range assignment {
		files = append(files, float64(len(items)))
	}
	innerCounts := assignment.InnerCounts()
	pods := make([]float64, 0, len(innerCounts))
	for _, c := range innerCounts {
		pods = append(pods, float64(c))
	}

	var s Stats
	s.TotalServers = len(innerCounts)
	s.TotalPods = len(assignment)
	s.TotalFiles = int(floats.Sum(files))

	s.MinFilesPerPod = int(floats.Min(files))
	s.MaxFilesPerPod = int(floats.Max(files))
	s.AvgFilesPerPod, s.StdDevFiles = stat.PopMeanStdDev(files, nil)

	s.MinPodsPerServer = int(floats.Min(pods))
	s.MaxPodsPerServer = int(floats.Max(pods))
	s.AvgPodsPerServer, s.StdDevPods = stat.PopMeanStdDev(pods, nil)
	return s
}
