package experiment

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/espresso-bench/scalegen/alloc"
)

// PrintStats renders distribution statistics as a table.
func PrintStats(w io.Writer, s alloc.Stats) error {
	var table = tablewriter.NewWriter(w)
	table.Header("Level", "Count", "Min", "Max", "Mean", "StdDev")

	rows := [][]string{
		{"servers", humanize.Comma(int64(s.TotalServers)), "", "", "", ""},
		{
			"pods per server",
			humanize.Comma(int64(s.TotalPods)),
			fmt.Sprintf("%d", s.MinPodsPerServer),
			fmt.Sprintf("%d", s.MaxPodsPerServer),
			fmt.Sprintf("%.2f", s.AvgPodsPerServer),
			fmt.Sprintf("%.2f", s.StdDevPods),
		},
		{
			"files per pod",
			humanize.Comma(int64(s.TotalFiles)),
			fmt.Sprintf("%d", s.MinFilesPerPod),
			fmt.Sprintf("%d", s.MaxFilesPerPod),
			fmt.Sprintf("%.2f", s.AvgFilesPerPod),
			fmt.Sprintf("%.2f", s.StdDevFiles),
		},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending %s row: %w", row[0], err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering statistics: %w", err)
	}
	return nil
}
