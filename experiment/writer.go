package experiment

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/espresso-bench/scalegen/alloc"
	"github.com/espresso-bench/scalegen/alloc/access"
)

// Layout file and directory names.
const (
	PodIndexDir    = "espressoindex"
	ServerIndexDir = "ESPRESSO"
	MetaindexFile  = "metaindex.csv"

	AccessControlFile     = "access_control.json"
	WebIDStructureFile    = "webid_structure.json"
	WebIDInfoFile         = "webid_info.json"
	DistributionInfoFile  = "distribution_info.json"
	ServerMetaindexesFile = "server_metaindexes.json"
	OverlayServersFile    = "LTOVERLAYSERVERS.csv"
	OverlayNetworkFile    = "overlaynetwork.csv"
	ResultsFile           = "experiment_results.json"
)

// WebIDInfo is the content of webid_info.json.
type WebIDInfo struct {
	WebIDs            []string          `json:"web_ids"`
	Agents            []AgentInfo       `json:"agents"`
	SocialAgents      []access.Identity `json:"social_agents"`
	SocialAgentPowers []int             `json:"social_agent_powers"`
}

// AgentInfo is a regular agent as listed in webid_info.json. Regular agents
// carry no power.
type AgentInfo struct {
	ID    string `json:"webid"`
	Email string `json:"email"`
}

func agentInfos(identities []access.Identity) []AgentInfo {
	out := make([]AgentInfo, len(identities))
	for i, id := range identities {
		out[i] = AgentInfo{ID: id.ID, Email: id.Email}
	}
	return out
}

// DistributionInfo is the content of distribution_info.json.
type DistributionInfo struct {
	PodStrategy         string      `json:"pod_strategy"`
	FileStrategy        string      `json:"file_strategy"`
	Stats               alloc.Stats `json:"stats"`
	PodCounts           []int       `json:"pod_counts"`
	TotalFilesNeeded    int         `json:"total_files_needed"`
	TotalFilesAvailable int         `json:"total_files_available"`
	ParetoAlpha         *float64    `json:"pareto_alpha"`
	ZipfAlpha           *float64    `json:"zipf_alpha"`
}

// WriteSummary reports what Writer.Write produced.
type WriteSummary struct {
	PodsCreated int
	FilesCopied int
	BytesCopied int64
	// Metaindexes maps a 1-based server index to its metaindex.csv path.
	Metaindexes map[int]string
}

// Writer materializes a Plan onto a filesystem.
type Writer struct {
	// Fs receives the layout.
	Fs afero.Fs
	// SourceFs holds the source files. Nil means Fs.
	SourceFs afero.Fs
	// Workers bounds concurrent file copies. Values < 1 mean 1.
	Workers int
}

// Write creates the server/pod directory tree, copies every placed file and
// writes the metaindex, CSV and JSON side files under cfg.BaseDir().
func (w *Writer) Write(ctx context.Context, cfg *Config, plan *Plan) (*WriteSummary, error) {
	base := cfg.BaseDir()
	if err := w.Fs.MkdirAll(base, 0755); err != nil {
		return nil, errors.WithMessagef(err, "creating %s", base)
	}

	summary := &WriteSummary{Metaindexes: make(map[int]string)}
	for s, podCount := range plan.PodCounts {
		for p := 1; p <= podCount; p++ {
			dir := filepath.Join(base, ServerName(s+1), PodName(p), PodIndexDir)
			if err := w.Fs.MkdirAll(dir, 0755); err != nil {
				return nil, errors.WithMessagef(err, "creating %s", dir)
			}
			summary.PodsCreated++
		}
	}

	copied, bytes, err := w.copyAll(ctx, plan.Placements)
	if err != nil {
		return nil, err
	}
	summary.FilesCopied, summary.BytesCopied = copied, bytes
	logrus.Infof("Copied %s files (%s)", humanize.Comma(int64(copied)), humanize.IBytes(uint64(bytes)))

	for s, podCount := range plan.PodCounts {
		path, err := w.writeMetaindex(cfg, s+1, podCount)
		if err != nil {
			return nil, err
		}
		summary.Metaindexes[s+1] = path
	}

	metaindexes := make(map[string]string, len(summary.Metaindexes))
	for s, path := range summary.Metaindexes {
		metaindexes[strconv.Itoa(s)] = path
	}
	info := DistributionInfo{
		PodStrategy:         cfg.PodDistributionStrategy,
		FileStrategy:        cfg.FileDistributionStrategy,
		Stats:               plan.Stats,
		PodCounts:           plan.PodCounts,
		TotalFilesNeeded:    plan.TotalFilesNeeded,
		TotalFilesAvailable: plan.TotalFilesAvailable,
	}
	if cfg.PodDistributionStrategy == string(alloc.Pareto) || cfg.FileDistributionStrategy == string(alloc.Pareto) {
		info.ParetoAlpha = cfg.ParetoAlpha
	}
	if cfg.PodDistributionStrategy == string(alloc.Zipf) || cfg.FileDistributionStrategy == string(alloc.Zipf) {
		info.ZipfAlpha = cfg.ZipfAlpha
	}

	for name, v := range map[string]interface{}{
		AccessControlFile:  plan.Grant.Lists(),
		WebIDStructureFile: plan.Structure,
		WebIDInfoFile: WebIDInfo{
			WebIDs:            access.IDs(plan.Agents),
			Agents:            agentInfos(plan.Agents),
			SocialAgents:      plan.SocialAgents,
			SocialAgentPowers: cfg.Powers(),
		},
		DistributionInfoFile:  info,
		ServerMetaindexesFile: metaindexes,
	} {
		if err := WriteJSON(w.Fs, filepath.Join(base, name), v); err != nil {
			return nil, err
		}
	}

	if err := w.writeOverlayServers(cfg); err != nil {
		return nil, err
	}
	return summary, nil
}

func (w *Writer) copyAll(ctx context.Context, placements []Placement) (int, int64, error) {
	src := w.SourceFs
	if src == nil {
		src = w.Fs
	}
	var files, bytes atomic.Int64

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(w.Workers, 1))
	for _, p := range placements {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := copyFile(src, w.Fs, p.Source, p.Dest)
			if err != nil {
				return err
			}
			files.Add(1)
			bytes.Add(n)
			return nil
		})
	}
	err := group.Wait()
	return int(files.Load()), bytes.Load(), err
}

// copyFile copies src to dst and carries over the modification time.
func copyFile(srcFs, dstFs afero.Fs, src, dst string) (int64, error) {
	in, err := srcFs.Open(src)
	if err != nil {
		return 0, errors.WithMessagef(err, "opening source %s", src)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return 0, errors.WithMessagef(err, "stat %s", src)
	}
	out, err := dstFs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return 0, errors.WithMessagef(err, "creating %s", dst)
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, errors.WithMessagef(err, "copying %s", src)
	}
	if err = out.Close(); err != nil {
		return n, errors.WithMessagef(err, "closing %s", dst)
	}
	if err = dstFs.Chtimes(dst, fi.ModTime(), fi.ModTime()); err != nil {
		return n, errors.WithMessagef(err, "setting times on %s", dst)
	}
	return n, nil
}

// MetaindexURL is the espressoindex URL of a pod as served by its server.
func MetaindexURL(cfg *Config, server, pod int) string {
	return fmt.Sprintf("http://%s/%s/%s/", cfg.HostPort(server), PodName(pod), PodIndexDir)
}

func (w *Writer) writeMetaindex(cfg *Config, server, podCount int) (string, error) {
	dir := filepath.Join(cfg.BaseDir(), ServerName(server), ServerIndexDir)
	if err := w.Fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.WithMessagef(err, "creating %s", dir)
	}
	rows := make([][]string, 0, podCount)
	for p := 1; p <= podCount; p++ {
		rows = append(rows, []string{MetaindexURL(cfg, server, p)})
	}
	path := filepath.Join(dir, MetaindexFile)
	return path, WriteCSV(w.Fs, path, rows)
}

func (w *Writer) writeOverlayServers(cfg *Config) error {
	rows := make([][]string, 0, cfg.NumServers)
	for s := 1; s <= cfg.NumServers; s++ {
		rows = append(rows, []string{ServerName(s), cfg.HostPort(s)})
	}
	path := filepath.Join(cfg.BaseDir(), OverlayServersFile)
	if err := WriteCSV(w.Fs, path, rows); err != nil {
		return err
	}
	logrus.Infof("Created %s with %d servers", path, cfg.NumServers)
	return nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(fs afero.Fs, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithMessagef(err, "encoding %s", filepath.Base(path))
	}
	if err = afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return errors.WithMessagef(err, "writing %s", path)
	}
	return nil
}

// WriteCSV writes rows to path.
func WriteCSV(fs afero.Fs, path string, rows [][]string) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.WithMessagef(err, "creating %s", path)
	}
	cw := csv.NewWriter(f)
	if err = cw.WriteAll(rows); err != nil {
		f.Close()
		return errors.WithMessagef(err, "writing %s", path)
	}
	return errors.WithMessagef(f.Close(), "closing %s", path)
}
