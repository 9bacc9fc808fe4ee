package experiment

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/espresso-bench/scalegen/alloc/access"
)

// Index levels produced by the WebID-specific indexer, per agent.
const (
	fileLevelDir   = "file-level"
	podLevelDir    = "pod-level"
	serverLevelDir = "server-level"
)

// IndexSummary reports what DistributeIndexes moved.
type IndexSummary struct {
	Moved       int
	Overlay     int
	OverlayPath string
}

// OverlayEntry is one row of overlaynetwork.csv.
type OverlayEntry struct {
	WebID    string
	HostPort string
	Path     string
}

// NormalizeIndexFilename strips '_' and '.' from a file stem, keeping the
// extension: http___example.org_agent1-pods.zip -> httpexampleorgagent1-pods.zip
func NormalizeIndexFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return strings.NewReplacer("_", "", ".", "").Replace(stem) + ext
}

// DistributeIndexes moves the indexer's per-agent output from indexDir into the
// experiment layout under base:
//
//	file-level/serverS/podP/*.zip -> serverS/podP/espressoindex/
//	pod-level/serverS/*.zip       -> serverS/ESPRESSO/
//	server-level/serverS/*.zip    -> ESPRESSO/ of a server drawn uniformly from rng
//
// Server-level placements are recorded in overlaynetwork.csv.
func DistributeIndexes(fs afero.Fs, cfg *Config, base, indexDir string, rng *rand.Rand) (*IndexSummary, error) {
	root := filepath.Join(indexDir, "http:", "example.org")
	if ok, err := afero.DirExists(fs, root); err != nil {
		return nil, errors.WithMessagef(err, "checking %s", root)
	} else if !ok {
		return nil, fmt.Errorf("expected index structure not found at %s", root)
	}

	agents, err := subdirs(fs, root, "")
	if err != nil {
		return nil, err
	}

	summary := &IndexSummary{}
	type pending struct {
		webID string
		file  string
	}
	var serverLevel []pending

	for _, agent := range agents {
		card := filepath.Join(root, agent, "profile", "card#me")
		if ok, _ := afero.DirExists(fs, card); !ok {
			logrus.Warnf("card#me directory not found for agent %s", agent)
			continue
		}
		webID := fmt.Sprintf("http://example.org/%s/profile/card#me", agent)
		logrus.Debugf("Processing agent: %s", webID)

		servers, err := subdirs(fs, filepath.Join(card, fileLevelDir), "server")
		if err != nil {
			return nil, err
		}
		for _, server := range servers {
			pods, err := subdirs(fs, filepath.Join(card, fileLevelDir, server), "pod")
			if err != nil {
				return nil, err
			}
			for _, pod := range pods {
				dst := filepath.Join(base, server, pod, PodIndexDir)
				n, err := moveZips(fs, filepath.Join(card, fileLevelDir, server, pod), dst)
				if err != nil {
					return nil, err
				}
				summary.Moved += n
			}
		}

		if servers, err = subdirs(fs, filepath.Join(card, podLevelDir), "server"); err != nil {
			return nil, err
		}
		for _, server := range servers {
			n, err := moveZips(fs, filepath.Join(card, podLevelDir, server), filepath.Join(base, server, ServerIndexDir))
			if err != nil {
				return nil, err
			}
			summary.Moved += n
		}

		if servers, err = subdirs(fs, filepath.Join(card, serverLevelDir), "server"); err != nil {
			return nil, err
		}
		for _, server := range servers {
			zips, err := afero.Glob(fs, filepath.Join(card, serverLevelDir, server, "*.zip"))
			if err != nil {
				return nil, errors.WithMessagef(err, "listing %s", server)
			}
			for _, z := range zips {
				serverLevel = append(serverLevel, pending{webID: webID, file: z})
			}
		}
	}
	logrus.Infof("Moved %d file- and pod-level indexes", summary.Moved)

	if len(serverLevel) == 0 {
		return summary, nil
	}
	targets, err := subdirs(fs, base, "server")
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		logrus.Warn("No servers found for server-level index distribution")
		return summary, nil
	}

	var entries []OverlayEntry
	for _, p := range serverLevel {
		target := targets[rng.Intn(len(targets))]
		dstDir := filepath.Join(base, target, ServerIndexDir)
		if err := fs.MkdirAll(dstDir, 0755); err != nil {
			return nil, errors.WithMessagef(err, "creating %s", dstDir)
		}
		dst := filepath.Join(dstDir, NormalizeIndexFilename(filepath.Base(p.file)))
		if err := fs.Rename(p.file, dst); err != nil {
			return nil, errors.WithMessagef(err, "moving %s", p.file)
		}
		if abs, err := filepath.Abs(dst); err == nil {
			dst = abs
		}
		id, _ := strconv.Atoi(strings.TrimPrefix(target, "server"))
		entries = append(entries, OverlayEntry{
			WebID:    access.NormalizeWebID(p.webID),
			HostPort: cfg.HostPort(id),
			Path:     dst,
		})
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.WebID, e.HostPort, e.Path}
	}
	summary.OverlayPath = filepath.Join(base, OverlayNetworkFile)
	if err := WriteCSV(fs, summary.OverlayPath, rows); err != nil {
		return nil, err
	}
	summary.Overlay = len(entries)
	logrus.Infof("Randomly distributed %d server-level indexes into %s", len(entries), summary.OverlayPath)
	return summary, nil
}

// subdirs lists the directory names under dir having prefix, sorted.
// A missing dir yields no names.
func subdirs(fs afero.Fs, dir, prefix string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.WithMessagef(err, "reading %s", dir)
	}
	var names []string
	for _, fi := range infos {
		if fi.IsDir() && strings.HasPrefix(fi.Name(), prefix) {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// moveZips moves every *.zip in src into dst under its normalized name.
func moveZips(fs afero.Fs, src, dst string) (int, error) {
	zips, err := afero.Glob(fs, filepath.Join(src, "*.zip"))
	if err != nil {
		return 0, errors.WithMessagef(err, "listing %s", src)
	}
	if len(zips) == 0 {
		return 0, nil
	}
	if err = fs.MkdirAll(dst, 0755); err != nil {
		return 0, errors.WithMessagef(err, "creating %s", dst)
	}
	for _, z := range zips {
		to := filepath.Join(dst, NormalizeIndexFilename(filepath.Base(z)))
		if err = fs.Rename(z, to); err != nil {
			return 0, errors.WithMessagef(err, "moving %s", z)
		}
	}
	return len(zips), nil
}
