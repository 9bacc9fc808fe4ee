package experiment

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ListSources returns the files in dir matching pattern, sorted.
// An empty match is an error: a run cannot place zero files.
func ListSources(fs afero.Fs, dir, pattern string) ([]string, error) {
	if ok, err := afero.DirExists(fs, dir); err != nil {
		return nil, errors.WithMessagef(err, "checking %s", dir)
	} else if !ok {
		return nil, fmt.Errorf("source directory does not exist: %s", dir)
	}
	matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.WithMessagef(err, "listing %s", dir)
	}
	files := matches[:0]
	for _, m := range matches {
		if ok, _ := afero.IsDir(fs, m); !ok {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in source directory: %s", pattern, dir)
	}
	sort.Strings(files)
	return files, nil
}
