package experiment

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Clean removes dir and everything under it.
// It reports false, without error, when dir does not exist.
func Clean(fs afero.Fs, dir string) (bool, error) {
	if dir == "" || filepath.Clean(dir) == string(filepath.Separator) {
		return false, fmt.Errorf("refusing to remove %q", dir)
	}
	ok, err := afero.Exists(fs, dir)
	if err != nil {
		return false, errors.WithMessagef(err, "checking %s", dir)
	} else if !ok {
		logrus.Infof("Directory does not exist: %s", dir)
		return false, nil
	}
	if err = fs.RemoveAll(dir); err != nil {
		return false, errors.WithMessagef(err, "removing %s", dir)
	}
	logrus.Infof("Removed directory: %s", dir)
	return true, nil
}
