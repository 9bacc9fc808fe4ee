package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Indexer runs the WebID-specific indexer jar over a generated experiment.
type Indexer struct {
	Fs        afero.Fs
	Java      string
	Jar       string
	Structure string
	SourceDir string
	OutputDir string
	// Command defaults to exec.CommandContext.
	Command CommandFunc
}

// IndexerOutput holds the captured output of one indexer run.
type IndexerOutput struct {
	Stdout string
	Stderr string
}

// Args returns the indexer command line.
func (ix *Indexer) Args() (string, []string) {
	java := ix.Java
	if java == "" {
		java = "java"
	}
	return java, []string{"-jar", ix.Jar, ix.Structure, ix.SourceDir, ix.OutputDir}
}

// Run validates the WebID structure file and invokes the indexer.
// Output is returned even when the indexer fails.
func (ix *Indexer) Run(ctx context.Context) (*IndexerOutput, error) {
	data, err := afero.ReadFile(ix.Fs, ix.Structure)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading WebID structure %s", ix.Structure)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("WebID structure %s is not valid JSON", ix.Structure)
	}

	command := ix.Command
	if command == nil {
		command = exec.CommandContext
	}
	name, args := ix.Args()
	cmd := command(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	logrus.Infof("Running indexer %s", ix.Jar)
	err = cmd.Run()
	out := &IndexerOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return out, errors.WithMessage(err, "running indexer")
	}
	return out, nil
}
