// Package launch runs the external processes that consume a generated
// experiment: one content server per server directory, and the
// WebID-specific indexer.
package launch

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Defaults for the Solid community server launcher.
const (
	DefaultSolidPackage = "@solid/community-server@6"
	DefaultSolidConfig  = "solid-config.json"
	DefaultBaseURLHost  = "http://localhost"
	DefaultLogDir       = "./solid-logs"

	// stopGrace is how long a server may take to exit after SIGTERM.
	stopGrace = 10 * time.Second
)

// CommandFunc builds an *exec.Cmd. Tests substitute it.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Server is one content server to launch.
type Server struct {
	Name    string
	Root    string
	Port    int
	BaseURL string
	LogPath string
}

// DiscoverServers returns the serverN directories under root, ordered by N.
func DiscoverServers(fs afero.Fs, root string) ([]string, error) {
	infos, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading %s", root)
	}
	var names []string
	for _, fi := range infos {
		if _, ok := serverNumber(fi.Name()); ok && fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := serverNumber(names[i])
		b, _ := serverNumber(names[j])
		return a < b
	})
	return names, nil
}

// serverNumber parses the 1-based N of a serverN directory name.
func serverNumber(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "server"))
	if err != nil || n < 1 || !strings.HasPrefix(name, "server") {
		return 0, false
	}
	return n, true
}

// Launcher starts one content server per generated server directory.
type Launcher struct {
	Fs          afero.Fs
	Root        string
	BasePort    int
	BaseURLHost string
	Package     string
	ConfigFile  string
	LogDir      string
	// Command defaults to exec.CommandContext.
	Command CommandFunc
}

// Servers resolves the servers Run would start: one per server directory.
// serverN listens on BasePort+N-1, matching the generated metaindex URLs.
func (l *Launcher) Servers() ([]Server, error) {
	names, err := DiscoverServers(l.Fs, l.Root)
	if err != nil {
		return nil, err
	}
	host := l.BaseURLHost
	if host == "" {
		host = DefaultBaseURLHost
	}
	servers := make([]Server, 0, len(names))
	for _, name := range names {
		n, _ := serverNumber(name)
		port := l.BasePort + n - 1
		servers = append(servers, Server{
			Name:    name,
			Root:    filepath.Join(l.Root, name),
			Port:    port,
			BaseURL: fmt.Sprintf("%s:%d", host, port),
			LogPath: filepath.Join(l.LogDir, name+".log"),
		})
	}
	return servers, nil
}

// Args returns the command line for s.
func (l *Launcher) Args(s Server) (string, []string) {
	return "npx", []string{
		"--yes", l.Package,
		"--baseUrl", s.BaseURL,
		"--port", fmt.Sprintf("%d", s.Port),
		"--rootFilePath", s.Root,
		"-c", l.ConfigFile,
	}
}

// Run starts every server and blocks until ctx is cancelled or a server
// exits on its own. On return all servers have been stopped.
func (l *Launcher) Run(ctx context.Context) error {
	servers, err := l.Servers()
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("no generated servers found under %s", l.Root)
	}
	if err = l.Fs.MkdirAll(l.LogDir, 0755); err != nil {
		return errors.WithMessagef(err, "creating %s", l.LogDir)
	}

	command := l.Command
	if command == nil {
		command = exec.CommandContext
	}
	logrus.Infof("Launching %d Solid servers", len(servers))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	// abort stops anything already started before reporting err.
	abort := func(err error) error {
		cancel()
		_ = group.Wait()
		return err
	}

	for _, s := range servers {
		logFile, err := l.Fs.Create(s.LogPath)
		if err != nil {
			return abort(errors.WithMessagef(err, "creating %s", s.LogPath))
		}
		name, args := l.Args(s)
		cmd := command(groupCtx, name, args...)
		cmd.Stdout, cmd.Stderr = logFile, logFile
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		cmd.WaitDelay = stopGrace

		if err = cmd.Start(); err != nil {
			closeLog(logFile)
			return abort(errors.WithMessagef(err, "starting %s", s.Name))
		}
		logrus.WithFields(logrus.Fields{
			"server": s.Name,
			"port":   s.Port,
			"url":    s.BaseURL,
			"root":   s.Root,
			"log":    s.LogPath,
		}).Info("Started server")

		group.Go(func() error {
			defer closeLog(logFile)
			err := cmd.Wait()
			logrus.Infof("Stopped %s", s.Name)
			if groupCtx.Err() != nil {
				return nil // shutdown requested
			}
			if err == nil {
				err = fmt.Errorf("exited")
			}
			return fmt.Errorf("server %s: %w", s.Name, err)
		})
	}
	logrus.Info("All Solid servers launched.")
	return group.Wait()
}

func closeLog(c io.Closer) {
	if err := c.Close(); err != nil {
		logrus.Warnf("closing server log: %v", err)
	}
}
