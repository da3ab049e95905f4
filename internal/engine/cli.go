package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// CLI runs the engine as a subprocess of this function instance. The
// container image ships the Arelle command line alongside the function
// binary; Path names it.
type CLI struct {
	Path string
}

// New returns a CLI engine that invokes the executable at path.
func New(path string) *CLI {
	return &CLI{Path: path}
}

// OpenSession creates the per-run scratch directory that holds the engine's
// cache, config and facts export. Nothing from a previous run is visible to
// the new session.
func (c *CLI) OpenSession(opts Options) (Session, error) {
	scratch, err := os.MkdirTemp("", "engine-session-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create engine session scratch: %w", err)
	}
	return &cliSession{
		enginePath: c.Path,
		opts:       opts,
		scratch:    scratch,
		factsPath:  filepath.Join(scratch, "facts.json"),
	}, nil
}

type cliSession struct {
	enginePath string
	opts       Options
	scratch    string
	factsPath  string
	output     bytes.Buffer
}

// args renders the session's command line. Plugin options are sorted so the
// argv is stable run to run.
func (s *cliSession) args() []string {
	args := []string{"-f", s.opts.EntrypointFile}

	if len(s.opts.Plugins) > 0 {
		args = append(args, "--plugins", strings.Join(s.opts.Plugins, "|"))
	}
	if len(s.opts.Packages) > 0 {
		args = append(args, "--packages", strings.Join(s.opts.Packages, "|"))
	}
	if s.opts.DisablePersistentConfig {
		args = append(args, "--disablePersistentConfig")
	}
	if s.opts.LogFormat != "" {
		args = append(args, "--logFormat", s.opts.LogFormat)
	}

	// All engine state stays inside the session scratch.
	args = append(args, "--xdgConfigHome", s.scratch)
	args = append(args, "--facts", s.factsPath)

	keys := make([]string, 0, len(s.opts.PluginOptions))
	for k := range s.opts.PluginOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--"+k)
		if v := s.opts.PluginOptions[k]; v != "" {
			args = append(args, v)
		}
	}
	return args
}

func (s *cliSession) Run(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, s.enginePath, s.args()...)
	cmd.Stdout = &s.output
	cmd.Stderr = &s.output

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	// A cancelled context kills the subprocess, which also surfaces as an
	// exit error; the cancellation is the real cause.
	if ctx.Err() != nil {
		return false, fmt.Errorf("engine run aborted: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("failed to run engine %s: %w", s.enginePath, err)
}

func (s *cliSession) Logs() string {
	return s.output.String()
}

func (s *cliSession) Facts() ([]Fact, error) {
	raw, err := os.ReadFile(s.factsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts export: %w", err)
	}
	var facts []Fact
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("failed to parse facts export: %w", err)
	}
	return facts, nil
}

func (s *cliSession) Close() error {
	return os.RemoveAll(s.scratch)
}
