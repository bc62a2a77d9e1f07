package snapsource

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/timestamp"
)

const maxStderrExcerpt = 512

// CommandConfig describes how cephfs-top is invoked.
type CommandConfig struct {
	Path     string // cephfs-top binary
	Cluster  string
	ID       string // ceph client id used to connect
	ConfFile string // ceph cluster configuration file
	SelfTest bool
	DumpFS   string // restrict the dump to one filesystem; empty dumps all
	Timeout  time.Duration
}

// Args returns the cephfs-top argument list. Options are present only when
// configured; the dump mode is always last.
func (c CommandConfig) Args() []string {
	var args []string
	if c.Cluster != "" {
		args = append(args, "--cluster", c.Cluster)
	}
	if c.ID != "" {
		args = append(args, "--id", c.ID)
	}
	if c.ConfFile != "" {
		args = append(args, "--conffile", c.ConfFile)
	}
	if c.SelfTest {
		args = append(args, "--selftest")
	}
	if c.DumpFS != "" {
		args = append(args, "--dumpfs", c.DumpFS)
	} else {
		args = append(args, "--dump")
	}
	return args
}

// CommandSource runs cephfs-top once per Fetch and decodes its stdout.
type CommandSource struct {
	cfg   CommandConfig
	dates *timestamp.Parser
}

// NewCommandSource creates a source for cfg. Zero Path and Timeout fall back
// to the package defaults.
func NewCommandSource(cfg CommandConfig, dates *timestamp.Parser) *CommandSource {
	if cfg.Path == "" {
		cfg.Path = model.DefaultCephfsTopPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = model.DefaultFetchTimeout
	}
	if dates == nil {
		dates = timestamp.NewParser()
	}
	return &CommandSource{cfg: cfg, dates: dates}
}

func (s *CommandSource) Name() string { return "cephfs-top" }

// Config returns the effective invocation settings.
func (s *CommandSource) Config() CommandConfig { return s.cfg }

// Fetch runs cephfs-top bounded by the configured timeout.
func (s *CommandSource) Fetch(ctx context.Context) (*model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.Path, s.cfg.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children holding the pipes open must not outlive the timeout.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, unavailable(ctx.Err(), "%s timed out after %s", s.cfg.Path, s.cfg.Timeout)
		}
		return nil, unavailable(err, "run %s: %s", s.cfg.Path, excerpt(stderr.String()))
	}

	snap, err := Decode(stdout.Bytes(), s.dates)
	if err != nil {
		return nil, unavailable(err, "parse %s output", s.cfg.Path)
	}
	return snap, nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrExcerpt {
		s = s[:maxStderrExcerpt] + "..."
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
