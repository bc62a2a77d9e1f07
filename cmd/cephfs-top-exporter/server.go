package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/httpserver"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/ingest"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/logging"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/poller"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/registry"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/timestamp"
)

// exporter is the assembled pipeline: one source feeding one registry.
type exporter struct {
	registry *registry.Registry
	source   model.SnapshotSource
	poller   *poller.Poller
	server   *httpserver.Server
}

func newExporter(cfg appConfig, log *zap.Logger) (*exporter, error) {
	reg := registry.New(log.Named("registry"))
	mapper, err := ingest.NewMapper(reg, log.Named("mapper"))
	if err != nil {
		return nil, err
	}

	source := selectSource(buildSourcePlugins(cfg), timestamp.NewParser())
	if source == nil {
		return nil, errors.New("no snapshot source configured")
	}

	p := poller.New(source, mapper, reg, poller.Config{
		Interval: cfg.Interval,
		Prefix:   cfg.MetricPrefix,
	}, log.Named("poller"))

	return &exporter{
		registry: reg,
		source:   source,
		poller:   p,
		server:   httpserver.NewServer(cfg.Addr, reg.Gatherer(), reg, p, log.Named("http")),
	}, nil
}

// run serves scrapes and drives the poller until ctx is cancelled. The
// listener is bound before the first cycle so a taken port fails fast.
func (e *exporter) run(ctx context.Context) error {
	if err := e.server.Start(); err != nil {
		return errors.Wrap(err, "start metrics server")
	}
	defer e.server.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.poller.Run(gctx)
	})
	return g.Wait()
}

// runServer starts the exporter and blocks until SIGINT or SIGTERM.
func runServer(cfg appConfig) error {
	log, cleanupLogger, err := logging.New(cfg.TraceLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer cleanupLogger()

	exp, err := newExporter(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		log.Info("shutting down")
		cancel()

		// A second signal, or a stuck cycle, forces the exit.
		deadline := time.NewTimer(cfg.FetchTimeout + 5*time.Second)
		defer deadline.Stop()
		select {
		case <-sigCh:
			log.Warn("force shutdown")
		case <-deadline.C:
			log.Error("shutdown timed out, forcing exit")
		}
		cleanupLogger()
		os.Exit(1)
	}()

	printStartupBanner(cfg, exp.source.Name())
	log.Info("exporter started",
		zap.String("addr", exp.server.Addr()),
		zap.String("source", exp.source.Name()),
		zap.Duration("interval", cfg.Interval),
		zap.String("version", version),
	)

	return exp.run(ctx)
}

func printStartupBanner(cfg appConfig, sourceName string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("cephfs-top exporter")+"  "+dim.Render("v"+version))
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Publication"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Metrics        %s", check, cyan.Render("http://"+cfg.Addr+"/metrics")))
	lines = append(lines, fmt.Sprintf("    %s  Prefix         %s", check, dim.Render(cfg.MetricPrefix)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Source"))
	lines = append(lines, "")
	if sourceName == "jsondump" {
		lines = append(lines, fmt.Sprintf("    %s  JSON dump      %s", check, dim.Render(cfg.JSONDump)))
		lines = append(lines, fmt.Sprintf("    %s  cephfs-top     %s", dot, dim.Render("not used")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  cephfs-top     %s", check, dim.Render(cfg.CephfsTopPath)))
		if cfg.Cluster != "" {
			lines = append(lines, fmt.Sprintf("    %s  Cluster        %s", check, dim.Render(cfg.Cluster)))
		}
		lines = append(lines, fmt.Sprintf("    %s  Client id      %s", check, dim.Render(cfg.ID)))
	}
	lines = append(lines, fmt.Sprintf("    %s  Interval       %s", check, dim.Render(cfg.Interval.String())))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(cfg.ConfigPath)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("flags and environment")))
	}
	if cfg.LogFile != "" {
		lines = append(lines, fmt.Sprintf("    %s  Log File       %s", check, dim.Render(cfg.LogFile)))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}
