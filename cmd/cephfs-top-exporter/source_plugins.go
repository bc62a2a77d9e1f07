package main

import (
	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/snapsource"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/timestamp"
)

// SourcePlugin is a small plugin primitive for wiring snapshot sources.
type SourcePlugin interface {
	Name() string
	Enabled() bool
	Build(dates *timestamp.Parser) model.SnapshotSource
}

func buildSourcePlugins(cfg appConfig) []SourcePlugin {
	return []SourcePlugin{
		jsondumpPlugin{path: cfg.JSONDump},
		commandPlugin{cfg: snapsource.CommandConfig{
			Path:     cfg.CephfsTopPath,
			Cluster:  cfg.Cluster,
			ID:       cfg.ID,
			ConfFile: cfg.ConfFile,
			SelfTest: cfg.SelfTest,
			DumpFS:   cfg.DumpFS,
			Timeout:  cfg.FetchTimeout,
		}},
	}
}

// selectSource returns the first enabled plugin's source. A static capture
// takes precedence over running cephfs-top.
func selectSource(plugins []SourcePlugin, dates *timestamp.Parser) model.SnapshotSource {
	for _, p := range plugins {
		if p.Enabled() {
			return p.Build(dates)
		}
	}
	return nil
}

type jsondumpPlugin struct {
	path string
}

func (p jsondumpPlugin) Name() string { return "jsondump" }

func (p jsondumpPlugin) Enabled() bool { return p.path != "" }

func (p jsondumpPlugin) Build(dates *timestamp.Parser) model.SnapshotSource {
	return snapsource.NewFileSource(p.path, dates)
}

type commandPlugin struct {
	cfg snapsource.CommandConfig
}

func (p commandPlugin) Name() string { return "cephfs-top" }

func (p commandPlugin) Enabled() bool { return true }

func (p commandPlugin) Build(dates *timestamp.Parser) model.SnapshotSource {
	return snapsource.NewCommandSource(p.cfg, dates)
}
