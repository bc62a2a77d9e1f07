// Package poller drives the acquire -> map -> sleep cycle.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/ingest"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
)

// ErrNoSnapshot is returned by RunOnce when a source reports success without
// a snapshot.
var ErrNoSnapshot = errors.New("source returned no snapshot")

// Registry is what the poller needs from the series registry besides the
// mapper: a place for its own instrumentation and the current series count.
type Registry interface {
	MustRegister(...prometheus.Collector)
	Len() int
}

// Config holds poller settings.
type Config struct {
	Interval time.Duration
	Prefix   string
}

// Status describes the most recent cycles.
type Status struct {
	Source      string            `json:"source"`
	Cycles      uint64            `json:"cycles"`
	Failures    uint64            `json:"failures"`
	LastCycle   time.Time         `json:"last_cycle"`
	LastSuccess time.Time         `json:"last_success"`
	LastError   string            `json:"last_error,omitempty"`
	LastStats   ingest.ApplyStats `json:"last_stats"`
}

// Poller runs cycles strictly one after another.
type Poller struct {
	source   model.SnapshotSource
	mapper   *ingest.Mapper
	registry Registry
	cfg      Config
	log      *zap.Logger
	metrics  *selfMetrics

	mu     sync.RWMutex
	status Status
}

// New creates a poller and registers its instrumentation on reg.
func New(source model.SnapshotSource, mapper *ingest.Mapper, reg Registry, cfg Config, log *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = model.DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	metrics := newSelfMetrics()
	reg.MustRegister(metrics.collectors()...)

	return &Poller{
		source:   source,
		mapper:   mapper,
		registry: reg,
		cfg:      cfg,
		log:      log.With(zap.String("source", source.Name())),
		metrics:  metrics,
		status:   Status{Source: source.Name()},
	}
}

// Run executes a cycle immediately and then one cycle per interval, sleeping
// the full interval after each cycle completes. It returns nil when ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = p.RunOnce(ctx)

		timer := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce acquires one snapshot and maps it. An acquisition error leaves
// the registry untouched and is returned after being logged and counted.
func (p *Poller) RunOnce(ctx context.Context) error {
	start := time.Now()
	snap, err := p.source.Fetch(ctx)
	if err == nil && snap == nil {
		err = errors.Wrapf(ErrNoSnapshot, "fetch from %s", p.source.Name())
	}
	if err != nil {
		p.metrics.observe(resultFailure, time.Since(start))
		p.recordFailure(start, err)
		p.log.Error("snapshot acquisition failed, cycle skipped", zap.Error(err))
		return err
	}

	if snap.Skipped > 0 {
		p.log.Warn("snapshot contained malformed entries", zap.Int("skipped", snap.Skipped))
	}
	stats := p.mapper.Apply(snap, p.cfg.Prefix)

	p.metrics.observe(resultSuccess, time.Since(start))
	p.metrics.series.Set(float64(p.registry.Len()))
	p.metrics.lastSuccess.Set(float64(time.Now().Unix()))
	p.recordSuccess(start, stats)

	p.log.Debug("cycle complete",
		zap.Int("updated", stats.Updated),
		zap.Int("skipped_fields", stats.SkippedFields),
		zap.Int("skipped_records", stats.SkippedRecords),
		zap.Int("rejected", stats.Rejected),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Status returns a copy of the current cycle status.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) recordFailure(at time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Cycles++
	p.status.Failures++
	p.status.LastCycle = at
	p.status.LastError = err.Error()
}

func (p *Poller) recordSuccess(at time.Time, stats ingest.ApplyStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Cycles++
	p.status.LastCycle = at
	p.status.LastSuccess = at
	p.status.LastError = ""
	p.status.LastStats = stats
}
