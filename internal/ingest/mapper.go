package ingest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/registry"
)

// ErrNameCollision is returned when two distinct raw names, or the same name
// in two snapshot sections, sanitize to one series name. The first claim
// keeps the series for the lifetime of the mapper.
var ErrNameCollision = errors.New("series name collision")

type section uint8

const (
	sectionTimestamp section = iota + 1
	sectionClientCount
	sectionFilesystems
)

type owner struct {
	section section
	raw     string
}

func (s section) String() string {
	switch s {
	case sectionTimestamp:
		return "date"
	case sectionClientCount:
		return "client_count"
	default:
		return "filesystems"
	}
}

// ApplyStats summarizes one Apply call.
type ApplyStats struct {
	Updated        int `json:"updated"`         // series values set, including the timestamp
	SkippedFields  int `json:"skipped_fields"`  // fields whose value did not coerce
	SkippedRecords int `json:"skipped_records"` // client records without usable identity fields
	Rejected       int `json:"rejected"`        // fields whose series could not be created or reused
}

// Mapper turns snapshots into series updates. Apply must not be called
// concurrently.
type Mapper struct {
	registry   SeriesRegistry
	timestamp  prometheus.Gauge
	labelKeys  []string
	owners     map[string]owner
	collisions map[string]struct{}
	log        *zap.Logger
}

// NewMapper creates a mapper and registers the timestamp series.
func NewMapper(reg SeriesRegistry, log *zap.Logger) (*Mapper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ts, err := reg.Gauge(model.TimestampSeriesName, timestampHelp)
	if err != nil {
		return nil, errors.Wrap(err, "register timestamp series")
	}
	return &Mapper{
		registry:   reg,
		timestamp:  ts,
		labelKeys:  model.ClientLabelKeys(),
		owners:     map[string]owner{model.TimestampSeriesName: {section: sectionTimestamp, raw: "date"}},
		collisions: make(map[string]struct{}),
		log:        log,
	}, nil
}

// Apply maps one snapshot onto the registry. Every field is handled on its
// own: a field that does not coerce, or whose series cannot be resolved, is
// skipped without affecting its siblings. A nil snapshot is a no-op.
func (m *Mapper) Apply(snap *model.Snapshot, prefix string) ApplyStats {
	var stats ApplyStats
	if snap == nil {
		return stats
	}

	if snap.Timestamp.IsZero() {
		m.log.Warn("snapshot has no usable date, timestamp not updated", zap.String("date", snap.Date))
	} else {
		m.timestamp.Set(float64(snap.Timestamp.Unix()))
		stats.Updated++
	}

	for _, rawName := range slices.Sorted(maps.Keys(snap.ClientCount)) {
		value, ok := Coerce(snap.ClientCount[rawName])
		if !ok {
			stats.SkippedFields++
			continue
		}
		name := SanitizeMetricName(prefix + rawName)
		if err := m.claim(name, owner{section: sectionClientCount, raw: rawName}); err != nil {
			m.reject(&stats, name, err)
			continue
		}
		g, err := m.registry.Gauge(name, fmt.Sprintf(globalHelpFormat, name))
		if err != nil {
			m.reject(&stats, name, err)
			continue
		}
		g.Set(value)
		stats.Updated++
	}

	for _, fsName := range slices.Sorted(maps.Keys(snap.Filesystems)) {
		clients := snap.Filesystems[fsName]
		for _, clientID := range slices.Sorted(maps.Keys(clients)) {
			m.applyRecord(&stats, prefix, fsName, clientID, clients[clientID])
		}
	}
	return stats
}

func (m *Mapper) applyRecord(stats *ApplyStats, prefix, fsName, clientID string, rec model.PerfRecord) {
	mountRoot, mountPoint, ok := rec.Identity()
	if !ok {
		m.log.Debug("client record lacks identity fields, skipped",
			zap.String("cephfs_name", fsName),
			zap.String("client_id", clientID),
		)
		stats.SkippedRecords++
		return
	}

	for _, field := range slices.Sorted(maps.Keys(rec)) {
		if model.IsIdentityField(field) {
			continue
		}
		value, ok := Coerce(rec[field])
		if !ok {
			stats.SkippedFields++
			continue
		}
		name := SanitizeMetricName(prefix + field)
		if err := m.claim(name, owner{section: sectionFilesystems, raw: field}); err != nil {
			m.reject(stats, name, err)
			continue
		}
		vec, err := m.registry.GaugeVec(name, fmt.Sprintf(clientHelpFormat, name), m.labelKeys)
		if err != nil {
			m.reject(stats, name, err)
			continue
		}
		g, err := vec.GetMetricWithLabelValues(fsName, clientID, mountRoot, mountPoint)
		if err != nil {
			m.reject(stats, name, err)
			continue
		}
		g.Set(value)
		stats.Updated++
	}
}

func (m *Mapper) claim(name string, o owner) error {
	prev, ok := m.owners[name]
	if !ok {
		m.owners[name] = o
		return nil
	}
	if prev != o {
		return errors.Wrapf(ErrNameCollision, "series %q is fed by %s field %q, not %s field %q",
			name, prev.section, prev.raw, o.section, o.raw)
	}
	return nil
}

func (m *Mapper) reject(stats *ApplyStats, name string, err error) {
	stats.Rejected++
	// The registry logs its own rejections once; name collisions are logged
	// here once per name.
	if errors.Is(err, registry.ErrShapeConflict) || errors.Is(err, registry.ErrInvalidName) {
		m.log.Debug("series update skipped", zap.String("series", name), zap.Error(err))
		return
	}
	if errors.Is(err, ErrNameCollision) {
		if _, warned := m.collisions[name]; warned {
			return
		}
		m.collisions[name] = struct{}{}
		m.log.Warn("series name collision", zap.String("series", name), zap.Error(err))
		return
	}
	m.log.Warn("series update failed", zap.String("series", name), zap.Error(err))
}
