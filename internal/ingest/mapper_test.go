package ingest

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/registry"
)

const testPrefix = "cephfs_top_"

func newTestMapper(t *testing.T) (*Mapper, *registry.Registry) {
	t.Helper()
	reg := registry.New(nil)
	m, err := NewMapper(reg, nil)
	require.NoError(t, err)
	return m, reg
}

func client(root, point string, fields map[string]model.Value) model.PerfRecord {
	rec := model.PerfRecord{
		model.FieldMountRoot:  model.TextValue(root),
		model.FieldMountPoint: model.TextValue(point),
	}
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}

func scenarioSnapshot(latency string) *model.Snapshot {
	return &model.Snapshot{
		Date:        "Thu Oct 17 10:00:00 2024",
		Timestamp:   time.Date(2024, time.October, 17, 10, 0, 0, 0, time.UTC),
		ClientCount: map[string]model.Value{"total_clients": model.NumberValue(3)},
		Filesystems: map[string]map[string]model.PerfRecord{
			"cephfs_a": {
				"client.0": client("/", "h1", map[string]model.Value{
					"avg_read_latency": model.TextValue(latency),
				}),
			},
		},
	}
}

func gaugeValue(t *testing.T, reg *registry.Registry, name string) float64 {
	t.Helper()
	g, err := reg.Gauge(name, "")
	require.NoError(t, err)
	return testutil.ToFloat64(g)
}

func labeledValue(t *testing.T, reg *registry.Registry, name string, labels ...string) float64 {
	t.Helper()
	vec, err := reg.GaugeVec(name, "", model.ClientLabelKeys())
	require.NoError(t, err)
	return testutil.ToFloat64(vec.WithLabelValues(labels...))
}

func labeledVec(t *testing.T, reg *registry.Registry, name string) *prometheus.GaugeVec {
	t.Helper()
	vec, err := reg.GaugeVec(name, "", model.ClientLabelKeys())
	require.NoError(t, err)
	return vec
}

func TestApplyEndToEndScenario(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	stats := m.Apply(scenarioSnapshot("12"), testPrefix)

	assert.Equal(t, 3, stats.Updated)
	assert.Equal(t, 3.0, gaugeValue(t, reg, "cephfs_top_total_clients"))
	assert.Equal(t, 12.0, labeledValue(t, reg, "cephfs_top_avg_read_latency", "cephfs_a", "client.0", "/", "h1"))
	assert.Equal(t, 1, testutil.CollectAndCount(labeledVec(t, reg, "cephfs_top_avg_read_latency")))
	assert.Equal(t, float64(time.Date(2024, time.October, 17, 10, 0, 0, 0, time.UTC).Unix()),
		gaugeValue(t, reg, model.TimestampSeriesName))

	// Identity fields are labels, never series.
	assert.NotContains(t, reg.Names(), "cephfs_top_mount_root")
	assert.NotContains(t, reg.Names(), "cephfs_top_mount_point_at_host_slash_addr")
}

func TestApplyRepeatedCycleOverwrites(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	m.Apply(scenarioSnapshot("12"), testPrefix)
	m.Apply(scenarioSnapshot("15"), testPrefix)

	vec := labeledVec(t, reg, "cephfs_top_avg_read_latency")
	assert.Equal(t, 1, testutil.CollectAndCount(vec))
	assert.Equal(t, 15.0, testutil.ToFloat64(vec.WithLabelValues("cephfs_a", "client.0", "/", "h1")))
}

func TestApplySkipsRecordWithoutIdentity(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	snap.Filesystems["cephfs_a"]["client.1"] = model.PerfRecord{
		model.FieldMountPoint: model.TextValue("h2"),
		"avg_read_latency":    model.NumberValue(99),
		"only_on_broken":      model.NumberValue(1),
	}

	stats := m.Apply(snap, testPrefix)

	assert.Equal(t, 1, stats.SkippedRecords)
	assert.NotContains(t, reg.Names(), "cephfs_top_only_on_broken")
	vec := labeledVec(t, reg, "cephfs_top_avg_read_latency")
	assert.Equal(t, 1, testutil.CollectAndCount(vec))
	assert.Equal(t, 12.0, testutil.ToFloat64(vec.WithLabelValues("cephfs_a", "client.0", "/", "h1")))
}

func TestApplySkipsRecordWithNonTextIdentity(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	snap.Filesystems["cephfs_a"]["client.2"] = model.PerfRecord{
		model.FieldMountRoot:  model.NumberValue(1),
		model.FieldMountPoint: model.TextValue("h3"),
		"dlat":                model.NumberValue(5),
	}

	stats := m.Apply(snap, testPrefix)
	assert.Equal(t, 1, stats.SkippedRecords)
	assert.NotContains(t, reg.Names(), "cephfs_top_dlat")
}

func TestApplySkipsOnlyUncoercibleFields(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	snap.ClientCount["fuse"] = model.TextValue("n/a")
	snap.ClientCount["kclient"] = model.TextValue("2")
	snap.Filesystems["cephfs_a"]["client.0"]["rlat"] = model.TextValue("0.5")
	snap.Filesystems["cephfs_a"]["client.0"]["chit"] = model.OtherValue()
	snap.Filesystems["cephfs_a"]["client.0"]["wlat"] = model.NumberValue(0.25)

	stats := m.Apply(snap, testPrefix)

	assert.Equal(t, 3, stats.SkippedFields)
	assert.NotContains(t, reg.Names(), "cephfs_top_fuse")
	assert.NotContains(t, reg.Names(), "cephfs_top_rlat")
	assert.Equal(t, 2.0, gaugeValue(t, reg, "cephfs_top_kclient"))
	assert.Equal(t, 0.25, labeledValue(t, reg, "cephfs_top_wlat", "cephfs_a", "client.0", "/", "h1"))
}

func TestApplyExportsFieldsContainingReservedNames(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	rec := snap.Filesystems["cephfs_a"]["client.0"]
	rec["root"] = model.NumberValue(1)
	rec["mount"] = model.NumberValue(2)
	rec["mount_root_inodes"] = model.NumberValue(3)

	m.Apply(snap, testPrefix)

	assert.Equal(t, 1.0, labeledValue(t, reg, "cephfs_top_root", "cephfs_a", "client.0", "/", "h1"))
	assert.Equal(t, 2.0, labeledValue(t, reg, "cephfs_top_mount", "cephfs_a", "client.0", "/", "h1"))
	assert.Equal(t, 3.0, labeledValue(t, reg, "cephfs_top_mount_root_inodes", "cephfs_a", "client.0", "/", "h1"))
}

func TestApplyRejectsSectionCollision(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	snap.ClientCount["avg_read_latency"] = model.NumberValue(7)

	stats := m.Apply(snap, testPrefix)

	// client_count is mapped first and keeps the name as an unlabeled series.
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 7.0, gaugeValue(t, reg, "cephfs_top_avg_read_latency"))
	_, err := reg.GaugeVec("cephfs_top_avg_read_latency", "", model.ClientLabelKeys())
	assert.True(t, errors.Is(err, registry.ErrShapeConflict))
}

func TestApplyRejectsRawNameCollision(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	rec := snap.Filesystems["cephfs_a"]["client.0"]
	rec["ocap.hits"] = model.NumberValue(1)
	rec["ocap_hits"] = model.NumberValue(2)

	stats := m.Apply(snap, testPrefix)

	// "ocap.hits" sorts first and keeps the series.
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1.0, labeledValue(t, reg, "cephfs_top_ocap_hits", "cephfs_a", "client.0", "/", "h1"))
}

func TestApplyProtectsTimestampSeries(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	snap := scenarioSnapshot("12")
	snap.ClientCount["timestamp"] = model.NumberValue(1)

	stats := m.Apply(snap, testPrefix)

	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, float64(snap.Timestamp.Unix()), gaugeValue(t, reg, model.TimestampSeriesName))
}

func TestApplyWithoutDateLeavesTimestamp(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	m.Apply(scenarioSnapshot("12"), testPrefix)
	before := gaugeValue(t, reg, model.TimestampSeriesName)

	snap := scenarioSnapshot("13")
	snap.Date = "not a date"
	snap.Timestamp = time.Time{}
	m.Apply(snap, testPrefix)

	assert.Equal(t, before, gaugeValue(t, reg, model.TimestampSeriesName))
	assert.Equal(t, 13.0, labeledValue(t, reg, "cephfs_top_avg_read_latency", "cephfs_a", "client.0", "/", "h1"))
}

func TestApplyNilSnapshot(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	before := reg.Names()
	assert.Equal(t, ApplyStats{}, m.Apply(nil, testPrefix))
	assert.Equal(t, before, reg.Names())
}

func TestApplyKeepsStaleClients(t *testing.T) {
	t.Parallel()
	m, reg := newTestMapper(t)

	m.Apply(scenarioSnapshot("12"), testPrefix)

	snap := scenarioSnapshot("20")
	snap.Filesystems["cephfs_a"] = map[string]model.PerfRecord{
		"client.9": client("/vol", "h9", map[string]model.Value{"avg_read_latency": model.TextValue("20")}),
	}
	m.Apply(snap, testPrefix)

	vec := labeledVec(t, reg, "cephfs_top_avg_read_latency")
	assert.Equal(t, 2, testutil.CollectAndCount(vec))
	assert.Equal(t, 12.0, testutil.ToFloat64(vec.WithLabelValues("cephfs_a", "client.0", "/", "h1")))
}
