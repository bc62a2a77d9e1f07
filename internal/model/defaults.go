package model

import "time"

// Shared defaults used by the exporter binary and its tests.
const (
	DefaultInterval      = 10 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultMetricPrefix  = "cephfs_top_"
	DefaultCephfsTopPath = "/usr/bin/cephfs-top"
	DefaultPort          = 8000
)

// TimestampSeriesName is the unprefixed series carrying the snapshot date.
const TimestampSeriesName = "cephfs_top_timestamp"

// Reserved identity fields of a performance record. They are projected into
// labels instead of being exported as measurements.
const (
	FieldMountRoot  = "mount_root"
	FieldMountPoint = "mount_point@host/addr"
)

// Label keys of every per-client series, in order.
const (
	LabelCephfsName = "cephfs_name"
	LabelClientID   = "client_id"
	LabelMountRoot  = "mount_root"
	LabelMountPoint = "mount_point_host_addr"
)

// ClientLabelKeys returns the ordered label-key set of per-client series.
func ClientLabelKeys() []string {
	return []string{LabelCephfsName, LabelClientID, LabelMountRoot, LabelMountPoint}
}
