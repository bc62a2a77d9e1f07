package model

import "time"

// PerfRecord maps raw field names to raw values for one (filesystem, client) pair.
type PerfRecord map[string]Value

// Identity returns the mount root and mount-point descriptor of the record.
// ok is false when either field is absent or not text.
func (r PerfRecord) Identity() (mountRoot, mountPoint string, ok bool) {
	root, hasRoot := r[FieldMountRoot]
	point, hasPoint := r[FieldMountPoint]
	if !hasRoot || !hasPoint || root.Kind != KindText || point.Kind != KindText {
		return "", "", false
	}
	return root.Text, point.Text, true
}

// IsIdentityField reports whether name is one of the reserved identity fields.
// The comparison is exact: fields that merely contain a reserved name are
// regular measurements.
func IsIdentityField(name string) bool {
	return name == FieldMountRoot || name == FieldMountPoint
}

// Snapshot is one parsed cephfs-top dump.
type Snapshot struct {
	// Date is the raw "date" field; empty when absent.
	Date string
	// Timestamp is the parsed Date. Zero when Date is absent or unrecognized.
	Timestamp time.Time

	ClientCount map[string]Value
	// Filesystems maps filesystem name -> client id -> record.
	Filesystems map[string]map[string]PerfRecord

	// Skipped counts filesystem or client entries dropped while decoding.
	Skipped int
}
