package model

import "context"

// SnapshotSource produces one parsed snapshot per call. An error means the
// snapshot is unavailable for this cycle.
type SnapshotSource interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
}
