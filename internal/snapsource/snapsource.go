// Package snapsource acquires cephfs-top snapshots, either by running the
// cephfs-top utility or by reading a previously captured dump.
package snapsource

import (
	"github.com/cockroachdb/errors"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
)

var (
	// ErrUnavailable marks every acquisition failure: the cycle that saw it
	// must leave the registry untouched.
	ErrUnavailable = errors.New("snapshot unavailable")
	// ErrMalformed is returned by Decode for payloads missing required sections.
	ErrMalformed = errors.New("malformed snapshot")
)

// Type assertions.
var (
	_ model.SnapshotSource = (*CommandSource)(nil)
	_ model.SnapshotSource = (*FileSource)(nil)
)

func unavailable(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrUnavailable)
}
