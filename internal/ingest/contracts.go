package ingest

import "github.com/prometheus/client_golang/prometheus"

// SeriesRegistry is the narrow registry contract the mapper needs. Both
// calls are get-or-create and must be safe for concurrent use with scrapes.
type SeriesRegistry interface {
	Gauge(name, help string) (prometheus.Gauge, error)
	GaugeVec(name, help string, labelKeys []string) (*prometheus.GaugeVec, error)
}

const (
	globalHelpFormat = "%s metric refer to the global client_count section of cephfs-top utility."
	clientHelpFormat = "%s metric refer to cephfs-top for more information."
	timestampHelp    = "Timestamp of the data"
)
