// Package registry holds the process-wide set of exported series. Series are
// created on first sight and never removed; each name is bound to one shape
// (unlabeled, or labeled with a fixed ordered key set) for the lifetime of
// the registry.
package registry

import (
	"slices"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	// ErrShapeConflict is returned when a name already bound to one shape is
	// requested with another.
	ErrShapeConflict = errors.New("series shape conflict")
	// ErrInvalidName is returned for names the exposition format cannot carry
	// or that the underlying registry refused.
	ErrInvalidName = errors.New("invalid series name")
)

type series struct {
	labelKeys []string // nil for unlabeled series
	gauge     prometheus.Gauge
	vec       *prometheus.GaugeVec
}

func (s *series) collector() prometheus.Collector {
	if s.vec != nil {
		return s.vec
	}
	return s.gauge
}

func (s *series) shape() string {
	if s.labelKeys == nil {
		return "unlabeled"
	}
	return "labeled"
}

// Registry maps sanitized series names to live gauges.
type Registry struct {
	mu        sync.RWMutex
	prom      *prometheus.Registry
	series    map[string]*series
	rejected  map[string]error
	conflicts map[string]struct{} // names whose shape conflict was already logged
	log       *zap.Logger
}

// New creates an empty registry backed by its own prometheus.Registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		prom:      prometheus.NewRegistry(),
		series:    make(map[string]*series),
		rejected:  make(map[string]error),
		conflicts: make(map[string]struct{}),
		log:       log,
	}
}

// Gatherer exposes the registry to the publication layer.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.prom }

// MustRegister registers collectors that are not discovered series, such as
// the exporter's own instrumentation. Their names become unavailable to
// discovered series.
func (r *Registry) MustRegister(cs ...prometheus.Collector) { r.prom.MustRegister(cs...) }

// Gauge returns the unlabeled series called name, creating it on first use.
func (r *Registry) Gauge(name, help string) (prometheus.Gauge, error) {
	s, err := r.getOrCreate(name, help, nil)
	if err != nil {
		return nil, err
	}
	return s.gauge, nil
}

// GaugeVec returns the labeled series called name, creating it on first use.
// The first call fixes labelKeys for the name.
func (r *Registry) GaugeVec(name, help string, labelKeys []string) (*prometheus.GaugeVec, error) {
	if len(labelKeys) == 0 {
		return nil, errors.Newf("series %q: labeled series needs at least one label key", name)
	}
	s, err := r.getOrCreate(name, help, labelKeys)
	if err != nil {
		return nil, err
	}
	return s.vec, nil
}

// Names returns the registered series names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.series))
	for name := range r.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered series.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.series)
}

func (r *Registry) getOrCreate(name, help string, labelKeys []string) (*series, error) {
	r.mu.RLock()
	s, ok := r.series[name]
	rejectErr := r.rejected[name]
	r.mu.RUnlock()
	if ok {
		return r.checkShape(name, s, labelKeys)
	}
	if rejectErr != nil {
		return nil, rejectErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.series[name]; ok {
		return r.checkShapeLocked(name, s, labelKeys)
	}
	if err := r.rejected[name]; err != nil {
		return nil, err
	}

	s, err := r.create(name, help, labelKeys)
	if err != nil {
		r.rejected[name] = err
		r.log.Warn("series rejected", zap.String("series", name), zap.Error(err))
		return nil, err
	}
	r.series[name] = s
	r.log.Debug("new series registered",
		zap.String("series", name),
		zap.String("shape", s.shape()),
	)
	return s, nil
}

func (r *Registry) create(name, help string, labelKeys []string) (*series, error) {
	if !validName(name) {
		return nil, errors.Wrapf(ErrInvalidName, "%q", name)
	}

	var s *series
	if labelKeys == nil {
		s = &series{gauge: prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})}
	} else {
		s = &series{
			labelKeys: slices.Clone(labelKeys),
			vec:       prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelKeys),
		}
	}
	if err := r.prom.Register(s.collector()); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "register %q", name), ErrInvalidName)
	}
	return s, nil
}

func (r *Registry) checkShape(name string, s *series, labelKeys []string) (*series, error) {
	if slices.Equal(s.labelKeys, labelKeys) {
		return s, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkShapeLocked(name, s, labelKeys)
}

func (r *Registry) checkShapeLocked(name string, s *series, labelKeys []string) (*series, error) {
	if slices.Equal(s.labelKeys, labelKeys) {
		return s, nil
	}
	err := errors.Wrapf(ErrShapeConflict, "series %q is %s with keys %v, requested keys %v",
		name, s.shape(), s.labelKeys, labelKeys)
	if _, reported := r.conflicts[name]; !reported {
		r.conflicts[name] = struct{}{}
		r.log.Warn("series shape conflict", zap.String("series", name), zap.Error(err))
	}
	return nil, err
}

// validName accepts the classic exposition charset: [a-zA-Z_:][a-zA-Z0-9_:]*.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || c == ':':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
