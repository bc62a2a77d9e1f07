package snapsource

import (
	"context"
	"os"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/timestamp"
)

// FileSource serves a captured cephfs-top dump. The file is re-read on every
// Fetch so a capture replaced on disk is picked up on the next cycle.
type FileSource struct {
	path  string
	dates *timestamp.Parser
}

// NewFileSource creates a source reading path.
func NewFileSource(path string, dates *timestamp.Parser) *FileSource {
	if dates == nil {
		dates = timestamp.NewParser()
	}
	return &FileSource{path: path, dates: dates}
}

func (s *FileSource) Name() string { return "jsondump" }

// Path returns the capture file location.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and decodes the capture file.
func (s *FileSource) Fetch(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err, "read %s", s.path)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable(err, "read %s", s.path)
	}
	snap, err := Decode(data, s.dates)
	if err != nil {
		return nil, unavailable(err, "parse %s", s.path)
	}
	return snap, nil
}
