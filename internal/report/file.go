// Package report persists finalized pipeline reports. The orchestrator
// hands every report to a Sink; this package provides a JSON file sink, a
// Postgres sink backing the dashboard, and a fan-out over both.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressbot/pressbot/internal/pipeline"
	"github.com/pressbot/pressbot/pkg/errors"
)

// FileSink writes each report as a pretty-printed JSON file under a
// reports directory.
type FileSink struct {
	dir string
}

// NewFileSink creates the reports directory if needed
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewInternalError("failed to create reports directory").WithCause(err)
	}
	return &FileSink{dir: dir}, nil
}

// Persist writes the report to <dir>/run-<timestamp>-<id>.json
func (s *FileSink) Persist(_ context.Context, report *pipeline.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to serialize pipeline report").WithCause(err)
	}

	name := fmt.Sprintf("run-%s-%s.json", report.Timestamp.UTC().Format("20060102-150405"), report.RunID)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewInternalError("failed to write pipeline report").WithCause(err)
	}
	return nil
}

// MultiSink fans a report out to every sink, returning the first error
// after all sinks have been given the report.
type MultiSink struct {
	sinks []pipeline.Sink
}

// NewMultiSink creates a fan-out sink
func NewMultiSink(sinks ...pipeline.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Persist hands the report to every sink
func (s *MultiSink) Persist(ctx context.Context, report *pipeline.Report) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Persist(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
