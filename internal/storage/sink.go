// Package storage writes captured frames to disk as sequentially numbered
// JPEG files. Files are never pruned: accumulation is a deliberate product
// decision, not an oversight. Retention is somebody else's job.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"camstreamer/internal/camera"
	"camstreamer/internal/logger"
)

// filePattern matches the files this sink writes.
const filePattern = "img_*.jpg"

// Sink persists frames as img_NNNNNN.jpg in the output directory. The frame
// counter only ever moves forward: a failed write does not roll it back, so
// a gap in the file sequence records the failure.
type Sink struct {
	dir            string
	reconcileEvery uint64
	counter        atomic.Uint64
	logger         *logger.Logger
}

// NewSink creates a sink writing into dir. Every reconcileEvery successful
// writes it re-counts the files actually on disk and logs the result next to
// the in-memory counter, surfacing silent divergence such as external
// deletion. Nothing is repaired.
func NewSink(dir string, reconcileEvery int, log *logger.Logger) *Sink {
	return &Sink{
		dir:            dir,
		reconcileEvery: uint64(reconcileEvery),
		logger:         log,
	}
}

// Persist writes the frame as the next numbered JPEG file. Errors are logged
// and returned; the caller is expected to carry on regardless.
func (s *Sink) Persist(frame *camera.Frame) error {
	n := s.counter.Add(1)
	path := filepath.Join(s.dir, fmt.Sprintf("img_%06d.jpg", n))

	if err := os.WriteFile(path, frame.JPEG, 0644); err != nil {
		s.logger.Error("Failed to save frame %d: %v", n, err)
		return fmt.Errorf("save frame %d: %w", n, err)
	}

	if n == 1 {
		s.logger.Info("First frame saved: %s", path)
	} else if s.reconcileEvery > 0 && n%s.reconcileEvery == 0 {
		s.logger.Info("Frame %d saved. Total files on disk: %d", n, s.FilesOnDisk())
	}
	return nil
}

// Count returns the number of persist attempts so far.
func (s *Sink) Count() uint64 {
	return s.counter.Load()
}

// FilesOnDisk counts the sink's files currently present in the output
// directory with a fresh listing.
func (s *Sink) FilesOnDisk() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePattern))
	if err != nil {
		s.logger.Error("Failed to list frame directory: %v", err)
		return 0
	}
	return len(matches)
}

// Dir returns the output directory path.
func (s *Sink) Dir() string {
	return s.dir
}
