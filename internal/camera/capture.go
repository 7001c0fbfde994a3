package camera

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"camstreamer/internal/logger"
)

// State describes the capture loop lifecycle.
type State int32

const (
	Starting State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Reader supplies frames to the capture loop. *Source implements it; tests
// substitute their own.
type Reader interface {
	Read() (*Frame, error)
	Reset() error
	Close() error
}

// Persister receives the subsampled stream of frames bound for disk.
type Persister interface {
	Persist(*Frame) error
}

const (
	// readRetryDelay is the back-off after a transient device read failure.
	readRetryDelay = 100 * time.Millisecond
	// loopYield keeps a fast source from saturating a core.
	loopYield = time.Millisecond
)

// Loop is the producer: it drives the source, publishes every captured frame
// into the cell, and persists frames at the configured disk rate. Disk I/O
// runs inside the loop iteration on purpose, so its latency is absorbed by
// the capture cadence rather than by viewers.
type Loop struct {
	source          Reader
	cell            *Cell
	sink            Persister
	persistInterval time.Duration
	logger          *logger.Logger

	state atomic.Int32
	done  chan struct{}
}

// NewLoop creates a capture loop persisting at persistFPS frames per second.
// The source must already be open.
func NewLoop(source Reader, cell *Cell, sink Persister, persistFPS int, log *logger.Logger) *Loop {
	l := &Loop{
		source:          source,
		cell:            cell,
		sink:            sink,
		persistInterval: time.Second / time.Duration(persistFPS),
		logger:          log,
		done:            make(chan struct{}),
	}
	l.state.Store(int32(Starting))
	return l
}

// State returns the current lifecycle state. Safe for concurrent use.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Running reports whether the loop is actively capturing.
func (l *Loop) Running() bool {
	return l.State() == Running
}

// Wait blocks until the loop has stopped and the source is released.
func (l *Loop) Wait() {
	<-l.done
}

// Run captures frames until ctx is cancelled. A single bad read never tears
// the loop down: end-of-stream loops the file, transient failures back off
// and retry, anything else is logged and skipped.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.state.Store(int32(Stopped))

	l.state.Store(int32(Running))
	l.logger.Info("Capture loop started. Persist interval: %s", l.persistInterval)
	l.logger.Info("Cleanup disabled - frames will accumulate")

	var lastWrite time.Time

	for {
		select {
		case <-ctx.Done():
			l.state.Store(int32(Stopping))
			if err := l.source.Close(); err != nil {
				l.logger.Error("Failed to release source: %v", err)
			}
			l.logger.Info("Camera capture stopped")
			return
		default:
		}

		frame, err := l.source.Read()
		switch {
		case errors.Is(err, ErrEndOfStream):
			l.logger.Info("Video ended, restarting...")
			if err := l.source.Reset(); err != nil {
				l.logger.Error("Failed to rewind video: %v", err)
			}
			continue
		case errors.Is(err, ErrTransientRead):
			l.logger.Warning("Failed to read frame from camera")
			time.Sleep(readRetryDelay)
			continue
		case err != nil:
			l.logger.Error("Frame read failed: %v", err)
			continue
		}

		// Every captured frame updates the live view, regardless of the
		// persist rate.
		l.cell.Publish(frame)

		// Elapsed-time governance rather than a frame-skip counter, so
		// jitter in actual capture throughput does not starve the disk.
		if now := time.Now(); now.Sub(lastWrite) >= l.persistInterval {
			// Write failures are logged by the sink and never stop capture.
			_ = l.sink.Persist(frame)
			lastWrite = now
		}

		time.Sleep(loopYield)
	}
}
