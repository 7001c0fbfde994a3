package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"camstreamer/internal/camera"
	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	cfg := config.Default()
	cfg.LogDirectory = t.TempDir()
	return logger.NewLogger(cfg)
}

func testFrame(payload string) *camera.Frame {
	return &camera.Frame{
		JPEG:      []byte(payload),
		Width:     2,
		Height:    2,
		Timestamp: time.Now(),
	}
}

func TestPersistSequentialNaming(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 50, newTestLogger(t))

	for i := 0; i < 3; i++ {
		if err := sink.Persist(testFrame("frame")); err != nil {
			t.Fatalf("persist %d failed: %v", i+1, err)
		}
	}

	expected := []string{"img_000001.jpg", "img_000002.jpg", "img_000003.jpg"}
	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected file %s: %v", name, err)
		}
	}

	if sink.Count() != 3 {
		t.Errorf("counter = %d, expected 3", sink.Count())
	}
	if sink.FilesOnDisk() != 3 {
		t.Errorf("files on disk = %d, expected 3", sink.FilesOnDisk())
	}
}

func TestPersistWritesFrameBytes(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 50, newTestLogger(t))

	if err := sink.Persist(testFrame("jpeg-payload")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "img_000001.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg-payload" {
		t.Errorf("file content = %q", data)
	}
}

// A failed write must not roll the counter back or stop subsequent writes:
// the gap in the sequence is the record of the failure.
func TestPersistFailureAdvancesCounter(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 50, newTestLogger(t))

	if err := sink.Persist(testFrame("one")); err != nil {
		t.Fatal(err)
	}

	// Make the next write fail by removing the directory.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := sink.Persist(testFrame("two")); err == nil {
		t.Fatal("expected write error with missing directory")
	}
	if sink.Count() != 2 {
		t.Errorf("counter after failed write = %d, expected 2", sink.Count())
	}

	// Restore the directory; the next frame takes the next number.
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := sink.Persist(testFrame("three")); err != nil {
		t.Fatalf("persist after recovery failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "img_000003.jpg")); err != nil {
		t.Errorf("expected img_000003.jpg after recovery: %v", err)
	}
	if sink.Count() != 3 {
		t.Errorf("counter = %d, expected 3", sink.Count())
	}
}

func TestFilesOnDiskIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 50, newTestLogger(t))

	if err := sink.Persist(testFrame("frame")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := sink.FilesOnDisk(); got != 1 {
		t.Errorf("files on disk = %d, expected 1 (foreign files ignored)", got)
	}
}

// External deletion shows up in FilesOnDisk but is never repaired.
func TestFilesOnDiskReflectsExternalDeletion(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 50, newTestLogger(t))

	for i := 0; i < 2; i++ {
		if err := sink.Persist(testFrame("frame")); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Remove(filepath.Join(dir, "img_000001.jpg")); err != nil {
		t.Fatal(err)
	}

	if got := sink.FilesOnDisk(); got != 1 {
		t.Errorf("files on disk = %d, expected 1 after external deletion", got)
	}
	if sink.Count() != 2 {
		t.Errorf("counter = %d, expected 2 (never decremented)", sink.Count())
	}
}
