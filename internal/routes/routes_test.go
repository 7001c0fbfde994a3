package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"camstreamer/internal/camera"
	"camstreamer/internal/config"
	"camstreamer/internal/logger"
	"camstreamer/internal/storage"
	"camstreamer/internal/websocket"
)

type stubReader struct{}

func (stubReader) Read() (*camera.Frame, error) { return nil, camera.ErrTransientRead }
func (stubReader) Reset() error                 { return nil }
func (stubReader) Close() error                 { return nil }

func newTestRouter(t *testing.T) (http.Handler, *camera.Cell) {
	t.Helper()
	cfg := config.Default()
	cfg.FrameDir = t.TempDir()
	cfg.LogDirectory = t.TempDir()
	log := logger.NewLogger(cfg)

	cell := camera.NewCell()
	sink := storage.NewSink(cfg.FrameDir, cfg.ReconcileEvery, log)
	loop := camera.NewLoop(stubReader{}, cell, sink, cfg.PersistFPS, log)
	hub := websocket.NewHub(log)

	return SetupRoutes(cell, loop, sink, hub, cfg, log), cell
}

func TestUnknownPathsReturn404(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/", "/frames", "/stream/extra", "/api/anything"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, expected 404", path, rec.Code)
		}
	}
}

func TestKnownEndpointsAreWired(t *testing.T) {
	router, cell := newTestRouter(t)
	cell.Publish(&camera.Frame{JPEG: []byte("jpeg")})

	tests := []struct {
		path     string
		expected int
	}{
		{"/frame", http.StatusOK},
		{"/status", http.StatusOK},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.expected {
			t.Errorf("GET %s = %d, expected %d", tt.path, rec.Code, tt.expected)
		}
	}
}
