package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"camstreamer/internal/camera"
	"camstreamer/internal/logger"
)

const (
	// streamBoundary is the fixed multipart boundary token.
	streamBoundary = "--frame"
	// streamTick is the per-viewer refresh interval (~30 Hz), independent of
	// the capture and persist rates.
	streamTick = 33 * time.Millisecond
)

// StreamHandler serves a continuous MJPEG multipart stream. Each connection
// is an independent consumer: it takes its own snapshots and writes to its
// own socket, so a stalled viewer affects nobody else. The loop ends when
// the client disconnects or the server shuts down.
func StreamHandler(cell *camera.Cell, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Connection", "close")
		w.WriteHeader(http.StatusOK)

		flusher, _ := w.(http.Flusher)
		log.Info("Stream viewer connected: %s", r.RemoteAddr)
		defer log.Info("Stream viewer disconnected: %s", r.RemoteAddr)

		ticker := time.NewTicker(streamTick)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}

			frame, _, ok := cell.Snapshot()
			if !ok {
				continue
			}
			if err := writePart(w, frame.JPEG); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// writePart writes one multipart frame: part headers, JPEG bytes, boundary.
func writePart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n%s\r\n", streamBoundary)
	return err
}
