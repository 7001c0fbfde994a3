package handlers

import (
	"net/http"
	"strconv"

	"camstreamer/internal/camera"
)

// FrameHandler serves the most recent frame as a single JPEG, or 503 when
// nothing has been captured yet.
func FrameHandler(cell *camera.Cell) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame, _, ok := cell.Snapshot()
		if !ok {
			http.Error(w, "No frame available", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(frame.JPEG)))
		w.WriteHeader(http.StatusOK)
		w.Write(frame.JPEG)
	}
}
