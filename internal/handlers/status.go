package handlers

import (
	"encoding/json"
	"net/http"

	"camstreamer/internal/camera"
	"camstreamer/internal/config"
	"camstreamer/internal/storage"
)

// Status is the /status response document. FrameCount is the persistence
// counter, not the publish count: the two differ whenever the persist rate
// is below the capture rate.
type Status struct {
	Running     bool           `json:"running"`
	FrameCount  uint64         `json:"frame_count"`
	FilesOnDisk int            `json:"files_on_disk"`
	FrameDir    string         `json:"frame_dir"`
	Config      *config.Config `json:"config"`
}

// StatusHandler reports the service state as JSON.
func StatusHandler(loop *camera.Loop, sink *storage.Sink, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Running:     loop.Running(),
			FrameCount:  sink.Count(),
			FilesOnDisk: sink.FilesOnDisk(),
			FrameDir:    sink.Dir(),
			Config:      cfg,
		}

		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(status)
	}
}
