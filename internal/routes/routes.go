package routes

import (
	"net/http"

	"camstreamer/internal/camera"
	"camstreamer/internal/config"
	"camstreamer/internal/handlers"
	"camstreamer/internal/logger"
	"camstreamer/internal/storage"
	"camstreamer/internal/websocket"
)

// SetupRoutes registers the streaming endpoints. Anything outside the known
// paths is a 404.
func SetupRoutes(cell *camera.Cell, loop *camera.Loop, sink *storage.Sink, hub *websocket.Hub, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/frame", handlers.FrameHandler(cell))
	mux.HandleFunc("/stream", handlers.StreamHandler(cell, log))
	mux.HandleFunc("/status", handlers.StatusHandler(loop, sink, cfg))
	mux.HandleFunc("/ws", handlers.ViewWebsocketHandler(hub, log))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return mux
}
