package handlers

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"camstreamer/internal/logger"
	"camstreamer/internal/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers viewer connections with the hub so they
// receive broadcast frames. The handler blocks reading the socket until the
// viewer goes away.
func ViewWebsocketHandler(hub *websocket.Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					log.Info("Viewer closed connection")
				}
				return
			}
		}
	}
}
