package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"camstreamer/internal/camera"
	"camstreamer/internal/config"
	"camstreamer/internal/logger"
	"camstreamer/internal/routes"
	"camstreamer/internal/storage"
	"camstreamer/internal/websocket"
)

// shutdownTimeout bounds how long open connections get to drain before the
// server is closed outright.
const shutdownTimeout = 5 * time.Second

// App owns start-up ordering and shutdown. The source must open before the
// capture loop starts, and the server only starts once the loop is running;
// on shutdown the loop stops and releases the source before the server goes
// down, so open /stream connections observe the close and exit naturally.
type App struct {
	config *config.Config
	logger *logger.Logger
	source *camera.Source
	cell   *camera.Cell
	sink   *storage.Sink
	loop   *camera.Loop
	hub    *websocket.Hub
}

// NewApp builds the service. It creates the output directory and opens the
// frame source; a source that cannot open is fatal and nothing else starts.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.FrameDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	log.Info("Frame output directory: %s", cfg.FrameDir)

	source, err := camera.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize camera: %w", err)
	}

	cell := camera.NewCell()
	sink := storage.NewSink(cfg.FrameDir, cfg.ReconcileEvery, log)
	loop := camera.NewLoop(source, cell, sink, cfg.PersistFPS, log)
	hub := websocket.NewHub(log)

	return &App{
		config: cfg,
		logger: log,
		source: source,
		cell:   cell,
		sink:   sink,
		loop:   loop,
		hub:    hub,
	}, nil
}

// Run starts the capture loop, the viewer hub, and the HTTP server, then
// blocks until ctx is cancelled or the server fails. It always logs the
// final frames-vs-files report on the way out.
func (a *App) Run(ctx context.Context) error {
	go a.loop.Run(ctx)
	go a.hub.Run(ctx)
	go a.hub.PushFrames(ctx, a.cell, 33*time.Millisecond)

	router := routes.SetupRoutes(a.cell, a.loop, a.sink, a.hub, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
		// Request contexts derive from ctx so open /stream loops observe
		// shutdown without waiting for a write failure.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	a.logBanner()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		// Stop order: capture loop first (releases the source), then the
		// listener.
		a.loop.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("Graceful shutdown incomplete: %v", err)
			server.Close()
		}
	}

	a.logger.Info("Final: %d frames captured, %d files on disk",
		a.sink.Count(), a.sink.FilesOnDisk())
	return runErr
}

func (a *App) logBanner() {
	a.logger.Info("HTTP server started on port %d", a.config.Port)
	a.logger.Info("MJPEG stream: http://localhost:%d/stream", a.config.Port)
	a.logger.Info("Status: http://localhost:%d/status", a.config.Port)
	a.logger.Info("Frame output: %s/", a.config.FrameDir)

	if cfgJSON, err := json.MarshalIndent(a.config, "", "  "); err == nil {
		a.logger.Info("Configuration: %s", cfgJSON)
	}
}
