package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"camstreamer/internal/app"
	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Configuration file (JSON)")
	cameraFlag := flag.String("camera", "", "Camera index or video file path")
	portFlag := flag.Int("port", 0, "HTTP server port")
	frameDirFlag := flag.String("frame-dir", "", "Frame output directory")
	frameFPSFlag := flag.Int("frame-fps", 0, "Disk persist rate (frames per second)")
	widthFlag := flag.Int("width", 0, "Capture width")
	heightFlag := flag.Int("height", 0, "Capture height")
	fpsFlag := flag.Int("fps", 0, "Capture rate (frames per second)")
	qualityFlag := flag.Int("quality", 0, "JPEG quality (1-100)")
	flag.Parse()

	// Optional .env; absence is fine.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command-line overrides win over file and environment.
	if *cameraFlag != "" {
		cfg.CameraSource = config.SourceID(*cameraFlag)
	}
	if *portFlag > 0 {
		cfg.Port = *portFlag
	}
	if *frameDirFlag != "" {
		cfg.FrameDir = *frameDirFlag
	}
	if *frameFPSFlag > 0 {
		cfg.PersistFPS = *frameFPSFlag
	}
	if *widthFlag > 0 {
		cfg.Width = *widthFlag
	}
	if *heightFlag > 0 {
		cfg.Height = *heightFlag
	}
	if *fpsFlag > 0 {
		cfg.CaptureFPS = *fpsFlag
	}
	if *qualityFlag > 0 {
		cfg.JPEGQuality = *qualityFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg)

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to start: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		appLogger.Info("Received signal %s, shutting down...", sig)
		cancel()
	}()

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Service error: %v", err)
		os.Exit(1)
	}
}
