package camera

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

// ErrNoDevice is returned when no camera device can be opened at startup.
// It is the only fatal capture error.
var ErrNoDevice = errors.New("no camera device available")

// ErrEndOfStream signals an exhausted video file. The caller seeks back to
// the first frame and keeps going; a looping file never ends.
var ErrEndOfStream = errors.New("end of stream")

// ErrTransientRead signals a single failed device read (a dropped USB frame
// and the like). The caller backs off briefly and retries; it is never fatal.
var ErrTransientRead = errors.New("transient read failure")

// maxProbeIndex bounds the device index probe when the configured index
// fails to open.
const maxProbeIndex = 5

// Source reads frames from a camera device or a looping video file and
// encodes them as JPEG. It is owned by the capture loop; none of its methods
// are safe for concurrent use.
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	isFile  bool
	quality int
	logger  *logger.Logger
}

// Open opens the source described by cfg. For a device index it tries the
// default backend first, then probes indices 0..4 and records the winning
// index back into cfg. For a file path it opens directly. Device property
// application is best-effort: failures are logged, never fatal.
func Open(cfg *config.Config, log *logger.Logger) (*Source, error) {
	s := &Source{
		mat:     gocv.NewMat(),
		quality: cfg.JPEGQuality,
		logger:  log,
	}

	if index, isDevice := cfg.CameraSource.DeviceIndex(); isDevice {
		if err := s.openDevice(index, cfg); err != nil {
			s.mat.Close()
			return nil, err
		}
		return s, nil
	}

	path := string(cfg.CameraSource)
	log.Info("Using video file: %s", path)
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		s.mat.Close()
		return nil, fmt.Errorf("failed to open video file %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		s.mat.Close()
		return nil, fmt.Errorf("failed to open video file %s", path)
	}
	s.capture = capture
	s.isFile = true
	return s, nil
}

// openDevice tries the configured index, then probes 0..4.
func (s *Source) openDevice(index int, cfg *config.Config) error {
	s.logger.Info("Trying to open camera device: %d", index)

	capture, err := gocv.OpenVideoCapture(index)
	if err == nil && capture.IsOpened() {
		s.logger.Info("Camera opened with default backend")
		s.capture = capture
		s.configureDevice(cfg)
		return nil
	}
	if capture != nil {
		capture.Close()
	}

	for idx := 0; idx < maxProbeIndex; idx++ {
		if idx == index {
			continue
		}
		s.logger.Info("Trying camera index %d", idx)
		capture, err := gocv.OpenVideoCapture(idx)
		if err != nil {
			continue
		}
		if !capture.IsOpened() {
			capture.Close()
			continue
		}
		s.logger.Info("Camera opened at index %d", idx)
		cfg.CameraSource = config.SourceID(fmt.Sprintf("%d", idx))
		s.capture = capture
		s.configureDevice(cfg)
		return nil
	}

	return ErrNoDevice
}

// configureDevice applies the requested properties and reads back what the
// device actually negotiated. Property application failing is non-fatal:
// the device keeps whatever it provides.
func (s *Source) configureDevice(cfg *config.Config) {
	requested := []struct {
		prop  gocv.VideoCaptureProperties
		value float64
		name  string
	}{
		{gocv.VideoCaptureFrameWidth, float64(cfg.Width), "width"},
		{gocv.VideoCaptureFrameHeight, float64(cfg.Height), "height"},
		{gocv.VideoCaptureFPS, float64(cfg.CaptureFPS), "fps"},
	}

	for _, p := range requested {
		s.capture.Set(p.prop, p.value)
		if actual := s.capture.Get(p.prop); actual != p.value {
			s.logger.Warning("Camera did not accept %s=%v, using %v", p.name, p.value, actual)
		}
	}

	actualWidth := int(s.capture.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(s.capture.Get(gocv.VideoCaptureFrameHeight))
	actualFPS := int(s.capture.Get(gocv.VideoCaptureFPS))
	if actualFPS == 0 {
		actualFPS = cfg.CaptureFPS
	}
	s.logger.Info("Camera initialized: %dx%d@%dfps", actualWidth, actualHeight, actualFPS)

	// Test capture; the loop recovers from bad reads on its own.
	if ok := s.capture.Read(&s.mat); ok && !s.mat.Empty() {
		s.logger.Info("Test frame captured successfully")
	} else {
		s.logger.Warning("Could not capture test frame, continuing anyway")
	}
}

// Read grabs the next frame and returns it JPEG-encoded. A failed read on a
// file source returns ErrEndOfStream; on a device it returns ErrTransientRead.
func (s *Source) Read() (*Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		if s.isFile {
			return nil, ErrEndOfStream
		}
		return nil, ErrTransientRead
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.mat,
		[]int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	defer buf.Close()

	// Copy out of the native buffer so the frame outlives it.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return &Frame{
		JPEG:      data,
		Width:     s.mat.Cols(),
		Height:    s.mat.Rows(),
		Timestamp: time.Now(),
	}, nil
}

// Reset seeks a file source back to its first frame. It is a no-op for
// devices.
func (s *Source) Reset() error {
	if s.isFile {
		s.capture.Set(gocv.VideoCapturePosFrames, 0)
	}
	return nil
}

// Close releases the capture handle.
func (s *Source) Close() error {
	s.mat.Close()
	if s.capture != nil {
		return s.capture.Close()
	}
	return nil
}
