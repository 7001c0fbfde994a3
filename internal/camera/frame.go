package camera

import "time"

// Frame is one captured image, already JPEG-encoded at the configured
// quality. A Frame is immutable after creation: the producer hands it to the
// cell and never touches the buffer again, so readers may share it freely.
type Frame struct {
	JPEG      []byte
	Width     int
	Height    int
	Timestamp time.Time
}
