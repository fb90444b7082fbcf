package camera

import (
	"errors"
	"fmt"
	"sync"

	"camdetect/internal/config"
	"camdetect/internal/logger"
	"camdetect/internal/service/detection"

	"gocv.io/x/gocv"
)

var (
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrRead              = errors.New("camera read failed")
	ErrNotOpen           = errors.New("camera not open")
)

// Frame owns one captured image.
type Frame struct {
	mat gocv.Mat
}

// Mat exposes the underlying image to the detector.
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// Close releases the image memory.
func (f *Frame) Close() error {
	return f.mat.Close()
}

// Source captures frames from a local video device.
// Only one capture handle is held at a time.
type Source struct {
	device  int
	capture *gocv.VideoCapture
	mu      sync.Mutex
	logger  *logger.Logger
}

// NewSource creates a closed source for the configured device.
func NewSource(cfg *config.Config, logger *logger.Logger) *Source {
	return &Source{
		device: cfg.CameraDevice,
		logger: logger,
	}
}

// Open acquires the device. Opening an already open source is a no-op.
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %w", ErrDeviceUnavailable, s.device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", ErrDeviceUnavailable, s.device)
	}

	s.capture = capture
	s.logger.Info("Camera %d opened", s.device)
	return nil
}

// Read grabs the next frame. The caller must close it.
func (s *Source) Read() (detection.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: device %d", ErrRead, s.device)
	}
	return &Frame{mat: mat}, nil
}

// Close releases the device. It is safe to call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.logger.Info("Camera %d released", s.device)
	return err
}
