// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultFPS is the capture rate before the tracker adjusts it.
const DefaultFPS = 5

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoDevice is returned when the capture device cannot be opened.
	ErrNoDevice = errors.New("camera device unavailable")
)

// Resolution is a capture frame size.
type Resolution struct {
	Width  int
	Height int
}

// Deployment resolutions.
var (
	// ResolutionCompact keeps inference cheap on the embedded page.
	ResolutionCompact = Resolution{Width: 320, Height: 240}
	// ResolutionHD is used by the standalone tracking page.
	ResolutionHD = Resolution{Width: 1280, Height: 720}
)

// ParseResolution accepts "compact", "hd" or an explicit "WIDTHxHEIGHT".
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compact":
		return ResolutionCompact, nil
	case "hd":
		return ResolutionHD, nil
	}

	var r Resolution
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &r.Width, &r.Height); err != nil || r.Width <= 0 || r.Height <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q", s)
	}
	return r, nil
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Camera defines the interface for camera capture implementations.
// It is a scoped resource: every successful Open must be paired with Close.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID   int
	resolution Resolution
	capture    *gocv.VideoCapture
	mu         sync.Mutex
	running    bool
	fps        int
}

// NewCamera creates a new Camera for the given device at the given resolution.
func NewCamera(deviceID int, resolution Resolution) Camera {
	return &cameraImpl{
		deviceID:   deviceID,
		resolution: resolution,
		fps:        DefaultFPS,
	}
}

// Open opens the camera for capturing frames at the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrNoDevice, c.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", ErrNoDevice, c.deviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.resolution.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.resolution.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
