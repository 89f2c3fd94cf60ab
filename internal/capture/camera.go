// Package capture reads frames from a camera device using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Working resolution for every frame fed to the pipeline.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrCameraUnavailable is returned when the device cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrReadFailed is returned when an open device stops producing frames.
	ErrReadFailed = errors.New("failed to read frame from camera")
)

// Camera defines the interface for camera capture implementations.
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
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a Camera for the given device index.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open opens the device and requests the working resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, c.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", ErrCameraUnavailable, c.deviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
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
		return nil, ErrReadFailed
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: empty frame", ErrReadFailed)
	}

	return &mat, nil
}

// SetFPS sets the requested capture rate.
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

// Resize returns a copy of frame scaled to width x height.
// Devices ignore the requested resolution often enough that every frame
// goes through here. The caller owns the returned Mat.
func Resize(frame *gocv.Mat, width, height int) *gocv.Mat {
	if frame.Cols() == width && frame.Rows() == height {
		clone := frame.Clone()
		return &clone
	}

	dst := gocv.NewMat()
	gocv.Resize(*frame, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return &dst
}
