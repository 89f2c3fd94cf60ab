package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name     string
		deviceID int
	}{
		{name: "default device", deviceID: 0},
		{name: "device 1", deviceID: 1},
		{name: "device 2", deviceID: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.deviceID)

			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}

			if got := cam.FPS(); got != DefaultFPS {
				t.Errorf("FPS() = %d, want %d (default)", got, DefaultFPS)
			}

			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 10", fps: 10, wantFPS: 10},
		{name: "set to 15", fps: 15, wantFPS: 15},
		{name: "set to 0 should keep previous", fps: 0, wantFPS: 15},
		{name: "set to negative should keep previous", fps: -5, wantFPS: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}

func TestCamera_Open_MissingDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping device probe in short mode")
	}

	cam := NewCamera(97)
	err := cam.Open()
	if err == nil {
		cam.Close()
		t.Skip("device 97 unexpectedly exists")
	}
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("Open() error = %v, want ErrCameraUnavailable", err)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open after a failed Open()")
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		resized := Resize(mat, DefaultWidth, DefaultHeight)
		if resized.Cols() != DefaultWidth || resized.Rows() != DefaultHeight {
			t.Errorf("resized frame = %dx%d, want %dx%d", resized.Cols(), resized.Rows(), DefaultWidth, DefaultHeight)
		}
		resized.Close()
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name          string
		rows, cols    int
		width, height int
	}{
		{name: "downscale 720p", rows: 720, cols: 1280, width: 640, height: 480},
		{name: "upscale small", rows: 120, cols: 160, width: 640, height: 480},
		{name: "already working size", rows: 480, cols: 640, width: 640, height: 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gocv.NewMatWithSize(tt.rows, tt.cols, gocv.MatTypeCV8UC3)
			defer src.Close()

			dst := Resize(&src, tt.width, tt.height)
			defer dst.Close()

			if dst.Cols() != tt.width || dst.Rows() != tt.height {
				t.Errorf("Resize() = %dx%d, want %dx%d", dst.Cols(), dst.Rows(), tt.width, tt.height)
			}
		})
	}
}
