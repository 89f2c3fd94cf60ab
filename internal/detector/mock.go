package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	queue [][]HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// Enqueue schedules per-call results; once drained, SetHands results are returned.
func (m *MockDetector) Enqueue(results ...[]HandLandmarks) {
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// curledFingers places middle, ring and pinky tips below their PIP joints.
func curledFingers(h *HandLandmarks) {
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.55}
	h.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.60}
	h.Points[MiddleTip] = Point3D{X: 0.47, Y: 0.64}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.62}
	h.Points[RingPIP] = Point3D{X: 0.45, Y: 0.57}
	h.Points[RingDIP] = Point3D{X: 0.43, Y: 0.62}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.66}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.64}
	h.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.60}
	h.Points[PinkyDIP] = Point3D{X: 0.38, Y: 0.64}
	h.Points[PinkyTip] = Point3D{X: 0.37, Y: 0.67}
}

// pinchBase returns a right hand with the wrist at (0.5, 0.875) and the middle
// MCP at (0.5, 0.625), i.e. a 120 px hand size in a 640x480 frame.
func pinchBase() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Count:      NumLandmarks,
	}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.875}
	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.625}
	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.80}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72}
	h.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.64}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.62}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.52}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45}

	curledFingers(&h)
	return h
}

// PinchLandmarks returns a closed pinch: thumb and index tips coincide and
// the other three fingers are curled down.
func PinchLandmarks() HandLandmarks {
	h := pinchBase()
	h.Points[IndexTip] = Point3D{X: 0.625, Y: 0.50}
	h.Points[ThumbTip] = Point3D{X: 0.625, Y: 0.50}
	return h
}

// OpenPinchLandmarks returns a pinch pose with the tips 180 px apart
// (relative distance 1.5, fully open) and the other fingers curled down.
func OpenPinchLandmarks() HandLandmarks {
	h := pinchBase()
	h.Points[IndexTip] = Point3D{X: 0.50, Y: 0.125}
	h.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.5}
	return h
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Count:      NumLandmarks,
	}

	// Wrist at base
	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	// Index finger extended upward
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Middle finger extended upward (slightly longer)
	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring finger extended upward
	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky finger extended upward
	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}
