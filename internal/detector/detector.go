package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// StaticImageMode disables tracking between frames when true.
	StaticImageMode bool

	// Python and Script override the interpreter and service script lookup.
	Python string
	Script string
}

// DefaultConfig returns the streaming single-hand configuration used for pinch control.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		StaticImageMode: false,
	}
}

// First returns the first detected hand, or nil when none was found.
// The controller follows a single hand even if the provider reports more.
func First(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
