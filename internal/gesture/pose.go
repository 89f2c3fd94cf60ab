// Package gesture turns hand landmarks into the pinch control signal:
// a pose gate and a scale-invariant closedness percentage.
package gesture

import "github.com/ayusman/pinchmix/internal/detector"

// PoseAssessment reports whether the hand is held in the control pose:
// middle, ring and pinky fingers curled down, leaving thumb and index free.
type PoseAssessment struct {
	Valid      bool `json:"valid"`
	MiddleDown bool `json:"middleDown"`
	RingDown   bool `json:"ringDown"`
	PinkyDown  bool `json:"pinkyDown"`
}

// fingerDown reports whether the tip sits lower in the image (larger y) than
// the base joint. ok is false when either landmark is missing.
func fingerDown(hand *detector.HandLandmarks, tip, base int) (down, ok bool) {
	if !hand.Has(tip) || !hand.Has(base) {
		return false, false
	}
	return hand.Points[tip].Y > hand.Points[base].Y, true
}

// AssessPose checks the three curled fingers against their PIP joints.
// A missing landmark fails the whole assessment.
func AssessPose(hand *detector.HandLandmarks) PoseAssessment {
	var pose PoseAssessment
	var ok [3]bool

	pose.MiddleDown, ok[0] = fingerDown(hand, detector.MiddleTip, detector.MiddlePIP)
	pose.RingDown, ok[1] = fingerDown(hand, detector.RingTip, detector.RingPIP)
	pose.PinkyDown, ok[2] = fingerDown(hand, detector.PinkyTip, detector.PinkyPIP)

	if !ok[0] || !ok[1] || !ok[2] {
		return PoseAssessment{}
	}

	pose.Valid = pose.MiddleDown && pose.RingDown && pose.PinkyDown
	return pose
}
