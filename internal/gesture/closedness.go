package gesture

import (
	"image"
	"math"

	"github.com/ayusman/pinchmix/internal/detector"
)

// MaxRelativeDistance is the tip gap, in hand sizes, at which the pinch counts
// as fully open.
const MaxRelativeDistance = 1.5

// closeTolerance mirrors math.isclose(1, v) with the default relative tolerance.
const closeTolerance = 1e-9

// Closedness is the pinch metric for one frame.
type Closedness struct {
	IndexTip image.Point `json:"indexTip"`
	ThumbTip image.Point `json:"thumbTip"`

	Distance         float64 `json:"distance"` // pixels between the tips
	HandSize         float64 `json:"handSize"` // pixels from wrist to middle MCP
	RelativeDistance float64 `json:"relativeDistance"`
	PercentClosed    float64 `json:"percentClosed"` // 0 open, 100 closed
}

func validNormalized(v float64) bool {
	return v >= 0 && (v <= 1 || math.Abs(1-v) <= closeTolerance)
}

// ToPixel converts a normalized landmark to pixel coordinates.
// It returns false when the landmark lies outside the frame.
func ToPixel(p detector.Point3D, width, height int) (image.Point, bool) {
	if width <= 0 || height <= 0 {
		return image.Point{}, false
	}
	if !validNormalized(p.X) || !validNormalized(p.Y) {
		return image.Point{}, false
	}

	x := min(int(math.Floor(p.X*float64(width))), width-1)
	y := min(int(math.Floor(p.Y*float64(height))), height-1)
	return image.Point{X: x, Y: y}, true
}

// landmarkPixel converts one landmark, failing if it is missing or out of frame.
func landmarkPixel(hand *detector.HandLandmarks, index, width, height int) (image.Point, bool) {
	if !hand.Has(index) {
		return image.Point{}, false
	}
	return ToPixel(hand.Points[index], width, height)
}

func pixelDistance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// PercentClosed maps a relative tip distance to [0,100].
func PercentClosed(relativeDistance, maxRelative float64) float64 {
	if maxRelative <= 0 {
		maxRelative = MaxRelativeDistance
	}
	return clampPercent(100 - relativeDistance/maxRelative*100)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ComputeClosedness measures the thumb-index gap normalized by hand size so the
// result does not depend on how far the hand is from the camera.
// ok is false when any of the four landmarks involved is missing or out of frame.
func ComputeClosedness(hand *detector.HandLandmarks, width, height int, maxRelative float64) (Closedness, bool) {
	indexTip, ok := landmarkPixel(hand, detector.IndexTip, width, height)
	if !ok {
		return Closedness{}, false
	}
	thumbTip, ok := landmarkPixel(hand, detector.ThumbTip, width, height)
	if !ok {
		return Closedness{}, false
	}
	wrist, ok := landmarkPixel(hand, detector.Wrist, width, height)
	if !ok {
		return Closedness{}, false
	}
	middleMCP, ok := landmarkPixel(hand, detector.MiddleMCP, width, height)
	if !ok {
		return Closedness{}, false
	}

	c := Closedness{
		IndexTip: indexTip,
		ThumbTip: thumbTip,
		Distance: pixelDistance(indexTip, thumbTip),
		HandSize: pixelDistance(wrist, middleMCP),
	}

	if c.HandSize > 0 {
		c.RelativeDistance = c.Distance / c.HandSize
	}
	c.PercentClosed = PercentClosed(c.RelativeDistance, maxRelative)

	return c, true
}

// VolumeLevel converts a closedness percentage into a mixer level in [0,1]:
// a closed pinch is silence, an open one full volume.
func VolumeLevel(percentClosed float64) float64 {
	return 1.0 - clampPercent(percentClosed)/100.0
}
