package gesture

import (
	"testing"

	"github.com/ayusman/pinchmix/internal/detector"
)

func TestAssessPose(t *testing.T) {
	tests := []struct {
		name  string
		hand  func() detector.HandLandmarks
		valid bool
	}{
		{
			name:  "pinch pose is valid",
			hand:  detector.PinchLandmarks,
			valid: true,
		},
		{
			name:  "open pinch pose is valid",
			hand:  detector.OpenPinchLandmarks,
			valid: true,
		},
		{
			name:  "open palm is invalid",
			hand:  detector.OpenPalmLandmarks,
			valid: false,
		},
		{
			name: "middle finger raised",
			hand: func() detector.HandLandmarks {
				h := detector.PinchLandmarks()
				h.Points[detector.MiddleTip].Y = h.Points[detector.MiddlePIP].Y - 0.1
				return h
			},
			valid: false,
		},
		{
			name: "ring finger raised",
			hand: func() detector.HandLandmarks {
				h := detector.PinchLandmarks()
				h.Points[detector.RingTip].Y = h.Points[detector.RingPIP].Y - 0.1
				return h
			},
			valid: false,
		},
		{
			name: "pinky finger raised",
			hand: func() detector.HandLandmarks {
				h := detector.PinchLandmarks()
				h.Points[detector.PinkyTip].Y = h.Points[detector.PinkyPIP].Y - 0.1
				return h
			},
			valid: false,
		},
		{
			name: "tip level with base is not down",
			hand: func() detector.HandLandmarks {
				h := detector.PinchLandmarks()
				h.Points[detector.PinkyTip].Y = h.Points[detector.PinkyPIP].Y
				return h
			},
			valid: false,
		},
		{
			name: "missing pinky landmarks fail closed",
			hand: func() detector.HandLandmarks {
				h := detector.PinchLandmarks()
				h.Count = detector.PinkyPIP
				return h
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := tt.hand()
			pose := AssessPose(&hand)
			if pose.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (pose %+v)", pose.Valid, tt.valid, pose)
			}
		})
	}
}

func TestAssessPose_ReportsEachFinger(t *testing.T) {
	hand := detector.PinchLandmarks()
	hand.Points[detector.RingTip].Y = hand.Points[detector.RingPIP].Y - 0.1

	pose := AssessPose(&hand)

	if !pose.MiddleDown {
		t.Error("expected middle finger down")
	}
	if pose.RingDown {
		t.Error("expected ring finger up")
	}
	if !pose.PinkyDown {
		t.Error("expected pinky finger down")
	}
}

func TestAssessPose_Nil(t *testing.T) {
	if AssessPose(nil).Valid {
		t.Error("nil hand should never be a valid pose")
	}
}
