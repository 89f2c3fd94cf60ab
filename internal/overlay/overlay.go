// Package overlay builds the on-frame annotations (status, pinch metrics,
// session volumes, hand skeleton) and renders them with GoCV.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/pinchmix/internal/detector"
	"github.com/ayusman/pinchmix/internal/gesture"
	"gocv.io/x/gocv"
)

// Kind selects how an Annotation is drawn.
type Kind int

const (
	KindText Kind = iota
	KindLine
	KindPoint
)

// Colors used by the overlay.
var (
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	Bone   = color.RGBA{R: 224, G: 224, B: 224, A: 0}
)

const (
	textScale     = 0.7
	textThickness = 2
	lineThickness = 2
	pointRadius   = 2

	left        = 10
	lineSpacing = 30
)

// Annotation is one drawing primitive.
type Annotation struct {
	Kind      Kind
	Text      string
	At        image.Point // text origin, line start or point center
	To        image.Point // line end
	Color     color.RGBA
	Scale     float64
	Thickness int
	Radius    int
}

// SessionLine is one session row in the overlay.
type SessionLine struct {
	Name    string
	Volume  float64 // percent
	Applied bool    // the volume was just written this frame
	Failed  bool    // the write failed; the row is left blank
}

// FrameView is everything the overlay needs to know about one frame.
type FrameView struct {
	Width, Height int

	Hand       *detector.HandLandmarks
	Pose       gesture.PoseAssessment
	Closedness *gesture.Closedness // nil when the metric could not be computed
	Paused     bool

	Sessions []SessionLine
}

// Build produces the annotations for view. It does not touch any image.
func Build(view FrameView) []Annotation {
	var anns []Annotation

	if view.Hand == nil {
		anns = append(anns, text("Apps playing audio:", 60, Green))
		anns = append(anns, sessionRows(view.Sessions, 90, false)...)
		return anns
	}

	anns = append(anns, skeleton(view.Hand, view.Width, view.Height)...)

	switch {
	case view.Paused:
		anns = append(anns, text("Volume Control: Paused", lineSpacing, Yellow))
	case view.Pose.Valid:
		anns = append(anns, text("Volume Control: Active", lineSpacing, Green))
	default:
		anns = append(anns, text("Volume Control: Inactive", lineSpacing, Yellow))
	}

	if from, to, ok := pinchLine(view.Hand, view.Width, view.Height); ok {
		anns = append(anns, Annotation{
			Kind:      KindLine,
			At:        from,
			To:        to,
			Color:     Green,
			Thickness: lineThickness,
		})
	}

	if c := view.Closedness; c != nil {
		anns = append(anns,
			text(fmt.Sprintf("Rel Distance: %.2f", c.RelativeDistance), 60, Green),
			text(fmt.Sprintf("Closed: %.1f%%", c.PercentClosed), 90, Green),
		)
	}

	anns = append(anns, sessionRows(view.Sessions, 120, true)...)
	return anns
}

// Draw renders annotations onto frame in order.
func Draw(frame *gocv.Mat, anns []Annotation) {
	for _, a := range anns {
		switch a.Kind {
		case KindText:
			gocv.PutText(frame, a.Text, a.At, gocv.FontHersheySimplex, a.Scale, a.Color, a.Thickness)
		case KindLine:
			gocv.Line(frame, a.At, a.To, a.Color, a.Thickness)
		case KindPoint:
			gocv.Circle(frame, a.At, a.Radius, a.Color, a.Thickness)
		}
	}
}

func text(s string, y int, c color.RGBA) Annotation {
	return Annotation{
		Kind:      KindText,
		Text:      s,
		At:        image.Pt(left, y),
		Color:     c,
		Scale:     textScale,
		Thickness: textThickness,
	}
}

// sessionRows lays out one row per session starting at y. With a hand in view,
// rows that were not written this frame are shown in yellow as read-only.
func sessionRows(lines []SessionLine, y int, handVisible bool) []Annotation {
	anns := make([]Annotation, 0, len(lines))
	for i, s := range lines {
		if s.Failed {
			continue
		}
		c := Green
		if handVisible && !s.Applied {
			c = Yellow
		}
		anns = append(anns, text(fmt.Sprintf("%s: %.1f%%", s.Name, s.Volume), y+i*lineSpacing, c))
	}
	return anns
}

func pinchLine(hand *detector.HandLandmarks, width, height int) (image.Point, image.Point, bool) {
	if !hand.Has(detector.IndexTip) || !hand.Has(detector.ThumbTip) {
		return image.Point{}, image.Point{}, false
	}
	index, ok := gesture.ToPixel(hand.Points[detector.IndexTip], width, height)
	if !ok {
		return image.Point{}, image.Point{}, false
	}
	thumb, ok := gesture.ToPixel(hand.Points[detector.ThumbTip], width, height)
	if !ok {
		return image.Point{}, image.Point{}, false
	}
	return index, thumb, true
}

// skeleton draws the hand connections and landmarks that fall inside the frame.
func skeleton(hand *detector.HandLandmarks, width, height int) []Annotation {
	var pixels [detector.NumLandmarks]image.Point
	var visible [detector.NumLandmarks]bool
	for i := 0; i < detector.NumLandmarks; i++ {
		if hand.Has(i) {
			pixels[i], visible[i] = gesture.ToPixel(hand.Points[i], width, height)
		}
	}

	var anns []Annotation
	for _, conn := range detector.Connections {
		a, b := conn[0], conn[1]
		if !visible[a] || !visible[b] {
			continue
		}
		anns = append(anns, Annotation{
			Kind:      KindLine,
			At:        pixels[a],
			To:        pixels[b],
			Color:     Bone,
			Thickness: lineThickness,
		})
	}
	for i, ok := range visible {
		if !ok {
			continue
		}
		anns = append(anns, Annotation{
			Kind:      KindPoint,
			At:        pixels[i],
			Color:     Red,
			Thickness: lineThickness,
			Radius:    pointRadius,
		})
	}
	return anns
}
