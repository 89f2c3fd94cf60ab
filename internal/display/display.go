// Package display shows annotated frames and reports the user's stop request.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// keyEscape is the key code that stops the loop.
const keyEscape = 27

// Display presents one frame per loop iteration.
type Display interface {
	// Show presents frame and reports whether the user asked to stop.
	Show(frame *gocv.Mat) (stop bool, err error)
	Close() error
}

// Window shows frames in an OpenCV window; ESC stops the loop.
type Window struct {
	title  string
	mu     sync.Mutex
	window *gocv.Window
}

// NewWindow creates a Window. The native window is opened on the first Show,
// from the goroutine running the frame loop.
func NewWindow(title string) *Window {
	if title == "" {
		title = "Frame"
	}
	return &Window{title: title}
}

func (w *Window) Show(frame *gocv.Mat) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}

	w.window.IMShow(*frame)
	key := w.window.WaitKey(1) & 0xFF
	return key == keyEscape, nil
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

// Headless discards frames. The loop is stopped through its context.
type Headless struct {
	mu    sync.Mutex
	shown int
}

// NewHeadless creates a Headless display.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame *gocv.Mat) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
	return false, nil
}

// Shown returns how many frames were presented.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

func (h *Headless) Close() error {
	return nil
}
