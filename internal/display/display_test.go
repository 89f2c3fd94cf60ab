package display

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestHeadless(t *testing.T) {
	h := NewHeadless()
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		stop, err := h.Show(&frame)
		if err != nil {
			t.Fatalf("Show() error = %v", err)
		}
		if stop {
			t.Error("headless display should never request a stop")
		}
	}

	if h.Shown() != 3 {
		t.Errorf("Shown() = %d, want 3", h.Shown())
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewWindow_DefaultTitle(t *testing.T) {
	w := NewWindow("")
	if w.title != "Frame" {
		t.Errorf("title = %q, want Frame", w.title)
	}

	// Closing before any frame was shown must not touch the native window.
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDisplayInterface(t *testing.T) {
	var _ Display = NewWindow("test")
	var _ Display = NewHeadless()
}
