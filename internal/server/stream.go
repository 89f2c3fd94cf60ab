package server

import (
	"fmt"
	"net/http"
	"sync"

	"gocv.io/x/gocv"
)

// FrameHub keeps the most recent annotated frame as JPEG for MJPEG viewers.
type FrameHub struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	changed chan struct{}
	viewers int
}

// NewFrameHub creates an empty FrameHub.
func NewFrameHub() *FrameHub {
	return &FrameHub{changed: make(chan struct{})}
}

// Viewers returns the number of connected stream clients.
func (h *FrameHub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

// PublishFrame encodes frame as JPEG and wakes waiting viewers.
// Nothing is encoded while nobody is watching.
func (h *FrameHub) PublishFrame(frame *gocv.Mat) error {
	if h.Viewers() == 0 || frame == nil || frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	h.publishJPEG(data)
	return nil
}

func (h *FrameHub) publishJPEG(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.jpeg = data
	h.seq++
	close(h.changed)
	h.changed = make(chan struct{})
}

// latest returns the current frame, its sequence and a channel closed on the next publish.
func (h *FrameHub) latest() ([]byte, uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jpeg, h.seq, h.changed
}

func (h *FrameHub) addViewer(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewers += delta
}

// StreamHandler serves annotated frames as MJPEG.
type StreamHandler struct {
	hub *FrameHub
}

// NewStreamHandler creates a new StreamHandler over hub.
func NewStreamHandler(hub *FrameHub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.hub.addViewer(1)
	defer h.hub.addViewer(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var sent uint64
	for {
		data, seq, changed := h.hub.latest()

		if seq != sent && len(data) > 0 {
			if err := writePart(w, data); err != nil {
				return
			}
			sent = seq
		}

		select {
		case <-r.Context().Done():
			return
		case <-changed:
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
