package server

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// streamInterval paces preview frames (~15 FPS).
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the frames hand control captures as an MJPEG preview.
// It does not read the camera itself; frames arrive through Publish.
type StreamHandler struct {
	mu      sync.Mutex
	frame   []byte
	seq     uint64
	viewers int
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{}
}

// Publish encodes frame as the latest preview image. Frames are only
// encoded while someone is watching.
func (h *StreamHandler) Publish(frame *gocv.Mat) {
	h.mu.Lock()
	watching := h.viewers > 0
	h.mu.Unlock()

	if !watching || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	h.PublishJPEG(data)
}

// PublishJPEG sets an already encoded preview image.
func (h *StreamHandler) PublishJPEG(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = data
	h.seq++
}

// Viewers returns the number of connected preview clients.
func (h *StreamHandler) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

func (h *StreamHandler) latest(after uint64) ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seq == after {
		return nil, after
	}
	return h.frame, h.seq
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	h.viewers++
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.viewers--
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		var frame []byte
		frame, seq = h.latest(seq)
		if frame == nil {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
