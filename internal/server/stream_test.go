package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	h := NewStreamHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestStreamHandler_PublishesFrames(t *testing.T) {
	h := NewStreamHandler()
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("unexpected Content-Type %q", ct)
	}
	waitFor(t, "viewer registration", func() bool { return h.Viewers() == 1 })

	h.PublishJPEG([]byte("jpeg-bytes"))

	r := bufio.NewReader(resp.Body)
	var header []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read part header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" && len(header) > 0 {
			break
		}
		if line != "" {
			header = append(header, line)
		}
	}
	if header[0] != "--frame" || header[1] != "Content-Type: image/jpeg" || header[2] != "Content-Length: 10" {
		t.Errorf("unexpected part header %q", header)
	}

	body := make([]byte, 10)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("read part body: %v", err)
	}
	if string(body) != "jpeg-bytes" {
		t.Errorf("part body = %q", body)
	}

	cancel()
	waitFor(t, "viewer removal", func() bool { return h.Viewers() == 0 })
}

func TestStreamHandler_SkipsEncodingWithoutViewers(t *testing.T) {
	h := NewStreamHandler()
	h.Publish(nil)
	if h.seq != 0 || h.frame != nil {
		t.Error("no frame should be stored without viewers")
	}
}
