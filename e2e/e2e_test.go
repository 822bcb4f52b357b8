package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handcontrol/internal/app"
	"github.com/ayusman/handcontrol/internal/capture"
	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/drag"
	"github.com/ayusman/handcontrol/internal/positions"
	"github.com/ayusman/handcontrol/internal/server"
	"github.com/ayusman/handcontrol/internal/store"
	"github.com/ayusman/handcontrol/internal/surface"
)

// session is one run of the program: a page layout, a tracker fed by a
// mock estimator and the HTTP server in front of them.
type session struct {
	t         *testing.T
	store     *store.Store
	layout    *surface.Layout
	estimator *detector.MockEstimator
	sched     *app.Manual
	app       *app.App
	ts        *httptest.Server
}

func newSession(t *testing.T, dbPath string) *session {
	t.Helper()

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	s := &session{
		t:         t,
		store:     st,
		layout:    surface.NewLayout(),
		estimator: detector.NewMockEstimator(),
		sched:     app.NewManual(),
	}

	pos := positions.New(st.Settings(), "")
	s.app = app.New(app.Config{
		Estimator: s.estimator,
		Camera:    capture.NewBlankCamera(capture.ResolutionCompact),
		Surface:   s.layout,
		Positions: pos,
		Scheduler: s.sched,
		Smoothing: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	srv := server.New(server.Config{
		Layout:    s.layout,
		Positions: pos,
		Tracker:   s.app,
		Frames:    s.app,
		Context:   ctx,
	})
	s.app.OnStatus(srv.Hub().PublishStatus)
	s.app.SetBridge(srv.Hub())
	s.ts = httptest.NewServer(srv)

	t.Cleanup(func() {
		s.app.Stop()
		cancel()
		s.ts.Close()
		st.Close()
	})
	return s
}

func (s *session) do(method, path, body string, wantStatus int, out any) {
	s.t.Helper()

	req, err := http.NewRequest(method, s.ts.URL+path, bytes.NewBufferString(body))
	if err != nil {
		s.t.Fatalf("build %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.ts.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		s.t.Fatalf("%s %s status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			s.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func (s *session) registerPage() {
	s.t.Helper()

	for _, body := range []string{
		`{"id": "page", "width": 1280, "height": 720}`,
		`{"id": "cart-1", "parent": "page", "classes": ["cart_m"], "x": 600, "y": 300, "width": 200, "height": 150}`,
		`{"id": "quick-cart", "parent": "page", "classes": ["cart"], "x": 100, "y": 500, "width": 150, "height": 100}`,
		`{"id": "modal-body", "parent": "page", "x": 900, "y": 50, "width": 300, "height": 200, "scrollMax": 400}`,
	} {
		s.do(http.MethodPost, "/api/elements", body, http.StatusCreated, nil)
	}
}

// frame feeds one estimator result through the loop.
func (s *session) frame(hands ...detector.HandLandmarks) {
	s.t.Helper()

	s.estimator.PushHands(hands...)
	if !s.sched.Tick() {
		s.t.Fatal("tracking loop is not running")
	}
}

func (s *session) dial() *websocket.Conn {
	s.t.Helper()

	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		s.t.Fatalf("dial %s: %v", url, err)
	}
	s.t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads page messages until one satisfies match.
func next(t *testing.T, conn *websocket.Conn, what string, match func(map[string]any) bool) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func ofType(typ string) func(map[string]any) bool {
	return func(msg map[string]any) bool { return msg["type"] == typ }
}

// at places the index fingertip of hand on a viewport pixel.
func at(hand detector.HandLandmarks, x, y float64) detector.HandLandmarks {
	return detector.MoveIndexTo(hand, 1-x/1280, y/720)
}

func pointOf(t *testing.T, top, left any) surface.Point {
	t.Helper()

	topStr, _ := top.(string)
	leftStr, _ := left.(string)
	p, err := surface.Position{Top: topStr, Left: leftStr}.Point()
	if err != nil {
		t.Fatalf("parse position top=%v left=%v: %v", top, left, err)
	}
	return p
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	dbPath := filepath.Join(t.TempDir(), "handcontrol.db")

	t.Run("first session", func(t *testing.T) {
		s := newSession(t, dbPath)
		conn := s.dial()

		hello := next(t, conn, "hello", ofType(server.MessageHello))
		if hello["status"] != string(app.StatusIdle) {
			t.Errorf("hello status = %v, want %s", hello["status"], app.StatusIdle)
		}

		s.registerPage()
		s.do(http.MethodPost, "/api/tracking", "", http.StatusOK, nil)
		next(t, conn, "calibrating", func(msg map[string]any) bool {
			return msg["type"] == server.MessageStatus && msg["status"] == string(app.StatusCalibrating)
		})

		grip := detector.PinchLandmarks(0.05)
		s.frame(at(grip, 640, 360))

		next(t, conn, "active", func(msg map[string]any) bool {
			return msg["type"] == server.MessageStatus && msg["status"] == string(app.StatusActive)
		})
		hand := next(t, conn, "wrist position", ofType(string(surface.EventHand)))
		if x, _ := hand["x"].(float64); x <= 0 || x >= 1 {
			t.Errorf("wrist x = %v, want a normalized coordinate", hand["x"])
		}
		added := next(t, conn, "dragging class", ofType(string(surface.EventClassAdd)))
		if added["id"] != "cart-1" || added["class"] != drag.DraggingClass {
			t.Errorf("class_add = %v", added)
		}

		s.frame(at(grip, 740, 360))
		move := next(t, conn, "panel move", func(msg map[string]any) bool {
			return msg["type"] == string(surface.EventMove) && msg["id"] == "cart-1"
		})
		if p := pointOf(t, move["top"], move["left"]); !near(p.X, 700) || !near(p.Y, 300) {
			t.Errorf("cart-1 moved to %+v, want 700/300", p)
		}

		s.frame(at(detector.PinchLandmarks(0.10), 740, 360))
		next(t, conn, "drop", func(msg map[string]any) bool {
			return msg["type"] == string(surface.EventClassRemove) && msg["id"] == "cart-1"
		})

		// The transient marker is dragged but never remembered.
		s.frame(at(grip, 150, 520))
		s.frame(at(grip, 250, 520))
		s.frame(at(detector.PinchLandmarks(0.10), 250, 520))

		s.frame(detector.OpenPalmLandmarks())
		scroll := next(t, conn, "scroll", ofType(string(surface.EventScroll)))
		if scroll["id"] != "modal-body" {
			t.Errorf("scrolled %v, want modal-body", scroll["id"])
		}
		if top, _ := scroll["scrollTop"].(float64); top <= 0 {
			t.Errorf("scrollTop = %v, want a downward scroll", scroll["scrollTop"])
		}

		var status app.Snapshot
		s.do(http.MethodGet, "/api/status", "", http.StatusOK, &status)
		if status.Status != app.StatusActive || !status.HandVisible || status.Frames == 0 {
			t.Errorf("status = %+v", status)
		}

		s.do(http.MethodDelete, "/api/tracking", "", http.StatusOK, &status)
		if status.Status != app.StatusIdle {
			t.Errorf("status after stop = %s, want %s", status.Status, app.StatusIdle)
		}

		var listed struct {
			Positions map[string]surface.Position `json:"positions"`
		}
		s.do(http.MethodGet, "/api/positions", "", http.StatusOK, &listed)
		if _, ok := listed.Positions["cart-1"]; !ok {
			t.Errorf("cart-1 position not stored: %v", listed.Positions)
		}
		if _, ok := listed.Positions["quick-cart"]; ok {
			t.Errorf("transient quick-cart should not be stored: %v", listed.Positions)
		}
	})

	t.Run("next session restores the panel", func(t *testing.T) {
		s := newSession(t, dbPath)
		s.registerPage()

		var listed struct {
			Elements []surface.Element `json:"elements"`
		}
		s.do(http.MethodGet, "/api/elements", "", http.StatusOK, &listed)

		var cart surface.Element
		for _, e := range listed.Elements {
			if e.ID == "cart-1" {
				cart = e
			}
		}
		if p := pointOf(t, cart.Position.Top, cart.Position.Left); !near(p.X, 700) || !near(p.Y, 300) {
			t.Errorf("restored cart-1 at %+v, want 700/300", p)
		}
		if !near(cart.Bounds.X, 700) || !near(cart.Bounds.Y, 300) {
			t.Errorf("restored cart-1 bounds = %+v", cart.Bounds)
		}

		s.do(http.MethodDelete, "/api/positions", "", http.StatusNoContent, nil)

		var after struct {
			Positions map[string]surface.Position `json:"positions"`
		}
		s.do(http.MethodGet, "/api/positions", "", http.StatusOK, &after)
		if len(after.Positions) != 0 {
			t.Errorf("positions after reset = %v", after.Positions)
		}
	})
}
