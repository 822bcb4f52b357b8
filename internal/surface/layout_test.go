package surface

import (
	"errors"
	"testing"
)

// recorder collects layout events.
type recorder struct {
	events []Event
}

func (r *recorder) record(e Event) { r.events = append(r.events, e) }

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestLayout(t *testing.T) (*Layout, *recorder) {
	t.Helper()

	l := NewLayout()
	rec := &recorder{}
	l.OnEvent(rec.record)

	elements := []Element{
		{ID: "page", Bounds: Rect{X: 0, Y: 0, Width: 1280, Height: 720}, Visible: true},
		{ID: "cart-1", Parent: "page", Classes: []string{"cart_m"}, Bounds: Rect{X: 80, Y: 80, Width: 200, Height: 150}, Visible: true},
		{ID: "cart-1-title", Parent: "cart-1", Bounds: Rect{X: 80, Y: 80, Width: 200, Height: 30}, Visible: true},
		{ID: "overlay-modal", Bounds: Rect{X: 300, Y: 100, Width: 400, Height: 400}, Visible: false},
		{ID: "modal-body", Parent: "overlay-modal", Bounds: Rect{X: 300, Y: 140, Width: 400, Height: 360}, Visible: true, ScrollMax: 100},
	}
	for _, e := range elements {
		if _, err := l.Register(e); err != nil {
			t.Fatalf("Register(%s): %v", e.ID, err)
		}
	}
	return l, rec
}

func TestPosition_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want Point
		err  bool
	}{
		{"integers", Position{Top: "10px", Left: "20px"}, Point{X: 20, Y: 10}, false},
		{"fractions", Position{Top: "12.5px", Left: "-3px"}, Point{X: -3, Y: 12.5}, false},
		{"missing unit", Position{Top: "10", Left: "20px"}, Point{}, true},
		{"empty", Position{}, Point{}, true},
		{"percent", Position{Top: "10%", Left: "20px"}, Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pos.Point()
			if tt.err {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Errorf("expected ErrInvalidPosition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Point(): %v", err)
			}
			if got != tt.want {
				t.Errorf("Point() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if got := PositionAt(Point{X: 130, Y: 100}); got != (Position{Top: "100px", Left: "130px"}) {
		t.Errorf("PositionAt() = %+v", got)
	}
}

func TestLayout_ElementAt(t *testing.T) {
	l, _ := newTestLayout(t)

	tests := []struct {
		name   string
		at     Point
		wantID string
		wantOK bool
	}{
		{"topmost child wins", Point{X: 100, Y: 90}, "cart-1-title", true},
		{"panel body", Point{X: 100, Y: 200}, "cart-1", true},
		{"background", Point{X: 1000, Y: 600}, "page", true},
		{"hidden modal is skipped", Point{X: 500, Y: 300}, "page", true},
		{"outside viewport", Point{X: 5000, Y: 5000}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := l.ElementAt(tt.at)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ElementAt(%v) = (%q, %v), want (%q, %v)", tt.at, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}

	if err := l.SetVisible("overlay-modal", true); err != nil {
		t.Fatalf("SetVisible: %v", err)
	}
	if id, _ := l.ElementAt(Point{X: 500, Y: 300}); id != "modal-body" {
		t.Errorf("expected modal-body once the modal is shown, got %q", id)
	}
}

func TestLayout_Closest(t *testing.T) {
	l, _ := newTestLayout(t)

	if id, ok := l.Closest("cart-1-title", "cart", "cart_m"); !ok || id != "cart-1" {
		t.Errorf("Closest(title) = (%q, %v), want cart-1", id, ok)
	}
	if id, ok := l.Closest("cart-1", "cart_m"); !ok || id != "cart-1" {
		t.Errorf("Closest(self) = (%q, %v), want cart-1", id, ok)
	}
	if _, ok := l.Closest("page", "cart"); ok {
		t.Error("page has no draggable ancestor")
	}
	if _, ok := l.Closest("missing", "cart"); ok {
		t.Error("unknown element should not match")
	}
}

func TestLayout_SetPosition(t *testing.T) {
	l, rec := newTestLayout(t)

	if err := l.SetPosition("cart-1", PositionAt(Point{X: 130, Y: 100})); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}

	b, _ := l.Bounds("cart-1")
	if b.TopLeft() != (Point{X: 130, Y: 100}) {
		t.Errorf("bounds top-left = %+v, want (130,100)", b.TopLeft())
	}
	if b.Width != 200 || b.Height != 150 {
		t.Errorf("size changed: %+v", b)
	}

	moves := rec.ofType(EventMove)
	if len(moves) != 1 || moves[0].Top != "100px" || moves[0].Left != "130px" {
		t.Errorf("unexpected move events %+v", moves)
	}

	if err := l.SetPosition("missing", Position{Top: "1px", Left: "1px"}); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("expected ErrUnknownElement, got %v", err)
	}
	if err := l.SetPosition("cart-1", Position{Top: "auto", Left: "1px"}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestLayout_Classes(t *testing.T) {
	l, rec := newTestLayout(t)

	if err := l.AddClass("cart-1", "dragging"); err != nil {
		t.Fatalf("AddClass: %v", err)
	}
	if err := l.AddClass("cart-1", "dragging"); err != nil {
		t.Fatalf("AddClass twice: %v", err)
	}
	if !l.HasClass("cart-1", "dragging") {
		t.Error("expected dragging class")
	}
	if got := len(rec.ofType(EventClassAdd)); got != 1 {
		t.Errorf("expected 1 class_add event, got %d", got)
	}

	if err := l.RemoveClass("cart-1", "dragging"); err != nil {
		t.Fatalf("RemoveClass: %v", err)
	}
	if l.HasClass("cart-1", "dragging") {
		t.Error("dragging class should be removed")
	}
	if got := len(rec.ofType(EventClassRemove)); got != 1 {
		t.Errorf("expected 1 class_remove event, got %d", got)
	}
}

func TestLayout_Scroll(t *testing.T) {
	l, rec := newTestLayout(t)

	if l.Scroll("modal-body", 10) {
		t.Error("hidden container should not scroll")
	}

	l.SetVisible("overlay-modal", true)

	if !l.Scroll("modal-body", 30) {
		t.Fatal("expected visible container to scroll")
	}
	l.Scroll("modal-body", 200)
	e, _ := l.Element("modal-body")
	if e.ScrollTop != 100 {
		t.Errorf("ScrollTop = %f, want clamp at 100", e.ScrollTop)
	}

	l.Scroll("modal-body", -500)
	e, _ = l.Element("modal-body")
	if e.ScrollTop != 0 {
		t.Errorf("ScrollTop = %f, want clamp at 0", e.ScrollTop)
	}

	if got := len(rec.ofType(EventScroll)); got != 3 {
		t.Errorf("expected 3 scroll events, got %d", got)
	}
	if l.Scroll("missing", 1) {
		t.Error("missing container should not scroll")
	}
}

func TestLayout_ClickAndCursor(t *testing.T) {
	l, rec := newTestLayout(t)

	if err := l.Click("cart-1", Point{X: 100, Y: 100}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	clicks := rec.ofType(EventClick)
	if len(clicks) != 1 || !clicks[0].Bubbles || clicks[0].ID != "cart-1" {
		t.Errorf("unexpected click events %+v", clicks)
	}

	l.ShowCursor(Point{X: 10, Y: 20}, true)
	if c := l.Cursor(); !c.Visible || !c.Clicking || c.At != (Point{X: 10, Y: 20}) {
		t.Errorf("unexpected cursor %+v", c)
	}

	l.HideCursor()
	l.HideCursor()
	if l.Cursor().Visible {
		t.Error("cursor should be hidden")
	}
	if got := len(rec.ofType(EventCursor)); got != 2 {
		t.Errorf("expected 2 cursor events, got %d", got)
	}
}

func TestLayout_RegisterAndRemove(t *testing.T) {
	l := NewLayout()

	id, err := l.Register(Element{Bounds: Rect{Width: 10, Height: 10}, Visible: true})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	if _, err := l.Register(Element{ID: "a", Position: Position{Top: "5px", Left: "7px"}, Bounds: Rect{Width: 1, Height: 1}}); err != nil {
		t.Fatalf("Register with position: %v", err)
	}
	if b, _ := l.Bounds("a"); b.X != 7 || b.Y != 5 {
		t.Errorf("position should drive bounds, got %+v", b)
	}

	if _, err := l.Register(Element{ID: "self", Parent: "self"}); err == nil {
		t.Error("expected error for self parent")
	}

	if err := l.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := l.Remove(id); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("expected ErrUnknownElement, got %v", err)
	}
	if got := len(l.Elements()); got != 1 {
		t.Errorf("expected 1 element left, got %d", got)
	}
}

func TestLayout_Viewport(t *testing.T) {
	l := NewLayout()
	if l.Viewport() != DefaultViewport {
		t.Errorf("Viewport() = %+v, want default", l.Viewport())
	}

	l.SetViewport(Size{Width: 0, Height: 100})
	if l.Viewport() != DefaultViewport {
		t.Error("zero width viewport should be ignored")
	}

	l.SetViewport(Size{Width: 320, Height: 240})
	if l.Viewport() != (Size{Width: 320, Height: 240}) {
		t.Errorf("Viewport() = %+v", l.Viewport())
	}
}

func TestLayout_ImplementsSurface(t *testing.T) {
	var _ Surface = (*Layout)(nil)
}
