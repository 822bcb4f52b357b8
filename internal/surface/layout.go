package surface

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// DefaultViewport is used until the page reports its real size.
var DefaultViewport = Size{Width: 1280, Height: 720}

// Element describes one registered page element. Bounds are viewport
// coordinates; children are not positioned relative to their parent.
type Element struct {
	ID        string   `json:"id"`
	Parent    string   `json:"parent,omitempty"`
	Classes   []string `json:"classes,omitempty"`
	Bounds    Rect     `json:"bounds"`
	Visible   bool     `json:"visible"`
	ScrollTop float64  `json:"scrollTop,omitempty"`
	// ScrollMax caps ScrollTop. Zero means the container has no known limit.
	ScrollMax float64  `json:"scrollMax,omitempty"`
	Position  Position `json:"position"`
}

// Cursor is the state of the cursor indicator.
type Cursor struct {
	Visible  bool  `json:"visible"`
	At       Point `json:"at"`
	Clicking bool  `json:"clicking"`
}

// Layout is an in-memory Surface mirroring the page. Elements registered
// later sit on top of earlier ones. Every mutation is reported to the
// registered listeners.
type Layout struct {
	mu        sync.RWMutex
	viewport  Size
	elements  map[string]*Element
	order     []string
	cursor    Cursor
	listeners []func(Event)
}

// NewLayout creates an empty layout with the default viewport.
func NewLayout() *Layout {
	return &Layout{
		viewport: DefaultViewport,
		elements: make(map[string]*Element),
	}
}

// OnEvent registers fn to receive every mutation. Listeners run synchronously
// after the layout lock has been released.
func (l *Layout) OnEvent(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Layout) emit(e Event) {
	l.mu.RLock()
	listeners := l.listeners
	l.mu.RUnlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// SetViewport updates the viewport size. Non-positive sizes are ignored.
func (l *Layout) SetViewport(size Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewport = size
}

// Viewport returns the current viewport size.
func (l *Layout) Viewport() Size {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.viewport
}

// Register adds or replaces an element and returns its id. An element
// without an id gets a generated one. Replacing keeps the stacking order.
func (l *Layout) Register(e Element) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Parent == e.ID {
		return "", fmt.Errorf("element %s cannot be its own parent", e.ID)
	}
	if e.Position == (Position{}) {
		e.Position = PositionAt(e.Bounds.TopLeft())
	} else {
		p, err := e.Position.Point()
		if err != nil {
			return "", err
		}
		e.Bounds.X, e.Bounds.Y = p.X, p.Y
	}
	e.Classes = slices.Clone(e.Classes)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.elements[e.ID]; !exists {
		l.order = append(l.order, e.ID)
	}
	l.elements[e.ID] = &e
	return e.ID, nil
}

// Remove deletes an element. Children keep a dangling parent reference and
// are treated as detached.
func (l *Layout) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.elements[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	delete(l.elements, id)
	l.order = slices.DeleteFunc(l.order, func(o string) bool { return o == id })
	return nil
}

// SetVisible shows or hides an element and, with it, its descendants.
func (l *Layout) SetVisible(id string, visible bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	e.Visible = visible
	return nil
}

// Element returns a copy of the element.
func (l *Layout) Element(id string) (Element, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.elements[id]
	if !ok {
		return Element{}, false
	}
	c := *e
	c.Classes = slices.Clone(e.Classes)
	return c, true
}

// Elements returns copies of all elements, bottom-most first.
func (l *Layout) Elements() []Element {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Element, 0, len(l.order))
	for _, id := range l.order {
		c := *l.elements[id]
		c.Classes = slices.Clone(c.Classes)
		out = append(out, c)
	}
	return out
}

// Cursor returns the cursor indicator state.
func (l *Layout) Cursor() Cursor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// shown reports whether e and all of its ancestors are visible.
// Caller must hold the lock.
func (l *Layout) shown(e *Element) bool {
	seen := 0
	for e != nil {
		if !e.Visible {
			return false
		}
		if e.Parent == "" {
			return true
		}
		parent, ok := l.elements[e.Parent]
		if !ok {
			return true
		}
		e = parent
		seen++
		if seen > len(l.elements) {
			return false // parent cycle
		}
	}
	return true
}

// ElementAt returns the topmost visible element whose bounds contain p.
func (l *Layout) ElementAt(p Point) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.order) - 1; i >= 0; i-- {
		e := l.elements[l.order[i]]
		if e.Bounds.Contains(p) && l.shown(e) {
			return e.ID, true
		}
	}
	return "", false
}

// Closest returns the nearest element, starting at id itself, that carries any of classes.
func (l *Layout) Closest(id string, classes ...string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for steps := 0; steps <= len(l.elements); steps++ {
		e, ok := l.elements[id]
		if !ok {
			return "", false
		}
		for _, c := range classes {
			if slices.Contains(e.Classes, c) {
				return e.ID, true
			}
		}
		if e.Parent == "" {
			return "", false
		}
		id = e.Parent
	}
	return "", false
}

// Bounds returns the element's box.
func (l *Layout) Bounds(id string) (Rect, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.elements[id]
	if !ok {
		return Rect{}, false
	}
	return e.Bounds, true
}

// Position returns the element's top/left style as last set.
func (l *Layout) Position(id string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.elements[id]
	if !ok {
		return Position{}, false
	}
	return e.Position, true
}

// SetPosition moves the element so its top-left corner sits at pos.
func (l *Layout) SetPosition(id string, pos Position) error {
	p, err := pos.Point()
	if err != nil {
		return err
	}

	l.mu.Lock()
	e, ok := l.elements[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	e.Bounds.X, e.Bounds.Y = p.X, p.Y
	e.Position = pos
	l.mu.Unlock()

	l.emit(Event{Type: EventMove, ID: id, Top: pos.Top, Left: pos.Left})
	return nil
}

// AddClass adds a class to the element. Adding a class it already has is a no-op.
func (l *Layout) AddClass(id, class string) error {
	l.mu.Lock()
	e, ok := l.elements[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	if slices.Contains(e.Classes, class) {
		l.mu.Unlock()
		return nil
	}
	e.Classes = append(e.Classes, class)
	l.mu.Unlock()

	l.emit(Event{Type: EventClassAdd, ID: id, Class: class})
	return nil
}

// RemoveClass removes a class from the element.
func (l *Layout) RemoveClass(id, class string) error {
	l.mu.Lock()
	e, ok := l.elements[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	if !slices.Contains(e.Classes, class) {
		l.mu.Unlock()
		return nil
	}
	e.Classes = slices.DeleteFunc(e.Classes, func(c string) bool { return c == class })
	l.mu.Unlock()

	l.emit(Event{Type: EventClassRemove, ID: id, Class: class})
	return nil
}

// HasClass reports whether the element carries class.
func (l *Layout) HasClass(id, class string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.elements[id]
	return ok && slices.Contains(e.Classes, class)
}

// Click reports a bubbling click on the element to the page.
func (l *Layout) Click(id string, at Point) error {
	l.mu.RLock()
	_, ok := l.elements[id]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}

	l.emit(Event{Type: EventClick, ID: id, X: at.X, Y: at.Y, Bubbles: true})
	return nil
}

// Scroll moves a visible container's scroll offset by delta, clamped at zero
// and at ScrollMax when one is set.
func (l *Layout) Scroll(id string, delta float64) bool {
	l.mu.Lock()
	e, ok := l.elements[id]
	if !ok || !l.shown(e) {
		l.mu.Unlock()
		return false
	}
	top := e.ScrollTop + delta
	if top < 0 {
		top = 0
	}
	if e.ScrollMax > 0 && top > e.ScrollMax {
		top = e.ScrollMax
	}
	e.ScrollTop = top
	l.mu.Unlock()

	l.emit(Event{Type: EventScroll, ID: id, ScrollTop: top})
	return true
}

// ShowCursor places the cursor indicator at the given point.
func (l *Layout) ShowCursor(at Point, clicking bool) {
	l.mu.Lock()
	l.cursor = Cursor{Visible: true, At: at, Clicking: clicking}
	l.mu.Unlock()

	l.emit(Event{Type: EventCursor, X: at.X, Y: at.Y, Visible: true, Clicking: clicking})
}

// HideCursor hides the cursor indicator. Hiding an already hidden cursor emits nothing.
func (l *Layout) HideCursor() {
	l.mu.Lock()
	if !l.cursor.Visible {
		l.mu.Unlock()
		return
	}
	l.cursor.Visible = false
	l.cursor.Clicking = false
	l.mu.Unlock()

	l.emit(Event{Type: EventCursor, Visible: false})
}
