// Package surface models the page the gesture pipeline acts on: a viewport of
// positioned elements that can be hit-tested, moved, marked, clicked and scrolled.
package surface

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownElement is returned when an element id is not on the surface.
	ErrUnknownElement = errors.New("unknown element")
	// ErrInvalidPosition is returned when a position is not expressed in pixels.
	ErrInvalidPosition = errors.New("invalid position")
)

// Point is a location in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned box in viewport pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TopLeft returns the rectangle's origin.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// Contains reports whether p lies inside r. Edges on the far side are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Size is the viewport size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is an element's top/left style, kept as pixel strings ("130px")
// so stored values round-trip exactly.
type Position struct {
	Top  string `json:"top"`
	Left string `json:"left"`
}

// PositionAt formats a top-left point as a Position.
func PositionAt(p Point) Position {
	return Position{Top: formatPx(p.Y), Left: formatPx(p.X)}
}

// Point parses the position back into viewport pixels.
func (p Position) Point() (Point, error) {
	top, err := parsePx(p.Top)
	if err != nil {
		return Point{}, err
	}
	left, err := parsePx(p.Left)
	if err != nil {
		return Point{}, err
	}
	return Point{X: left, Y: top}, nil
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func parsePx(s string) (float64, error) {
	v, ok := strings.CutSuffix(strings.TrimSpace(s), "px")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return f, nil
}

// Surface is everything the gesture pipeline needs from the page.
type Surface interface {
	// Viewport returns the current viewport size.
	Viewport() Size
	// ElementAt returns the topmost visible element under p.
	ElementAt(p Point) (string, bool)
	// Closest walks from id up through its ancestors and returns the first
	// element carrying any of the classes.
	Closest(id string, classes ...string) (string, bool)
	// Bounds returns the element's box.
	Bounds(id string) (Rect, bool)
	// Position returns the element's top/left style.
	Position(id string) (Position, bool)
	// SetPosition moves the element's top-left corner.
	SetPosition(id string, pos Position) error
	AddClass(id, class string) error
	RemoveClass(id, class string) error
	HasClass(id, class string) bool
	// Click synthesizes a bubbling click on the element.
	Click(id string, at Point) error
	// Scroll adjusts a visible container's scroll offset. It reports false when
	// the container is missing or hidden.
	Scroll(id string, delta float64) bool
	// ShowCursor places the cursor indicator.
	ShowCursor(at Point, clicking bool)
	// HideCursor hides the cursor indicator.
	HideCursor()
}

// EventType names a page mutation.
type EventType string

const (
	EventCursor      EventType = "cursor"
	EventMove        EventType = "move"
	EventClassAdd    EventType = "class_add"
	EventClassRemove EventType = "class_remove"
	EventClick       EventType = "click"
	EventScroll      EventType = "scroll"
	EventHand        EventType = "hand"
)

// Event is a page mutation pushed to connected pages. Coordinates, scroll
// offset and visibility are always encoded since zero is a meaningful value.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Top       string    `json:"top,omitempty"`
	Left      string    `json:"left,omitempty"`
	Class     string    `json:"class,omitempty"`
	ScrollTop float64   `json:"scrollTop"`
	Visible   bool      `json:"visible"`
	Clicking  bool      `json:"clicking,omitempty"`
	Bubbles   bool      `json:"bubbles,omitempty"`
}
