// Package dispatch turns gesture readings into clicks and scrolling on the page.
package dispatch

import (
	"log/slog"

	"github.com/ayusman/handcontrol/internal/gesture"
	"github.com/ayusman/handcontrol/internal/surface"
)

// DefaultScrollContainer is the id of the container scrolled by a spread hand.
const DefaultScrollContainer = "modal-body"

// Surface is the part of the page the dispatcher acts on.
type Surface interface {
	ElementAt(p surface.Point) (string, bool)
	Click(id string, at surface.Point) error
	Scroll(id string, delta float64) bool
}

// Dispatcher fires clicks on the rising edge of a pinch and scrolls the
// designated container while the hand is spread.
type Dispatcher struct {
	surface   Surface
	container string
	held      bool
	log       *slog.Logger
}

// New creates a Dispatcher scrolling container.
func New(s Surface, container string) *Dispatcher {
	if container == "" {
		container = DefaultScrollContainer
	}
	return &Dispatcher{
		surface:   s,
		container: container,
		log:       slog.With("component", "dispatch"),
	}
}

// Handle applies one frame's reading at the cursor position.
func (d *Dispatcher) Handle(r gesture.Reading, cursor surface.Point) {
	if r.Click {
		if !d.held {
			d.held = true
			d.click(cursor)
		}
	} else {
		d.held = false
	}

	// Scrolling yields to a click or a drag grip in the same frame.
	if r.State == gesture.StateScrolling {
		d.surface.Scroll(d.container, r.ScrollDelta)
	}
}

func (d *Dispatcher) click(at surface.Point) {
	id, ok := d.surface.ElementAt(at)
	if !ok {
		return
	}
	if err := d.surface.Click(id, at); err != nil {
		d.log.Warn("click", "id", id, "error", err)
		return
	}
	d.log.Debug("clicked", "id", id, "x", at.X, "y", at.Y)
}

// Held reports whether a click pinch is currently held.
func (d *Dispatcher) Held() bool {
	return d.held
}
