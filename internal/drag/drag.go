// Package drag manages the single active drag session: which element follows
// the cursor, and where it is released.
package drag

import (
	"log/slog"
	"slices"

	"github.com/ayusman/handcontrol/internal/surface"
)

// DraggingClass marks the element under an active grab.
const DraggingClass = "dragging"

// Surface is the part of the page a drag session touches.
type Surface interface {
	ElementAt(p surface.Point) (string, bool)
	Closest(id string, classes ...string) (string, bool)
	Bounds(id string) (surface.Rect, bool)
	Position(id string) (surface.Position, bool)
	SetPosition(id string, pos surface.Position) error
	AddClass(id, class string) error
	RemoveClass(id, class string) error
	HasClass(id, class string) bool
}

// Persister stores an element's position when a drag ends.
type Persister interface {
	Save(id string, pos surface.Position) error
}

// Config selects which elements can be grabbed and which are remembered.
type Config struct {
	// Draggable lists the marker classes that make an element grabbable.
	Draggable []string
	// Transient lists marker classes whose elements are not persisted on release.
	Transient []string
}

// DefaultConfig returns the stock marker classes.
func DefaultConfig() Config {
	return Config{
		Draggable: []string{"cart", "cart_m"},
		Transient: []string{"cart"},
	}
}

// Session is an active grab. Target and Offset are fixed for its lifetime.
type Session struct {
	Target string        `json:"target"`
	Offset surface.Point `json:"offset"`
}

// Manager runs the Idle/Dragging state machine.
type Manager struct {
	surface Surface
	persist Persister
	config  Config
	session *Session
	log     *slog.Logger
}

// NewManager creates a Manager. persist may be nil to disable persistence.
func NewManager(s Surface, persist Persister, config Config) *Manager {
	return &Manager{
		surface: s,
		persist: persist,
		config:  config,
		log:     slog.With("component", "drag"),
	}
}

// Update advances the state machine for one frame. While grip holds, the
// session's element follows cursor; when it drops the session is released.
func (m *Manager) Update(grip bool, cursor surface.Point) {
	if !grip {
		m.Release()
		return
	}

	if m.session == nil {
		m.pickUp(cursor)
	}
	if m.session != nil {
		m.follow(cursor)
	}
}

func (m *Manager) pickUp(cursor surface.Point) {
	hit, ok := m.surface.ElementAt(cursor)
	if !ok {
		return
	}
	target, ok := m.surface.Closest(hit, m.config.Draggable...)
	if !ok {
		return
	}
	bounds, ok := m.surface.Bounds(target)
	if !ok {
		return
	}

	m.session = &Session{
		Target: target,
		Offset: cursor.Sub(bounds.TopLeft()),
	}
	if err := m.surface.AddClass(target, DraggingClass); err != nil {
		m.log.Warn("mark dragging", "id", target, "error", err)
	}
	m.log.Debug("picked up", "id", target, "offset_x", m.session.Offset.X, "offset_y", m.session.Offset.Y)
}

func (m *Manager) follow(cursor surface.Point) {
	pos := surface.PositionAt(cursor.Sub(m.session.Offset))
	if err := m.surface.SetPosition(m.session.Target, pos); err != nil {
		// Element vanished from the page mid-drag.
		m.log.Warn("move dragged element", "id", m.session.Target, "error", err)
		m.session = nil
	}
}

// Release ends the active session, if any, and persists the element's final position.
func (m *Manager) Release() {
	if m.session == nil {
		return
	}
	target := m.session.Target
	m.session = nil

	if err := m.surface.RemoveClass(target, DraggingClass); err != nil {
		m.log.Warn("unmark dragging", "id", target, "error", err)
		return
	}
	if m.persist == nil || m.transient(target) {
		return
	}

	pos, ok := m.surface.Position(target)
	if !ok {
		return
	}
	if err := m.persist.Save(target, pos); err != nil {
		m.log.Error("failed to save position", "id", target, "error", err)
	}
}

func (m *Manager) transient(id string) bool {
	return slices.ContainsFunc(m.config.Transient, func(c string) bool {
		return m.surface.HasClass(id, c)
	})
}

// Active returns the current session.
func (m *Manager) Active() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}
