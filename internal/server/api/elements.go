package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/handcontrol/internal/positions"
	"github.com/ayusman/handcontrol/internal/surface"
)

// Restorer reapplies stored positions to newly registered elements.
type Restorer interface {
	Restore(t positions.Target, ids ...string) int
}

// ElementsHandler lets the page mirror its panels into the layout.
type ElementsHandler struct {
	layout   *surface.Layout
	restorer Restorer
}

// NewElementsHandler creates an ElementsHandler. restorer may be nil.
func NewElementsHandler(layout *surface.Layout, restorer Restorer) *ElementsHandler {
	return &ElementsHandler{layout: layout, restorer: restorer}
}

type elementRequest struct {
	ID        string   `json:"id"`
	Parent    string   `json:"parent"`
	Classes   []string `json:"classes"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	Visible   *bool    `json:"visible"`
	ScrollMax float64  `json:"scrollMax"`
	Top       string   `json:"top"`
	Left      string   `json:"left"`
}

type updateElementRequest struct {
	Visible *bool `json:"visible"`
}

type listElementsResponse struct {
	Elements []surface.Element `json:"elements"`
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// List handles GET /api/elements.
func (h *ElementsHandler) List(w http.ResponseWriter, r *http.Request) {
	elements := h.layout.Elements()
	if elements == nil {
		elements = []surface.Element{}
	}
	writeJSON(w, http.StatusOK, listElementsResponse{Elements: elements})
}

// Register handles POST /api/elements. It adds or replaces an element and,
// when a position was stored for it, moves it there.
func (h *ElementsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req elementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, http.StatusBadRequest, "Width and height must not be negative")
		return
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}

	id, err := h.layout.Register(surface.Element{
		ID:        req.ID,
		Parent:    req.Parent,
		Classes:   req.Classes,
		Bounds:    surface.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height},
		Visible:   visible,
		ScrollMax: req.ScrollMax,
		Position:  surface.Position{Top: req.Top, Left: req.Left},
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.restorer != nil {
		h.restorer.Restore(h.layout, id)
	}

	e, _ := h.layout.Element(id)
	writeJSON(w, http.StatusCreated, e)
}

// Update handles PATCH /api/elements/{id}.
func (h *ElementsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Visible != nil {
		if err := h.layout.SetVisible(id, *req.Visible); err != nil {
			h.writeLayoutError(w, err)
			return
		}
	}

	e, ok := h.layout.Element(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Element not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Remove handles DELETE /api/elements/{id}.
func (h *ElementsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.layout.Remove(r.PathValue("id")); err != nil {
		h.writeLayoutError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Viewport handles PUT /api/viewport.
func (h *ElementsHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "Width and height must be positive")
		return
	}

	h.layout.SetViewport(surface.Size{Width: req.Width, Height: req.Height})
	writeJSON(w, http.StatusOK, h.layout.Viewport())
}

func (h *ElementsHandler) writeLayoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, surface.ErrUnknownElement) {
		writeError(w, http.StatusNotFound, "Element not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
