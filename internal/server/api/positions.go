package api

import (
	"net/http"

	"github.com/ayusman/handcontrol/internal/surface"
)

// PositionStore is the persisted position map.
type PositionStore interface {
	Load() (map[string]surface.Position, error)
	Reset() error
}

// PositionsHandler exposes stored panel positions.
type PositionsHandler struct {
	store PositionStore
}

// NewPositionsHandler creates a PositionsHandler.
func NewPositionsHandler(s PositionStore) *PositionsHandler {
	return &PositionsHandler{store: s}
}

type listPositionsResponse struct {
	Positions map[string]surface.Position `json:"positions"`
}

// List handles GET /api/positions.
func (h *PositionsHandler) List(w http.ResponseWriter, r *http.Request) {
	positions, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load positions")
		return
	}
	writeJSON(w, http.StatusOK, listPositionsResponse{Positions: positions})
}

// Reset handles DELETE /api/positions.
func (h *PositionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset positions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
