package api

import (
	"context"
	"net/http"

	"github.com/ayusman/handcontrol/internal/app"
)

// Tracker is the hand control session driven over HTTP.
type Tracker interface {
	Start(ctx context.Context) error
	Stop()
	Snapshot() app.Snapshot
}

// TrackingHandler starts and stops hand control.
type TrackingHandler struct {
	tracker Tracker
	ctx     context.Context
}

// NewTrackingHandler creates a TrackingHandler. Sessions started over HTTP
// live until ctx is done or they are stopped, not until the request ends.
func NewTrackingHandler(ctx context.Context, t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t, ctx: ctx}
}

// Status handles GET /api/status.
func (h *TrackingHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// Start handles POST /api/tracking.
func (h *TrackingHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Start(h.ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, h.tracker.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// Stop handles DELETE /api/tracking.
func (h *TrackingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.tracker.Stop()
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}
