// Package detector defines the hand landmark model and the boundary to the external pose estimator.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position in normalized image space.
// X and Y are in [0,1]; Z is relative depth as reported by the estimator.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Results is one estimator pass over a single frame.
// An empty Hands slice means no hand is currently visible.
type Results struct {
	Hands []HandLandmarks `json:"hands"`
}

// Primary returns the first detected hand, or nil when none was found.
func (r Results) Primary() *HandLandmarks {
	if len(r.Hands) == 0 {
		return nil
	}
	return &r.Hands[0]
}

// PlanarDistance returns the Euclidean distance between two landmarks in the x/y image plane.
// Depth is ignored because the estimator's z is too noisy for pinch detection.
func PlanarDistance(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance returns the planar distance between two landmarks of the hand by index.
func (h *HandLandmarks) Distance(i, j int) float64 {
	return PlanarDistance(h.Points[i], h.Points[j])
}

// MeanY returns the average vertical position over all landmarks.
func (h *HandLandmarks) MeanY() float64 {
	var sum float64
	for _, p := range h.Points {
		sum += p.Y
	}
	return sum / NumLandmarks
}
