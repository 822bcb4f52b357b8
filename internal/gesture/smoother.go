// Package gesture turns raw hand landmarks into smoothed positions, gesture
// intents and cursor coordinates.
package gesture

import "github.com/ayusman/handcontrol/internal/detector"

// DefaultSmoothingFactor is the weight given to the newest frame.
const DefaultSmoothingFactor = 0.2

// Smoother applies an exponential moving average to every landmark axis.
//
// The first frame after construction or Reset seeds the state and is returned
// unchanged; later frames blend toward the raw input by the smoothing factor.
type Smoother struct {
	alpha  float64
	state  detector.HandLandmarks
	seeded bool
}

// NewSmoother creates a Smoother. Factors outside (0,1] fall back to DefaultSmoothingFactor.
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothingFactor
	}
	return &Smoother{alpha: alpha}
}

// Alpha returns the smoothing factor in use.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Smooth folds raw into the smoothed state and returns a copy of it.
func (s *Smoother) Smooth(raw *detector.HandLandmarks) detector.HandLandmarks {
	if !s.seeded {
		s.state = *raw
		s.seeded = true
		return s.state
	}

	for i := range s.state.Points {
		prev := &s.state.Points[i]
		in := raw.Points[i]
		prev.X += (in.X - prev.X) * s.alpha
		prev.Y += (in.Y - prev.Y) * s.alpha
		prev.Z += (in.Z - prev.Z) * s.alpha
	}
	s.state.Handedness = raw.Handedness
	s.state.Score = raw.Score

	return s.state
}

// Reset flags the next frame as a first frame.
func (s *Smoother) Reset() {
	s.seeded = false
}

// Seeded reports whether the smoother holds state from a previous frame.
func (s *Smoother) Seeded() bool {
	return s.seeded
}
