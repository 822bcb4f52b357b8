package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// Each Send delivers the next queued Results; once the queue is drained it
// keeps delivering the last one.
type MockEstimator struct {
	mu         sync.Mutex
	queue      []Results
	last       Results
	err        error
	optionsErr error
	opts       *Options
	onResults  func(Results)
	sends      int
	closed     bool
}

// NewMockEstimator creates a new MockEstimator that reports no hands.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// Push queues results to be delivered by subsequent Send calls.
func (m *MockEstimator) Push(results ...Results) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// PushHands queues a single frame containing the given hands.
func (m *MockEstimator) PushHands(hands ...HandLandmarks) {
	m.Push(Results{Hands: hands})
}

// SetError sets the error that will be returned by Send.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetOptionsError sets the error that will be returned by SetOptions.
func (m *MockEstimator) SetOptionsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optionsErr = err
}

// SetOptions records opts.
func (m *MockEstimator) SetOptions(opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.optionsErr != nil {
		return m.optionsErr
	}
	m.opts = &opts
	return nil
}

// Options returns the last options set, or nil.
func (m *MockEstimator) Options() *Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// OnResults registers the results callback.
func (m *MockEstimator) OnResults(fn func(Results)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onResults = fn
}

// Send delivers the next queued results. The frame is ignored and may be nil.
func (m *MockEstimator) Send(ctx context.Context, frame *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return err
	}
	if len(m.queue) > 0 {
		m.last = m.queue[0]
		m.queue = m.queue[1:]
	}
	results := m.last
	callback := m.onResults
	m.sends++
	m.mu.Unlock()

	if callback != nil {
		callback(results)
	}
	return nil
}

// Sends returns how many frames have been sent successfully.
func (m *MockEstimator) Sends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// Close marks the estimator closed.
func (m *MockEstimator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockEstimator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PointingLandmarks returns a relaxed pointing hand: index extended, thumb
// tucked against the curled fingers. It triggers no interaction.
func PointingLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.50, Y: 0.85, Z: 0.0}

	// Thumb folded across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.80, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.56, Y: 0.74, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.52, Y: 0.66, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.47, Y: 0.62, Z: -0.03}

	// Index finger extended upward
	landmarks.Points[IndexMCP] = Point3D{X: 0.54, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.55, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.55, Y: 0.35, Z: 0.0}

	// Remaining fingers curled
	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.64, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.66, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.48, Y: 0.66, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.46, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.66, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.44, Y: 0.68, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.44, Y: 0.68, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.42, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.68, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.40, Y: 0.69, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.40, Y: 0.66, Z: -0.02}

	return landmarks
}

// PinchLandmarks returns a pointing hand with the middle fingertip resting
// 0.05 from the index fingertip and the thumb tip gap away from it. Gaps
// under 0.07 read as a drag grip, gaps under 0.04 as a click.
func PinchLandmarks(gap float64) HandLandmarks {
	landmarks := PointingLandmarks()
	index := landmarks.Points[IndexTip]

	landmarks.Points[MiddleTip] = Point3D{X: index.X - 0.03, Y: index.Y + 0.04, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: index.X + gap, Y: index.Y, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: index.X - 0.05, Y: index.Y + 0.10, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward, which spreads thumb and pinky apart.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// MoveIndexTo translates the whole hand so that the index fingertip lands on (x, y).
func MoveIndexTo(hand HandLandmarks, x, y float64) HandLandmarks {
	dx := x - hand.Points[IndexTip].X
	dy := y - hand.Points[IndexTip].Y
	for i := range hand.Points {
		hand.Points[i].X += dx
		hand.Points[i].Y += dy
	}
	return hand
}
