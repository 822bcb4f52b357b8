package gesture

import "github.com/ayusman/handcontrol/internal/detector"

// State is the dominant gesture of a frame.
type State string

const (
	StateIdle      State = "idle"
	StateDragging  State = "dragging"
	StateClicking  State = "clicking"
	StateScrolling State = "scrolling"
)

// Thresholds are the distance limits, in normalized image units, that define each gesture.
type Thresholds struct {
	// DragThumbIndex and DragIndexMiddle must both be undercut for a drag grip.
	DragThumbIndex  float64 `json:"dragThumbIndex"`
	DragIndexMiddle float64 `json:"dragIndexMiddle"`
	// ClickThumbIndex must be undercut for a click pinch.
	ClickThumbIndex float64 `json:"clickThumbIndex"`
	// ScrollThumbPinky must be exceeded for a spread hand to scroll.
	ScrollThumbPinky float64 `json:"scrollThumbPinky"`
	// ScrollGain converts the hand's offset from the vertical center into pixels per frame.
	ScrollGain float64 `json:"scrollGain"`
}

// DefaultThresholds returns the reference tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DragThumbIndex:   0.07,
		DragIndexMiddle:  0.08,
		ClickThumbIndex:  0.04,
		ScrollThumbPinky: 0.2,
		ScrollGain:       20,
	}
}

// Reading is the classification of one frame. The intent flags are computed
// independently; State resolves them with the precedence click > drag > scroll.
type Reading struct {
	ThumbIndex  float64
	IndexMiddle float64
	ThumbPinky  float64

	Drag        bool
	Click       bool
	Scroll      bool
	ScrollDelta float64

	State State
}

// Classifier derives gesture intents from smoothed landmarks.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Thresholds returns the thresholds in use.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify computes the intents of hand.
func (c *Classifier) Classify(hand *detector.HandLandmarks) Reading {
	r := Reading{
		ThumbIndex:  hand.Distance(detector.ThumbTip, detector.IndexTip),
		IndexMiddle: hand.Distance(detector.IndexTip, detector.MiddleTip),
		ThumbPinky:  hand.Distance(detector.ThumbTip, detector.PinkyTip),
	}

	r.Drag = r.ThumbIndex < c.t.DragThumbIndex && r.IndexMiddle < c.t.DragIndexMiddle
	r.Click = r.ThumbIndex < c.t.ClickThumbIndex
	r.Scroll = r.ThumbPinky > c.t.ScrollThumbPinky
	if r.Scroll {
		r.ScrollDelta = (hand.MeanY() - 0.5) * c.t.ScrollGain
	}

	switch {
	case r.Click:
		r.State = StateClicking
	case r.Drag:
		r.State = StateDragging
	case r.Scroll:
		r.State = StateScrolling
	default:
		r.State = StateIdle
	}
	return r
}
