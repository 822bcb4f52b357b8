package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrEstimatorUnavailable is returned when the pose estimator cannot be loaded or started.
var ErrEstimatorUnavailable = errors.New("pose estimator unavailable")

// Estimator is the capability surface of the external hand pose estimator.
//
// Send submits one frame. Implementations invoke the registered results callback
// exactly once per successful Send, before Send returns, so callers never have
// more than one frame in flight.
type Estimator interface {
	// SetOptions configures the estimator. It is also where lazy loading happens,
	// so a missing model or runtime surfaces here as ErrEstimatorUnavailable.
	SetOptions(opts Options) error
	// OnResults registers the callback receiving per-frame results.
	OnResults(fn func(Results))
	// Send runs inference on a frame.
	Send(ctx context.Context, frame *gocv.Mat) error
	// Close releases any resources held by the estimator.
	Close() error
}

// Options holds configuration options for hand detection.
type Options struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int `json:"maxNumHands"`
	// ModelComplexity selects the landmark model (0 = lite, 1 = full).
	ModelComplexity int `json:"modelComplexity"`
	// MinDetectionConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConfidence float64 `json:"minDetectionConfidence"`
	// MinTrackingConfidence is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConfidence float64 `json:"minTrackingConfidence"`
}

// DefaultOptions returns the options used by the compact deployment:
// a single hand, the lite model and 0.6 confidence.
func DefaultOptions() Options {
	return Options{
		MaxHands:               1,
		ModelComplexity:        0,
		MinDetectionConfidence: 0.6,
		MinTrackingConfidence:  0.6,
	}
}

// HDOptions returns the options used by the high resolution deployment.
func HDOptions() Options {
	return Options{
		MaxHands:               1,
		ModelComplexity:        1,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}
