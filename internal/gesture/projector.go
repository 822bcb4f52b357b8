package gesture

import (
	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/surface"
)

// Project maps a normalized landmark onto the viewport. The camera image is
// mirrored, so x is flipped.
func Project(p detector.Point3D, viewport surface.Size) surface.Point {
	return surface.Point{
		X: (1 - p.X) * viewport.Width,
		Y: p.Y * viewport.Height,
	}
}

// Cursor returns the viewport point under the hand's index fingertip.
func Cursor(hand *detector.HandLandmarks, viewport surface.Size) surface.Point {
	return Project(hand.Points[detector.IndexTip], viewport)
}
