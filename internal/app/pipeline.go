package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/gesture"
)

// run is the frame loop. It owns the camera from a successful Start until it
// returns, and always leaves the page with no drag in progress and no cursor.
//
// Loop logic:
// 1. Wait for the scheduler
// 2. Read a frame and send it to the estimator (results arrive via HandleResults)
// 3. On any frame or estimator error, stop with StatusUnavailable
// 4. On cancellation, stop with StatusIdle
func (a *App) run(ctx context.Context, done chan struct{}) {
	var loopErr error

	defer func() {
		a.handLost()
		if err := a.config.Camera.Close(); err != nil {
			a.log.Warn("failed to close camera", "error", err)
		}

		a.mu.Lock()
		a.snapshot.HandVisible = false
		a.snapshot.Gesture = gesture.StateIdle
		a.snapshot.Dragging = ""
		a.mu.Unlock()

		if loopErr != nil {
			a.log.Error("hand control stopped", "error", loopErr)
			a.setStatus(StatusUnavailable, loopErr)
		} else {
			a.log.Info("hand control stopped")
			a.setStatus(StatusIdle, nil)
		}

		a.mu.Lock()
		a.cancel = nil
		a.done = nil
		a.mu.Unlock()

		a.scheduler.Stop()
		close(done)
	}()

	for {
		if err := a.scheduler.Wait(ctx); err != nil {
			return
		}
		if err := a.Tick(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			loopErr = err
			return
		}
	}
}

// Tick captures one frame and runs it through the estimator. Results are
// handled synchronously by HandleResults before Tick returns.
func (a *App) Tick(ctx context.Context) error {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	a.mu.Lock()
	taps := a.taps
	a.mu.Unlock()
	for _, fn := range taps {
		fn(frame)
	}

	if err := a.config.Estimator.Send(ctx, frame); err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	return nil
}

// HandleResults processes one frame's estimation: it smooths the primary
// hand, classifies the pose, moves the cursor and routes drag, click and
// scroll to the page. A frame without a hand releases any drag, hides the
// cursor and clears the smoothing history.
func (a *App) HandleResults(res detector.Results) {
	if a.config.Surface == nil {
		return
	}
	if a.Status() == StatusCalibrating {
		a.setStatus(StatusActive, nil)
	}

	hand := res.Primary()
	if hand == nil {
		a.handLost()
		a.noteHand(false)
		a.record(false, gesture.StateIdle)
		return
	}

	if a.config.Bridge != nil {
		wrist := hand.Points[detector.Wrist]
		a.config.Bridge.UpdateHandPosition(wrist.X, wrist.Y)
	}

	smoothed := a.smoother.Smooth(hand)
	reading := a.classifier.Classify(&smoothed)
	cursor := gesture.Cursor(&smoothed, a.config.Surface.Viewport())

	a.config.Surface.ShowCursor(cursor, reading.Click)
	a.drag.Update(reading.Drag, cursor)
	a.dispatch.Handle(reading, cursor)

	a.noteHand(true)
	a.record(true, reading.State)
}

// handLost ends the interaction for a frame with no usable hand.
func (a *App) handLost() {
	if a.config.Surface == nil {
		return
	}
	a.drag.Release()
	a.config.Surface.HideCursor()
	a.smoother.Reset()
}

// noteHand switches between idle and active frame rates.
func (a *App) noteHand(visible bool) {
	if a.config.Camera == nil {
		return
	}
	now := a.config.Now()
	if visible {
		a.lastHand = now
		if !a.active {
			a.active = true
			a.setFPS(ActiveFPS)
			a.log.Debug("switched to active mode")
		}
		return
	}
	if a.active && now.Sub(a.lastHand) > IdleTimeout {
		a.active = false
		a.setFPS(IdleFPS)
		a.log.Debug("switched to idle mode")
	}
}

func (a *App) record(visible bool, state gesture.State) {
	dragging := ""
	if s, ok := a.drag.Active(); ok {
		dragging = s.Target
	}

	a.mu.Lock()
	a.snapshot.Frames++
	a.snapshot.HandVisible = visible
	a.snapshot.Gesture = state
	a.snapshot.Dragging = dragging
	a.mu.Unlock()
}
