// Package app wires the estimator, camera and page surface into the hand
// control session: start/stop lifecycle, the frame loop and per-frame gesture handling.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/handcontrol/internal/capture"
	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/dispatch"
	"github.com/ayusman/handcontrol/internal/drag"
	"github.com/ayusman/handcontrol/internal/gesture"
	"github.com/ayusman/handcontrol/internal/surface"
	"gocv.io/x/gocv"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no hand is visible.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand is being tracked.
	ActiveFPS = 15
	// IdleTimeout is how long without a hand before dropping back to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// Status is the user-visible state of hand control.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusCalibrating Status = "calibrating"
	StatusActive      Status = "active"
	StatusUnavailable Status = "unavailable"
)

// ErrNotConfigured is returned by Start when the estimator or camera is missing.
var ErrNotConfigured = errors.New("hand control not configured")

// HostBridge receives the raw wrist position once per frame with a hand.
type HostBridge interface {
	UpdateHandPosition(x, y float64)
}

// Config holds the collaborators and tuning of a session.
type Config struct {
	Estimator detector.Estimator
	Camera    capture.Camera
	Surface   surface.Surface
	// Positions stores panel positions on release; nil disables persistence.
	Positions drag.Persister
	// Bridge is optional.
	Bridge HostBridge
	// Scheduler paces the loop; nil selects a Ticker at IdleFPS.
	Scheduler Scheduler

	Options         detector.Options
	Smoothing       float64
	Thresholds      gesture.Thresholds
	Drag            drag.Config
	ScrollContainer string

	// Now is the clock used for frame-rate switching. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a point-in-time view of the session for status reporting.
type Snapshot struct {
	Status      Status        `json:"status"`
	HandVisible bool          `json:"handVisible"`
	Gesture     gesture.State `json:"gesture"`
	Dragging    string        `json:"dragging,omitempty"`
	Frames      uint64        `json:"frames"`
	FPS         int           `json:"fps"`
	Error       string        `json:"error,omitempty"`
}

// App is one hand control session. Frame state (smoother, drag session,
// click latch) is only touched by the loop goroutine; the mutex guards the
// lifecycle fields and the snapshot read by other goroutines.
type App struct {
	config     Config
	smoother   *gesture.Smoother
	classifier *gesture.Classifier
	drag       *drag.Manager
	dispatch   *dispatch.Dispatcher
	scheduler  Scheduler
	log        *slog.Logger

	// loop goroutine only
	active   bool
	lastHand time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	snapshot  Snapshot
	listeners []func(Status)
	taps      []func(*gocv.Mat)
}

// New creates an App from config and registers it as the estimator's results handler.
func New(config Config) *App {
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.Drag.Draggable == nil {
		config.Drag = drag.DefaultConfig()
	}
	if config.Options == (detector.Options{}) {
		config.Options = detector.DefaultOptions()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Scheduler == nil {
		config.Scheduler = NewTicker(IdleFPS)
	}

	a := &App{
		config:     config,
		smoother:   gesture.NewSmoother(config.Smoothing),
		classifier: gesture.NewClassifier(config.Thresholds),
		scheduler:  config.Scheduler,
		log:        slog.With("component", "app"),
		snapshot:   Snapshot{Status: StatusIdle, Gesture: gesture.StateIdle, FPS: IdleFPS},
	}
	if config.Surface != nil {
		a.drag = drag.NewManager(config.Surface, config.Positions, config.Drag)
		a.dispatch = dispatch.New(config.Surface, config.ScrollContainer)
	}
	if config.Estimator != nil {
		config.Estimator.OnResults(a.HandleResults)
	}
	return a
}

// OnStatus registers fn to be called on every status change.
func (a *App) OnStatus(fn func(Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// OnFrame registers fn to see every captured frame before estimation. fn
// runs on the loop goroutine and must not keep the frame after returning.
func (a *App) OnFrame(fn func(*gocv.Mat)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taps = append(a.taps, fn)
}

// SetBridge replaces the host bridge. It must be called before Start.
func (a *App) SetBridge(b HostBridge) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Bridge = b
}

// Status returns the current status.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Status
}

// Snapshot returns the current session view.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Running reports whether the frame loop is running.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

func (a *App) setStatus(s Status, err error) {
	a.mu.Lock()
	changed := a.snapshot.Status != s
	a.snapshot.Status = s
	if err != nil {
		a.snapshot.Error = err.Error()
	} else if s != StatusUnavailable {
		a.snapshot.Error = ""
	}
	listeners := a.listeners
	a.mu.Unlock()

	if !changed {
		return
	}
	a.log.Info("status changed", "status", s)
	for _, fn := range listeners {
		fn(s)
	}
}

// Start loads the estimator, acquires the camera and starts the frame loop.
// ctx bounds the lifetime of the loop, not just the start-up. Starting a
// running session is a no-op. On failure the status becomes
// StatusUnavailable, the camera is not held, and nothing is retried until
// the next Start.
func (a *App) Start(ctx context.Context) error {
	if a.config.Estimator == nil || a.config.Camera == nil || a.config.Surface == nil {
		return ErrNotConfigured
	}

	a.mu.Lock()
	if a.done != nil {
		a.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	a.done = done
	a.mu.Unlock()

	a.setStatus(StatusLoading, nil)

	abort := func(err error) error {
		a.mu.Lock()
		a.done = nil
		a.mu.Unlock()
		close(done)
		a.log.Error("hand control unavailable", "error", err)
		a.setStatus(StatusUnavailable, err)
		return err
	}

	if err := a.config.Estimator.SetOptions(a.config.Options); err != nil {
		return abort(fmt.Errorf("load estimator: %w", err))
	}
	if err := a.config.Camera.Open(); err != nil {
		return abort(fmt.Errorf("open camera: %w", err))
	}

	a.smoother.Reset()
	a.active = false
	a.setFPS(IdleFPS)

	loopCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.snapshot.Frames = 0
	a.mu.Unlock()

	a.setStatus(StatusCalibrating, nil)
	a.scheduler.Start()
	go a.run(loopCtx, done)

	a.log.Info("hand control started", "model_complexity", a.config.Options.ModelComplexity)
	return nil
}

// Stop halts the loop at the next iteration boundary and waits for it to
// release the camera. Stopping an idle session is a no-op.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the loop exits.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (a *App) setFPS(fps int) {
	a.config.Camera.SetFPS(fps)
	if r, ok := a.scheduler.(interface{ SetFPS(int) }); ok {
		r.SetFPS(fps)
	}
	a.mu.Lock()
	a.snapshot.FPS = fps
	a.mu.Unlock()
}
