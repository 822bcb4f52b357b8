package app

import (
	"context"
	"sync"
	"time"
)

// Scheduler paces the frame loop.
type Scheduler interface {
	// Start is called before the loop begins.
	Start()
	// Wait blocks until the next frame is due or ctx is done.
	Wait(ctx context.Context) error
	// Stop is called once when the loop exits.
	Stop()
}

// Ticker schedules frames at a fixed rate that can change while running.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	ticker   *time.Ticker
}

// NewTicker creates a Ticker firing fps times per second.
func NewTicker(fps int) *Ticker {
	return &Ticker{interval: fpsInterval(fps)}
}

func fpsInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = IdleFPS
	}
	return time.Second / time.Duration(fps)
}

// SetFPS changes the frame rate, taking effect from the next tick.
func (t *Ticker) SetFPS(fps int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = fpsInterval(fps)
	if t.ticker != nil {
		t.ticker.Reset(t.interval)
	}
}

// Interval returns the current time between frames.
func (t *Ticker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker == nil {
		t.ticker = time.NewTicker(t.interval)
	}
}

func (t *Ticker) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.ticker == nil {
		t.ticker = time.NewTicker(t.interval)
	}
	c := t.ticker.C
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c:
		return nil
	}
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

// Manual runs one frame per call to Tick. It lets tests step the loop
// deterministically.
type Manual struct {
	mu      sync.Mutex
	ticks   chan chan struct{}
	pending chan struct{}
	stopped chan struct{}
}

// NewManual creates a Manual scheduler.
func NewManual() *Manual {
	stopped := make(chan struct{})
	close(stopped)
	return &Manual{
		ticks:   make(chan chan struct{}),
		stopped: stopped,
	}
}

// Tick runs one loop iteration and blocks until it has finished. It returns
// false if the loop is not running or exited instead of picking up the tick.
func (m *Manual) Tick() bool {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()

	done := make(chan struct{})
	select {
	case m.ticks <- done:
	case <-stopped:
		return false
	}

	select {
	case <-done:
	case <-stopped:
	}
	return true
}

func (m *Manual) Wait(ctx context.Context) error {
	m.finish()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-m.ticks:
		m.mu.Lock()
		m.pending = done
		m.mu.Unlock()
		return nil
	}
}

func (m *Manual) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = make(chan struct{})
}

func (m *Manual) Stop() {
	m.finish()

	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.stopped)
}

func (m *Manual) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		close(m.pending)
		m.pending = nil
	}
}
