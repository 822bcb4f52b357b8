package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown is how long the Python process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
//
// Frames are written to the process as a 4-byte big-endian length followed by
// JPEG data; each frame is answered with one line of JSON.
type MediaPipeEstimator struct {
	opts      Options
	onResults func(Results)
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	log       *slog.Logger
}

// NewMediaPipeEstimator creates an estimator backed by scripts/mediapipe_service.py.
// The Python process is started by SetOptions and restarted lazily after idling.
func NewMediaPipeEstimator() *MediaPipeEstimator {
	return &MediaPipeEstimator{
		opts: DefaultOptions(),
		log:  slog.With("component", "mediapipe"),
	}
}

// SetOptions stores opts and (re)starts the Python process with them.
func (d *MediaPipeEstimator) SetOptions(opts Options) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started && d.opts == opts {
		return nil
	}
	if err := d.shutdown(); err != nil {
		d.log.Warn("mediapipe service exited with error", "error", err)
	}
	d.opts = opts
	return d.ensureStarted()
}

// OnResults registers the results callback.
func (d *MediaPipeEstimator) OnResults(fn func(Results)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResults = fn
}

// Send encodes the frame, runs it through the service and delivers the results.
func (d *MediaPipeEstimator) Send(ctx context.Context, frame *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame == nil || frame.Empty() {
		return fmt.Errorf("send frame: empty frame")
	}

	d.mu.Lock()
	results, err := d.detect(frame)
	callback := d.onResults
	d.mu.Unlock()
	if err != nil {
		return err
	}

	// Callback runs outside the lock so it may call back into the estimator.
	if callback != nil {
		callback(results)
	}
	return nil
}

func (d *MediaPipeEstimator) detect(frame *gocv.Mat) (Results, error) {
	if err := d.ensureStarted(); err != nil {
		return Results{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Results{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	if _, err := d.stdin.Write(length); err != nil {
		return Results{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return Results{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return Results{}, fmt.Errorf("read response: %w", err)
	}

	results, err := parseResponse([]byte(line))
	if err != nil {
		return Results{}, err
	}

	d.resetIdleTimer()
	return results, nil
}

// Close shuts down the Python process.
func (d *MediaPipeEstimator) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeEstimator) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return fmt.Errorf("%w: mediapipe_service.py not found", ErrEstimatorUnavailable)
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, append([]string{scriptPath}, optionArgs(d.opts)...)...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("%w: start mediapipe service: %v", ErrEstimatorUnavailable, err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.log.Info("mediapipe service started", "python", pythonPath, "model_complexity", d.opts.ModelComplexity)
	return nil
}

func (d *MediaPipeEstimator) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *MediaPipeEstimator) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.Debug("idle shutdown", "error", err)
		}
	})
}

// optionArgs renders opts as command line flags for the Python service.
func optionArgs(opts Options) []string {
	return []string{
		"--max-hands", strconv.Itoa(opts.MaxHands),
		"--model-complexity", strconv.Itoa(opts.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(opts.MinDetectionConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(opts.MinTrackingConfidence, 'f', -1, 64),
	}
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handcontrol/scripts/mediapipe_service.py"),
	}
	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handcontrol/venv/bin/python"),
	}
	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// parseResponse decodes one service response line. Hands reporting fewer
// than NumLandmarks points are dropped rather than padded with zeros.
func parseResponse(line []byte) (Results, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return Results{}, fmt.Errorf("parse response: %w", err)
	}

	results := Results{Hands: make([]HandLandmarks, 0, len(response.Hands))}
	for _, h := range response.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		results.Hands = append(results.Hands, lm)
	}
	return results, nil
}
