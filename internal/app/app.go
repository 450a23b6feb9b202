// Package app runs one workout at a time: it drives the camera, the pose
// detector and the rep counter, and hands results to the UI, the voice and
// the workout history.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/rep"
	"github.com/ayusman/repcoach/internal/speech"
	"github.com/ayusman/repcoach/internal/store"
)

// DefaultJPEGQuality is the quality of the annotated frames served to the browser.
const DefaultJPEGQuality = 80

// SaveFailedFeedback is announced when the workout could not be logged anywhere.
const SaveFailedFeedback = "Failed to log workout."

var (
	// ErrWorkoutRunning is returned when a workout is started while another is active.
	ErrWorkoutRunning = errors.New("a workout is already running")
	// ErrNoWorkout is returned when stopping while idle.
	ErrNoWorkout = errors.New("no workout is running")
)

// Recorder persists finished workouts. Save reports whether it succeeded.
type Recorder interface {
	Save(ctx context.Context, l store.WorkoutLog) bool
}

// Config holds the collaborators of an App. Camera and Detector are required.
type Config struct {
	Camera    capture.Camera
	Detector  pose.Detector
	Announcer *speech.Announcer
	Recorder  Recorder
	Metrics   *metrics.Manager

	// MinVisibility is the landmark visibility floor handed to each session.
	MinVisibility float64
	JPEGQuality   int
	// Now is the session clock. Nil uses time.Now.
	Now func() time.Time
}

// StopResult is what StopWorkout reports back.
type StopResult struct {
	Summary coach.Summary `json:"summary"`
	Saved   bool          `json:"saved"`
	Message string        `json:"message"`
}

// App owns the active workout.
type App struct {
	config Config

	// runMu serializes StartWorkout and StopWorkout; it guards stopCh and done.
	runMu   sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	session *coach.Session

	mu          sync.RWMutex
	active      bool
	last        coach.Result
	jpeg        []byte
	frameSeq    uint64
	subscribers []func(coach.Result)
}

// New creates an App. Missing optional collaborators get silent defaults.
func New(config Config) *App {
	if config.Announcer == nil {
		config.Announcer = speech.NewAnnouncer(nil, speech.Settings{})
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = DefaultJPEGQuality
	}
	return &App{config: config}
}

// Announcer returns the voice feedback announcer.
func (a *App) Announcer() *speech.Announcer {
	return a.config.Announcer
}

// OnResult registers fn to receive every per-frame result. fn is called from
// the frame loop and must not block.
func (a *App) OnResult(fn func(coach.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// Running reports whether a workout is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// Snapshot returns the most recent result of the active workout.
func (a *App) Snapshot() (coach.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.active
}

// LatestJPEG returns the most recent annotated frame and its sequence number.
// The slice must not be modified.
func (a *App) LatestJPEG() ([]byte, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg, a.frameSeq
}

// StartWorkout validates the plan, opens the camera and starts the frame loop.
func (a *App) StartWorkout(plan rep.Plan) (coach.Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.done != nil {
		return coach.Result{}, ErrWorkoutRunning
	}

	sess, err := coach.NewSession(plan, coach.Options{
		MinVisibility: a.config.MinVisibility,
		Now:           a.config.Now,
	})
	if err != nil {
		return coach.Result{}, err
	}

	if err := a.config.Camera.Open(); err != nil {
		return coach.Result{}, fmt.Errorf("start workout: %w", err)
	}

	first := sess.Last()
	a.mu.Lock()
	a.active = true
	a.last = first
	a.jpeg = nil
	a.mu.Unlock()

	a.session = sess
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(sess, a.stopCh, a.done)

	a.config.Metrics.GaugeActiveWorkout.Set(1)
	a.config.Announcer.Reset()
	a.announce(first.Feedback)

	p := sess.Plan()
	log.WithFields(log.Fields{
		"exercise": p.Exercise,
		"side":     p.Side,
		"reps":     p.TargetReps,
		"sets":     p.TargetSets,
	}).Info("workout started")
	return first, nil
}

// StopWorkout stops the frame loop, saves the workout if any rep was counted
// and announces the outcome. If ctx expires before the loop exits the
// workout stays in the stopping state and StopWorkout may be called again.
func (a *App) StopWorkout(ctx context.Context) (StopResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.done == nil {
		return StopResult{}, ErrNoWorkout
	}
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	select {
	case <-a.done:
	case <-ctx.Done():
		return StopResult{}, fmt.Errorf("stop workout: %w", ctx.Err())
	}

	sess := a.session
	a.done = nil
	a.session = nil

	a.mu.Lock()
	a.active = false
	a.mu.Unlock()
	a.config.Metrics.GaugeActiveWorkout.Set(0)

	sum := sess.Summary()
	res := StopResult{Summary: sum, Message: sum.Announcement()}
	if sum.HasReps() && a.config.Recorder != nil {
		res.Saved = a.config.Recorder.Save(ctx, workoutLog(sum))
		if !res.Saved {
			res.Message = SaveFailedFeedback
		}
	}

	a.config.Metrics.CounterWorkouts.WithLabelValues(string(sum.Exercise), strconv.FormatBool(sum.Complete)).Inc()
	if a.config.Announcer.Say(res.Message) {
		a.config.Metrics.CounterSpoken.Inc()
	}

	log.WithFields(log.Fields{
		"exercise":   sum.Exercise,
		"reps_left":  sum.RepsLeft,
		"reps_right": sum.RepsRight,
		"set":        sum.SetNumber,
		"saved":      res.Saved,
	}).Info("workout stopped")
	return res, nil
}

// Close stops any running workout and releases the detector.
func (a *App) Close(ctx context.Context) error {
	if _, err := a.StopWorkout(ctx); err != nil && !errors.Is(err, ErrNoWorkout) {
		return err
	}
	return a.config.Detector.Close()
}

func (a *App) announce(text string) {
	if a.config.Announcer.Announce(text) {
		a.config.Metrics.CounterSpoken.Inc()
	}
}

func workoutLog(s coach.Summary) store.WorkoutLog {
	return store.WorkoutLog{
		Exercise:   s.DisplayName,
		Side:       string(s.Side),
		RepsLeft:   s.RepsLeft,
		RepsRight:  s.RepsRight,
		Duration:   s.Duration,
		SetNumber:  s.SetNumber,
		TargetReps: s.TargetReps,
		TargetSets: s.TargetSets,
		Timestamp:  s.StoppedAt,
	}
}
