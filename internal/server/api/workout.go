package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/rep"
)

// StopTimeout bounds how long a stop request may spend waiting for the frame
// loop and saving the workout. It is not tied to the client connection.
const StopTimeout = 30 * time.Second

// Workouts is the workout runner behind the API.
type Workouts interface {
	StartWorkout(plan rep.Plan) (coach.Result, error)
	StopWorkout(ctx context.Context) (app.StopResult, error)
	Snapshot() (coach.Result, bool)
}

// WorkoutHandler starts, inspects and stops the active workout.
type WorkoutHandler struct {
	workouts Workouts
	defaults rep.Plan
}

// NewWorkoutHandler creates a WorkoutHandler. Fields missing from a start
// request are taken from defaults.
func NewWorkoutHandler(w Workouts, defaults rep.Plan) *WorkoutHandler {
	return &WorkoutHandler{workouts: w, defaults: defaults}
}

type startWorkoutRequest struct {
	Exercise   string `json:"exercise"`
	Side       string `json:"side"`
	TargetReps int    `json:"target_reps"`
	TargetSets int    `json:"target_sets"`
}

// plan resolves the request against the defaults. Exercise and side accept
// either keys or display names.
func (req startWorkoutRequest) plan(defaults rep.Plan) (rep.Plan, error) {
	p := defaults
	if strings.TrimSpace(req.Exercise) != "" {
		e, err := rep.ParseExercise(req.Exercise)
		if err != nil {
			return p, err
		}
		p.Exercise = e
	}
	if strings.TrimSpace(req.Side) != "" {
		s, err := rep.ParseSide(req.Side)
		if err != nil {
			return p, err
		}
		p.Side = s
	}
	if req.TargetReps != 0 {
		p.TargetReps = req.TargetReps
	}
	if req.TargetSets != 0 {
		p.TargetSets = req.TargetSets
	}
	return p, nil
}

// Start handles POST /api/workout.
func (h *WorkoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startWorkoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	plan, err := req.plan(h.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.workouts.StartWorkout(plan)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, res)
	case errors.Is(err, app.ErrWorkoutRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rep.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("api: start workout: %s", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Get handles GET /api/workout.
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.workouts.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrNoWorkout.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stop handles DELETE /api/workout.
func (h *WorkoutHandler) Stop(w http.ResponseWriter, r *http.Request) {
	// a client that hangs up mid-stop must not cancel the cloud save
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), StopTimeout)
	defer cancel()

	res, err := h.workouts.StopWorkout(ctx)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, app.ErrNoWorkout):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Errorf("api: stop workout: %s", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
