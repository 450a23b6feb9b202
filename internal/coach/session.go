// Package coach turns per-frame pose detections into rep counts and coaching
// feedback for one active workout.
package coach

import (
	"fmt"
	"time"

	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/rep"
)

// NoBodyFeedback replaces the feedback for frames without the required joints.
const NoBodyFeedback = "Show your full body in frame!"

// NoRepsFeedback is announced when a workout is stopped before any rep.
const NoRepsFeedback = "No reps detected. Workout not logged."

// DefaultMinVisibility is the landmark visibility below which a joint counts as missing.
const DefaultMinVisibility = 0.5

// Options tunes a Session.
type Options struct {
	// MinVisibility is the landmark visibility floor. Zero uses DefaultMinVisibility.
	MinVisibility float64
	// Now is the clock. Nil uses time.Now.
	Now func() time.Time
}

// Result is the per-frame output of a Session.
type Result struct {
	Exercise    rep.Exercise `json:"exercise"`
	DisplayName string       `json:"display_name"`
	Side        rep.Side     `json:"side"`
	StageLeft   rep.Stage    `json:"stage_left,omitempty"`
	StageRight  rep.Stage    `json:"stage_right,omitempty"`
	RepsLeft    int          `json:"reps_left"`
	RepsRight   int          `json:"reps_right"`
	CurrentSet  int          `json:"current_set"`
	TargetSets  int          `json:"target_sets"`
	TargetReps  int          `json:"target_reps"`
	AngleLeft   float64      `json:"angle_left"`
	AngleRight  float64      `json:"angle_right"`
	Feedback    string       `json:"feedback"`
	NewFeedback bool         `json:"new_feedback"`
	BodyVisible bool         `json:"body_visible"`
	Counted     bool         `json:"counted"`
	SetAdvanced bool         `json:"set_advanced"`
	Complete    bool         `json:"complete"`
	Elapsed     float64      `json:"elapsed_seconds"`

	// Pose is the detection the result was computed from, kept for drawing.
	Pose *pose.Pose `json:"-"`
}

// Session is one workout in progress. It is not safe for concurrent use;
// the frame loop owns it.
type Session struct {
	ctrl          *rep.Controller
	profile       rep.Profile
	minVisibility float64
	now           func() time.Time

	startedAt time.Time
	feedback  string
	hidden    bool
	last      Result
}

// NewSession validates the plan and starts the clock.
func NewSession(plan rep.Plan, opts Options) (*Session, error) {
	ctrl, err := rep.NewController(plan)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ctrl:          ctrl,
		profile:       ctrl.Profile(),
		minVisibility: opts.MinVisibility,
		now:           opts.Now,
	}
	if s.minVisibility <= 0 {
		s.minVisibility = DefaultMinVisibility
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.startedAt = s.now()
	s.feedback = StartFeedback(1)
	s.last = s.result(s.ctrl.Progress(), 0, 0)
	return s, nil
}

// StartFeedback is the prompt shown when a set begins.
func StartFeedback(set int) string {
	return fmt.Sprintf("Set %d! Get in position!", set)
}

// Plan returns the validated plan.
func (s *Session) Plan() rep.Plan { return s.ctrl.Plan() }

// Profile returns the exercise profile.
func (s *Session) Profile() rep.Profile { return s.profile }

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Last returns the most recent result.
func (s *Session) Last() Result { return s.last }

// Process consumes one detection. Frames without the required joints leave
// every counter untouched and report NoBodyFeedback for that frame only.
//
// NewFeedback marks the frames worth speaking: the first frame of a dropout
// and frames where the controller produced a line. The feedback restored when
// the body comes back was already heard and is not marked.
func (s *Session) Process(det pose.Detection) Result {
	left, right, ok := s.angles(det.Pose)
	if !ok {
		r := s.result(s.ctrl.Progress(), 0, 0)
		r.Feedback = NoBodyFeedback
		r.NewFeedback = !s.hidden
		r.Pose = det.Pose
		s.hidden = true
		s.last = r
		return r
	}
	s.hidden = false

	u := s.ctrl.Feed(left, right)
	if u.Feedback != "" {
		s.feedback = u.Feedback
	}

	r := s.result(u.Progress, left, right)
	r.BodyVisible = true
	r.NewFeedback = u.Feedback != ""
	r.Counted = u.Counted
	r.SetAdvanced = u.SetAdvanced
	r.Pose = det.Pose
	s.last = r
	return r
}

// angles measures the tracked sides. An untracked side reads as zero.
func (s *Session) angles(p *pose.Pose) (left, right float64, ok bool) {
	if p == nil {
		return 0, 0, false
	}

	side := s.ctrl.Plan().Side
	if side == rep.Left || side == rep.Both {
		pts, found := p.Points(s.profile.Triplet(rep.Left), s.minVisibility)
		if !found {
			return 0, 0, false
		}
		left = rep.Angle(pts[0], pts[1], pts[2])
	}
	if side == rep.Right || side == rep.Both {
		pts, found := p.Points(s.profile.Triplet(rep.Right), s.minVisibility)
		if !found {
			return 0, 0, false
		}
		right = rep.Angle(pts[0], pts[1], pts[2])
	}
	return left, right, true
}

func (s *Session) result(p rep.Progress, left, right float64) Result {
	plan := s.ctrl.Plan()
	return Result{
		Exercise:    plan.Exercise,
		DisplayName: s.profile.DisplayName,
		Side:        plan.Side,
		StageLeft:   p.StageLeft,
		StageRight:  p.StageRight,
		RepsLeft:    p.RepsLeft,
		RepsRight:   p.RepsRight,
		CurrentSet:  p.CurrentSet,
		TargetSets:  p.TargetSets,
		TargetReps:  p.TargetReps,
		AngleLeft:   left,
		AngleRight:  right,
		Feedback:    s.feedback,
		Complete:    p.Complete,
		Elapsed:     s.now().Sub(s.startedAt).Seconds(),
	}
}

// Summary is the record handed to persistence when a workout stops.
type Summary struct {
	Exercise      rep.Exercise `json:"exercise"`
	DisplayName   string       `json:"display_name"`
	Side          rep.Side     `json:"side"`
	RepsLeft      int          `json:"reps_left"`
	RepsRight     int          `json:"reps_right"`
	SetNumber     int          `json:"set_number"`
	SetsCompleted int          `json:"sets_completed"`
	TargetReps    int          `json:"target_reps"`
	TargetSets    int          `json:"target_sets"`
	Duration      float64      `json:"duration_seconds"`
	StartedAt     time.Time    `json:"started_at"`
	StoppedAt     time.Time    `json:"stopped_at"`
	Complete      bool         `json:"complete"`
}

// Summary closes the books on the session. Reps are totals across all sets.
func (s *Session) Summary() Summary {
	p := s.ctrl.Progress()
	plan := s.ctrl.Plan()
	stopped := s.now()
	return Summary{
		Exercise:      plan.Exercise,
		DisplayName:   s.profile.DisplayName,
		Side:          plan.Side,
		RepsLeft:      p.TotalLeft,
		RepsRight:     p.TotalRight,
		SetNumber:     p.CurrentSet,
		SetsCompleted: p.SetsCompleted,
		TargetReps:    plan.TargetReps,
		TargetSets:    plan.TargetSets,
		Duration:      stopped.Sub(s.startedAt).Seconds(),
		StartedAt:     s.startedAt,
		StoppedAt:     stopped,
		Complete:      p.Complete,
	}
}

// HasReps reports whether the workout is worth saving.
func (s Summary) HasReps() bool {
	return s.RepsLeft > 0 || s.RepsRight > 0
}

// Announcement is the line spoken when the workout stops.
func (s Summary) Announcement() string {
	if !s.HasReps() {
		return NoRepsFeedback
	}
	return fmt.Sprintf("Set %d complete! Left: %d, Right: %d reps.", s.SetNumber, s.RepsLeft, s.RepsRight)
}
