package rep

import (
	"errors"
	"fmt"
)

// ErrInvalidPlan is returned when a workout plan cannot be run.
var ErrInvalidPlan = errors.New("invalid workout plan")

// CompleteFeedback is shown once the last set reaches its target.
const CompleteFeedback = "Workout Complete! Stop the camera to save."

// Plan is what the user asked for: one exercise, one side mode, reps per set and sets.
type Plan struct {
	Exercise   Exercise `json:"exercise"`
	Side       Side     `json:"side"`
	TargetReps int      `json:"target_reps"`
	TargetSets int      `json:"target_sets"`
}

// Validate checks the plan and forces Both for both-only exercises.
func (p *Plan) Validate() error {
	prof, ok := profiles[p.Exercise]
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPlan, ErrUnknownExercise, p.Exercise)
	}
	switch p.Side {
	case Left, Right, Both:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidPlan, ErrUnknownSide, p.Side)
	}
	if p.TargetReps < 1 {
		return fmt.Errorf("%w: target reps must be positive, got %d", ErrInvalidPlan, p.TargetReps)
	}
	if p.TargetSets < 1 {
		return fmt.Errorf("%w: target sets must be positive, got %d", ErrInvalidPlan, p.TargetSets)
	}
	p.Side = prof.ResolveSide(p.Side)
	return nil
}

// Progress is a snapshot of the counters.
type Progress struct {
	CurrentSet    int   `json:"current_set"`
	TargetSets    int   `json:"target_sets"`
	TargetReps    int   `json:"target_reps"`
	RepsLeft      int   `json:"reps_left"`
	RepsRight     int   `json:"reps_right"`
	StageLeft     Stage `json:"stage_left,omitempty"`
	StageRight    Stage `json:"stage_right,omitempty"`
	SetsCompleted int   `json:"sets_completed"`
	// TotalLeft and TotalRight include reps from finished sets.
	TotalLeft  int  `json:"total_left"`
	TotalRight int  `json:"total_right"`
	Complete   bool `json:"complete"`
}

// Update is the outcome of one Feed call.
type Update struct {
	Counted     bool
	SetAdvanced bool
	// Completed is true only on the sample that finished the workout.
	Completed bool
	// Feedback is empty when the previous message still applies.
	Feedback string
	Progress Progress
}

// Controller groups repetitions into sets. It wraps a SideMachine for
// single-side plans and a BothMachine for both-sides plans.
type Controller struct {
	plan    Plan
	profile Profile
	single  *SideMachine
	both    *BothMachine

	currentSet    int
	setsCompleted int
	doneLeft      int
	doneRight     int
	complete      bool
}

// NewController validates the plan and returns a controller at set 1.
func NewController(plan Plan) (*Controller, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		plan:    plan,
		profile: ProfileFor(plan.Exercise),
	}
	if plan.Side == Both {
		c.both = NewBothMachine(c.profile)
	} else {
		c.single = NewSideMachine(c.profile)
	}
	c.Restart()
	return c, nil
}

// Plan returns the validated plan.
func (c *Controller) Plan() Plan { return c.plan }

// Profile returns the exercise profile in use.
func (c *Controller) Profile() Profile { return c.profile }

// Restart begins the workout again from set 1.
func (c *Controller) Restart() {
	c.currentSet = 1
	c.setsCompleted = 0
	c.doneLeft = 0
	c.doneRight = 0
	c.complete = false
	c.resetMachine()
}

func (c *Controller) resetMachine() {
	if c.both != nil {
		c.both.Reset(c.profile.Initial)
	} else {
		c.single.Reset(c.profile.Initial)
	}
}

// Feed consumes the angles of one frame. The angle of an untracked side is ignored.
// Once the workout is complete Feed changes nothing.
func (c *Controller) Feed(left, right float64) Update {
	if c.complete {
		return Update{Progress: c.Progress()}
	}

	var step Step
	switch {
	case c.both != nil:
		step = c.both.Step(left, right)
	case c.plan.Side == Right:
		step = c.single.Step(right)
	default:
		step = c.single.Step(left)
	}

	u := Update{Counted: step.Counted, Feedback: step.Feedback}
	if step.Counted && c.targetMet() {
		if c.currentSet < c.plan.TargetSets {
			c.advanceSet()
			u.SetAdvanced = true
			u.Feedback = fmt.Sprintf("Set %d complete! Next set: Get ready.", c.currentSet-1)
		} else {
			c.setsCompleted++
			c.complete = true
			u.Completed = true
			u.Feedback = CompleteFeedback
		}
	}
	u.Progress = c.Progress()
	return u
}

func (c *Controller) targetMet() bool {
	left, right := c.reps()
	switch c.plan.Side {
	case Left:
		return left >= c.plan.TargetReps
	case Right:
		return right >= c.plan.TargetReps
	default:
		return left >= c.plan.TargetReps && right >= c.plan.TargetReps
	}
}

func (c *Controller) advanceSet() {
	left, right := c.reps()
	c.doneLeft += left
	c.doneRight += right
	c.setsCompleted++
	c.currentSet++
	c.resetMachine()
}

// reps returns the current set's counters, attributing a single-side
// machine to the tracked side.
func (c *Controller) reps() (left, right int) {
	if c.both != nil {
		return c.both.Reps()
	}
	if c.plan.Side == Right {
		return 0, c.single.Reps()
	}
	return c.single.Reps(), 0
}

// Complete reports whether every set has reached its target.
func (c *Controller) Complete() bool { return c.complete }

// Progress returns the current counters.
func (c *Controller) Progress() Progress {
	left, right := c.reps()
	p := Progress{
		CurrentSet:    c.currentSet,
		TargetSets:    c.plan.TargetSets,
		TargetReps:    c.plan.TargetReps,
		RepsLeft:      left,
		RepsRight:     right,
		SetsCompleted: c.setsCompleted,
		TotalLeft:     c.doneLeft + left,
		TotalRight:    c.doneRight + right,
		Complete:      c.complete,
	}
	switch {
	case c.both != nil:
		p.StageLeft = c.both.Stage()
		p.StageRight = c.both.Stage()
	case c.plan.Side == Right:
		p.StageRight = c.single.Stage()
	default:
		p.StageLeft = c.single.Stage()
	}
	return p
}
