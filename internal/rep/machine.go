package rep

import "fmt"

// Feedback messages emitted by the state machines.
const (
	ReadyFeedback     = "Ready"
	ReadyNextFeedback = "Ready for next rep"
	MoveRightFeedback = "ERROR: Move right side too!"
	MoveLeftFeedback  = "ERROR: Move left side too!"
	GoLowerFeedback   = "Go lower!"
)

// Step is the outcome of feeding one angle sample to a machine.
type Step struct {
	// Counted is true when the sample completed a repetition.
	Counted bool
	// Feedback is empty when nothing changed; callers keep the previous message.
	Feedback string
}

func repFeedback(n int) string {
	return fmt.Sprintf("Rep %d!", n)
}

// SideMachine tracks a single limb.
//
// From the reference stage, dropping below the down threshold counts a rep and
// moves to the opposite stage. From the opposite stage, rising above the up
// threshold returns to the reference stage. Angles between the thresholds
// never change state.
type SideMachine struct {
	profile Profile
	stage   Stage
	reps    int
}

// NewSideMachine creates a machine in the profile's initial stage.
func NewSideMachine(p Profile) *SideMachine {
	return &SideMachine{profile: p, stage: p.Initial}
}

// Step consumes one angle sample in degrees.
func (m *SideMachine) Step(angle float64) Step {
	p := m.profile

	if angle < p.DownThreshold && m.stage == p.Reference {
		m.stage = p.Reference.Opposite()
		m.reps++
		return Step{Counted: true, Feedback: repFeedback(m.reps)}
	}
	if angle > p.UpThreshold && m.stage != p.Reference {
		m.stage = p.Reference
		return Step{Feedback: ReadyFeedback}
	}
	return Step{}
}

// Stage returns the current stage.
func (m *SideMachine) Stage() Stage { return m.stage }

// Reps returns the repetitions counted since the last reset.
func (m *SideMachine) Reps() int { return m.reps }

// Reset zeroes the counter and moves to the given stage.
func (m *SideMachine) Reset(stage Stage) {
	m.stage = stage
	m.reps = 0
}

// BothMachine tracks the left and right limbs together with one shared stage.
// A transition needs both sides to cross the same threshold in the same sample;
// a one-sided crossing produces a coaching message instead of a count.
type BothMachine struct {
	profile Profile
	stage   Stage
	left    int
	right   int
}

// NewBothMachine creates a machine in the profile's initial stage.
func NewBothMachine(p Profile) *BothMachine {
	return &BothMachine{profile: p, stage: p.Initial}
}

// Step consumes one pair of angle samples in degrees.
func (m *BothMachine) Step(left, right float64) Step {
	p := m.profile

	leftReached := left < p.DownThreshold
	rightReached := right < p.DownThreshold
	leftReset := left > p.UpThreshold
	rightReset := right > p.UpThreshold
	atReference := m.stage == p.Reference

	var step Step
	switch {
	case leftReached && rightReached && atReference:
		m.stage = p.Reference.Opposite()
		m.left++
		m.right++
		step = Step{Counted: true, Feedback: repFeedback(m.left)}
	case leftReset && rightReset && !atReference:
		m.stage = p.Reference
		step = Step{Feedback: ReadyNextFeedback}
	case leftReached && !rightReached && atReference:
		step = Step{Feedback: MoveRightFeedback}
	case !leftReached && rightReached && atReference:
		step = Step{Feedback: MoveLeftFeedback}
	}

	if p.StallHint && p.Reference == Up && m.stage == Up &&
		(between(left, p.DownThreshold, p.UpThreshold) || between(right, p.DownThreshold, p.UpThreshold)) {
		step.Feedback = GoLowerFeedback
	}

	return step
}

func between(v, lo, hi float64) bool {
	return lo < v && v < hi
}

// Stage returns the shared stage.
func (m *BothMachine) Stage() Stage { return m.stage }

// Reps returns the left and right counters.
func (m *BothMachine) Reps() (left, right int) { return m.left, m.right }

// Reset zeroes both counters and moves to the given stage.
func (m *BothMachine) Reset(stage Stage) {
	m.stage = stage
	m.left = 0
	m.right = 0
}
