package rep

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/repcoach/internal/pose"
)

// ErrUnknownExercise is returned when an exercise name is not in the profile table.
var ErrUnknownExercise = errors.New("unknown exercise")

// ErrUnknownSide is returned when a side name is not left, right or both.
var ErrUnknownSide = errors.New("unknown side")

// Exercise identifies one of the supported exercises.
type Exercise string

const (
	BicepCurls    Exercise = "bicep_curls"
	Squats        Exercise = "squats"
	PushUps       Exercise = "push_ups"
	OverheadPress Exercise = "overhead_press"
	Lunges        Exercise = "lunges"
	JumpingJacks  Exercise = "jumping_jacks"
	HighKnees     Exercise = "high_knees"
)

// Exercises lists every supported exercise in menu order.
var Exercises = []Exercise{BicepCurls, Squats, PushUps, OverheadPress, Lunges, JumpingJacks, HighKnees}

// Side selects which limb is tracked.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
	Both  Side = "both"
)

// Stage is the extreme a tracked limb is currently assigned to.
type Stage string

const (
	Up   Stage = "up"
	Down Stage = "down"
)

// Opposite returns the other stage.
func (s Stage) Opposite() Stage {
	if s == Up {
		return Down
	}
	return Up
}

// Joints names the body part whose angle is measured.
type Joints string

const (
	Elbow    Joints = "elbow"    // shoulder-elbow-wrist
	Knee     Joints = "knee"     // hip-knee-ankle
	Shoulder Joints = "shoulder" // hip-shoulder-wrist
)

// triplets maps a joint to its left and right landmark triplets.
var triplets = map[Joints][2]pose.Triplet{
	Elbow: {
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	},
	Knee: {
		{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{pose.RightHip, pose.RightKnee, pose.RightAnkle},
	},
	Shoulder: {
		{pose.LeftHip, pose.LeftShoulder, pose.LeftWrist},
		{pose.RightHip, pose.RightShoulder, pose.RightWrist},
	},
}

// Profile is the immutable counting configuration of one exercise.
type Profile struct {
	Exercise    Exercise `json:"exercise"`
	DisplayName string   `json:"display_name"`
	Joints      Joints   `json:"joints"`
	// UpThreshold is the angle above which the limb counts as extended.
	UpThreshold float64 `json:"up_threshold"`
	// DownThreshold is the angle below which the limb counts as flexed.
	DownThreshold float64 `json:"down_threshold"`
	// Reference is the stage from which crossing DownThreshold counts a rep.
	Reference Stage `json:"reference_stage"`
	// Initial is the stage a fresh set starts in.
	Initial Stage `json:"initial_stage"`
	// StallHint enables the "Go lower!" coaching message in both-sides mode.
	StallHint bool `json:"stall_hint"`
	// BothOnly exercises cannot be tracked one side at a time.
	BothOnly bool `json:"both_only"`
}

// Push-ups are counted on the knee joint (hip-knee-ankle), as the exercise
// table defines them, rather than on the elbow.
var profiles = map[Exercise]Profile{
	BicepCurls: {
		Exercise: BicepCurls, DisplayName: "Bicep Curls", Joints: Elbow,
		UpThreshold: 160, DownThreshold: 30, Reference: Down, Initial: Down,
	},
	Squats: {
		Exercise: Squats, DisplayName: "Squats", Joints: Knee,
		UpThreshold: 160, DownThreshold: 90, Reference: Up, Initial: Up, StallHint: true,
	},
	PushUps: {
		Exercise: PushUps, DisplayName: "Push-ups", Joints: Knee,
		UpThreshold: 160, DownThreshold: 90, Reference: Up, Initial: Up, StallHint: true,
	},
	OverheadPress: {
		Exercise: OverheadPress, DisplayName: "Overhead Press", Joints: Elbow,
		UpThreshold: 160, DownThreshold: 90, Reference: Down, Initial: Down,
	},
	Lunges: {
		Exercise: Lunges, DisplayName: "Lunges", Joints: Knee,
		UpThreshold: 160, DownThreshold: 100, Reference: Up, Initial: Up, StallHint: true,
	},
	JumpingJacks: {
		Exercise: JumpingJacks, DisplayName: "Jumping Jacks", Joints: Shoulder,
		UpThreshold: 160, DownThreshold: 30, Reference: Up, Initial: Up, BothOnly: true,
	},
	HighKnees: {
		Exercise: HighKnees, DisplayName: "High Knees", Joints: Knee,
		UpThreshold: 160, DownThreshold: 90, Reference: Up, Initial: Up,
	},
}

// ProfileFor returns the profile of a known exercise.
// It panics on an exercise that did not come from ParseExercise or Exercises.
func ProfileFor(e Exercise) Profile {
	p, ok := profiles[e]
	if !ok {
		panic(fmt.Sprintf("rep: no profile for exercise %q", e))
	}
	return p
}

// Triplet returns the landmark triplet measured on the given side.
// Both has no single triplet; callers measure Left and Right.
func (p Profile) Triplet(side Side) pose.Triplet {
	t := triplets[p.Joints]
	if side == Right {
		return t[1]
	}
	return t[0]
}

// ResolveSide forces Both for exercises that can only be tracked symmetrically.
func (p Profile) ResolveSide(side Side) Side {
	if p.BothOnly {
		return Both
	}
	return side
}

// Limb is the label used when asking which side to track.
func (p Profile) Limb() string {
	switch {
	case p.BothOnly:
		return "both"
	case p.Joints == Knee:
		return "leg"
	default:
		return "arm"
	}
}

// ParseExercise accepts a key ("bicep_curls") or a display name ("Bicep Curls").
func ParseExercise(s string) (Exercise, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	e := Exercise(key)
	if _, ok := profiles[e]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownExercise, s)
	}
	return e, nil
}

// ParseSide accepts left, right or both in any case.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case Left, Right, Both:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}
