package rep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, plan Plan) *Controller {
	t.Helper()
	c, err := NewController(plan)
	require.NoError(t, err)
	return c
}

// squat feeds one full squat rep to both sides: down then back up.
func squat(c *Controller) (down, up Update) {
	return c.Feed(80, 80), c.Feed(170, 170)
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		wantErr error
	}{
		{"valid", Plan{Exercise: Squats, Side: Left, TargetReps: 10, TargetSets: 3}, nil},
		{"unknown exercise", Plan{Exercise: "deadlift", Side: Left, TargetReps: 1, TargetSets: 1}, ErrUnknownExercise},
		{"unknown side", Plan{Exercise: Squats, Side: "up", TargetReps: 1, TargetSets: 1}, ErrUnknownSide},
		{"zero reps", Plan{Exercise: Squats, Side: Left, TargetReps: 0, TargetSets: 1}, ErrInvalidPlan},
		{"zero sets", Plan{Exercise: Squats, Side: Left, TargetReps: 1, TargetSets: 0}, ErrInvalidPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestPlan_ValidateForcesBoth(t *testing.T) {
	p := Plan{Exercise: JumpingJacks, Side: Left, TargetReps: 5, TargetSets: 1}
	require.NoError(t, p.Validate())
	assert.Equal(t, Both, p.Side)
}

func TestController_InitialProgress(t *testing.T) {
	c := newController(t, Plan{Exercise: BicepCurls, Side: Right, TargetReps: 10, TargetSets: 3})

	p := c.Progress()
	assert.Equal(t, 1, p.CurrentSet)
	assert.Equal(t, 3, p.TargetSets)
	assert.Equal(t, 10, p.TargetReps)
	assert.Zero(t, p.RepsLeft)
	assert.Zero(t, p.RepsRight)
	assert.Equal(t, Down, p.StageRight)
	assert.Empty(t, p.StageLeft)
	assert.False(t, p.Complete)
}

func TestController_SingleSideUsesTrackedAngle(t *testing.T) {
	t.Run("left", func(t *testing.T) {
		c := newController(t, Plan{Exercise: Squats, Side: Left, TargetReps: 10, TargetSets: 1})
		c.Feed(170, 80)
		assert.Zero(t, c.Progress().RepsLeft)

		u := c.Feed(80, 170)
		assert.True(t, u.Counted)
		assert.Equal(t, 1, u.Progress.RepsLeft)
		assert.Zero(t, u.Progress.RepsRight)
	})

	t.Run("right", func(t *testing.T) {
		c := newController(t, Plan{Exercise: Squats, Side: Right, TargetReps: 10, TargetSets: 1})
		u := c.Feed(170, 80)
		assert.True(t, u.Counted)
		assert.Zero(t, u.Progress.RepsLeft)
		assert.Equal(t, 1, u.Progress.RepsRight)
	})
}

func TestController_AdvancesSet(t *testing.T) {
	c := newController(t, Plan{Exercise: Squats, Side: Both, TargetReps: 2, TargetSets: 2})

	squat(c)
	down, _ := squat(c)

	assert.True(t, down.Counted)
	assert.True(t, down.SetAdvanced)
	assert.False(t, down.Completed)
	assert.Equal(t, "Set 1 complete! Next set: Get ready.", down.Feedback)

	p := down.Progress
	assert.Equal(t, 2, p.CurrentSet)
	assert.Equal(t, 1, p.SetsCompleted)
	assert.Zero(t, p.RepsLeft)
	assert.Zero(t, p.RepsRight)
	assert.Equal(t, 2, p.TotalLeft)
	assert.Equal(t, 2, p.TotalRight)
	assert.Equal(t, Up, p.StageLeft, "new set starts in the initial stage")
}

func TestController_TargetDoesNotAdvanceEarly(t *testing.T) {
	c := newController(t, Plan{Exercise: Squats, Side: Left, TargetReps: 3, TargetSets: 2})

	squat(c)
	squat(c)
	p := c.Progress()
	assert.Equal(t, 1, p.CurrentSet)
	assert.Equal(t, 2, p.RepsLeft)
}

func TestController_Completes(t *testing.T) {
	c := newController(t, Plan{Exercise: BicepCurls, Side: Left, TargetReps: 1, TargetSets: 2})

	u := c.Feed(20, 0)
	require.True(t, u.SetAdvanced)

	u = c.Feed(20, 0)
	assert.True(t, u.Counted)
	assert.True(t, u.Completed)
	assert.Equal(t, CompleteFeedback, u.Feedback)
	assert.True(t, c.Complete())

	p := c.Progress()
	assert.True(t, p.Complete)
	assert.Equal(t, 2, p.SetsCompleted)
	assert.Equal(t, 2, p.CurrentSet)
	assert.Equal(t, 2, p.TotalLeft)
}

func TestController_CompleteIsSticky(t *testing.T) {
	c := newController(t, Plan{Exercise: Squats, Side: Left, TargetReps: 1, TargetSets: 1})

	u := c.Feed(80, 0)
	require.True(t, u.Completed)
	before := c.Progress()

	for _, a := range []float64{170, 80, 170, 80} {
		u = c.Feed(a, a)
		assert.False(t, u.Counted)
		assert.False(t, u.Completed)
		assert.Empty(t, u.Feedback)
	}
	assert.Equal(t, before, c.Progress())
}

func TestController_BothNeedsBothCounters(t *testing.T) {
	c := newController(t, Plan{Exercise: JumpingJacks, Side: Both, TargetReps: 1, TargetSets: 1})

	u := c.Feed(20, 90)
	assert.Equal(t, MoveRightFeedback, u.Feedback)
	assert.False(t, c.Complete())

	u = c.Feed(20, 20)
	assert.True(t, u.Completed)
}

func TestController_Restart(t *testing.T) {
	c := newController(t, Plan{Exercise: Squats, Side: Left, TargetReps: 1, TargetSets: 2})
	c.Feed(80, 0)
	c.Feed(170, 0)
	c.Feed(80, 0)
	require.True(t, c.Complete())

	c.Restart()
	p := c.Progress()
	assert.False(t, p.Complete)
	assert.Equal(t, 1, p.CurrentSet)
	assert.Zero(t, p.TotalLeft)
	assert.Zero(t, p.SetsCompleted)
}

func TestController_InvalidPlan(t *testing.T) {
	_, err := NewController(Plan{Exercise: Squats, Side: Left})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}
