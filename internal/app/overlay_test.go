package app

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/rep"
)

func nonZero(t *testing.T, frame gocv.Mat) int {
	t.Helper()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	return gocv.CountNonZero(gray)
}

func TestDraw(t *testing.T) {
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	res := coach.Result{
		Exercise:    rep.Squats,
		DisplayName: "Squats",
		Side:        rep.Both,
		Feedback:    "Rep 1!",
		BodyVisible: true,
		Pose:        pose.LegPose(100, 120),
	}
	Draw(&frame, res, rep.ProfileFor(rep.Squats), 0)

	if nonZero(t, frame) == 0 {
		t.Fatal("Draw() left the frame blank")
	}
}

func TestDraw_SkeletonBelowPanel(t *testing.T) {
	bare := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer bare.Close()
	withPose := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer withPose.Close()

	res := coach.Result{Exercise: rep.BicepCurls, DisplayName: "Bicep Curls", Side: rep.Left, Feedback: coach.NoBodyFeedback}
	Draw(&bare, res, rep.ProfileFor(rep.BicepCurls), 0.5)

	res.Pose = pose.StandingPose()
	Draw(&withPose, res, rep.ProfileFor(rep.BicepCurls), 0.5)

	if nonZero(t, withPose) <= nonZero(t, bare) {
		t.Error("skeleton was not drawn")
	}
}

func TestDraw_EmptyFrame(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	// must not panic
	Draw(&frame, coach.Result{}, rep.ProfileFor(rep.Squats), 0)
	Draw(nil, coach.Result{}, rep.ProfileFor(rep.Squats), 0)
}
