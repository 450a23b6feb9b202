package app

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/rep"
)

var (
	colorBone    = color.RGBA{R: 245, G: 117, B: 66}
	colorJoint   = color.RGBA{R: 245, G: 66, B: 230}
	colorText    = color.RGBA{R: 255, G: 255, B: 255}
	colorPanel   = color.RGBA{R: 16, G: 117, B: 245}
	colorWarning = color.RGBA{R: 230, G: 40, B: 40}
)

// Draw annotates frame in place with the skeleton, the tracked joint angles
// and a status panel.
func Draw(frame *gocv.Mat, res coach.Result, profile rep.Profile, minVisibility float64) {
	if frame == nil || frame.Empty() {
		return
	}
	if minVisibility <= 0 {
		minVisibility = coach.DefaultMinVisibility
	}

	w, h := frame.Cols(), frame.Rows()
	if res.Pose != nil {
		drawSkeleton(frame, res.Pose, minVisibility, w, h)
		if res.BodyVisible {
			drawAngles(frame, res, profile, w, h)
		}
	}
	drawPanel(frame, res, w)
}

func toPixel(l pose.Landmark, w, h int) image.Point {
	return image.Pt(int(l.X*float64(w)), int(l.Y*float64(h)))
}

func drawSkeleton(frame *gocv.Mat, p *pose.Pose, minVisibility float64, w, h int) {
	for _, c := range pose.Connections {
		a, b := p.Landmarks[c[0]], p.Landmarks[c[1]]
		if a.Visibility < minVisibility || b.Visibility < minVisibility {
			continue
		}
		gocv.Line(frame, toPixel(a, w, h), toPixel(b, w, h), colorBone, 2)
	}
	for _, l := range p.Landmarks {
		if l.Visibility < minVisibility {
			continue
		}
		gocv.Circle(frame, toPixel(l, w, h), 3, colorJoint, -1)
	}
}

func drawAngles(frame *gocv.Mat, res coach.Result, profile rep.Profile, w, h int) {
	label := func(side rep.Side, angle float64) {
		vertex := res.Pose.Landmarks[profile.Triplet(side)[1]]
		gocv.PutText(frame, fmt.Sprintf("%.0f", angle), toPixel(vertex, w, h).Add(image.Pt(8, -8)),
			gocv.FontHersheySimplex, 0.5, colorText, 2)
	}
	if res.Side == rep.Left || res.Side == rep.Both {
		label(rep.Left, res.AngleLeft)
	}
	if res.Side == rep.Right || res.Side == rep.Both {
		label(rep.Right, res.AngleRight)
	}
}

func drawPanel(frame *gocv.Mat, res coach.Result, w int) {
	gocv.Rectangle(frame, image.Rect(0, 0, w, 78), colorPanel, -1)

	lines := []string{
		fmt.Sprintf("%s (%s)  Set %d/%d", res.DisplayName, res.Side, res.CurrentSet, res.TargetSets),
		fmt.Sprintf("L: %d  R: %d  / %d", res.RepsLeft, res.RepsRight, res.TargetReps),
	}
	for i, line := range lines {
		gocv.PutText(frame, line, image.Pt(10, 22+i*22), gocv.FontHersheySimplex, 0.55, colorText, 1)
	}

	fb := colorText
	if !res.BodyVisible {
		fb = colorWarning
	}
	gocv.PutText(frame, res.Feedback, image.Pt(10, 68), gocv.FontHersheySimplex, 0.55, fb, 2)
}
