package pose

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns a fixed detection, or plays back a scripted sequence one frame at a time.
type MockDetector struct {
	mu        sync.Mutex
	detection Detection
	sequence  []Detection
	next      int
	err       error
}

// NewMockDetector creates a new MockDetector that reports no body.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose returned by every Detect call. nil means no body.
func (m *MockDetector) SetPose(p *Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detection = Detection{Pose: p}
	m.sequence = nil
}

// SetSequence scripts one detection per Detect call. Once the script is
// exhausted the last detection is repeated.
func (m *MockDetector) SetSequence(seq []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured detection or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Detection{}, m.err
	}
	if len(m.sequence) == 0 {
		return m.detection, nil
	}

	idx := m.next
	if idx >= len(m.sequence) {
		idx = len(m.sequence) - 1
	} else {
		m.next++
	}
	return m.sequence[idx], nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPose returns a fully visible person standing upright, arms hanging
// straight and legs extended. Every tracked joint angle is close to 180°.
func StandingPose() *Pose {
	p := &Pose{}

	set := func(idx int, x, y float64) {
		p.Landmarks[idx] = Landmark{X: x, Y: y, Visibility: 0.99}
	}

	set(Nose, 0.50, 0.10)
	set(LeftEye, 0.48, 0.08)
	set(RightEye, 0.52, 0.08)

	// Person faces the camera, so their left side is on the image right.
	set(LeftShoulder, 0.60, 0.25)
	set(RightShoulder, 0.40, 0.25)
	set(LeftElbow, 0.60, 0.40)
	set(RightElbow, 0.40, 0.40)
	set(LeftWrist, 0.60, 0.55)
	set(RightWrist, 0.40, 0.55)

	set(LeftHip, 0.56, 0.55)
	set(RightHip, 0.44, 0.55)
	set(LeftKnee, 0.56, 0.72)
	set(RightKnee, 0.44, 0.72)
	set(LeftAnkle, 0.56, 0.90)
	set(RightAnkle, 0.44, 0.90)
	set(LeftHeel, 0.55, 0.92)
	set(RightHeel, 0.45, 0.92)
	set(LeftFootIndex, 0.58, 0.94)
	set(RightFootIndex, 0.42, 0.94)

	return p
}

// bend places the end joint of a limb so that the angle at vertex equals deg.
// The first segment runs from root to vertex; the end keeps the limb length.
func bend(p *Pose, root, vertex, end int, deg float64) {
	r := p.Landmarks[root]
	v := p.Landmarks[vertex]
	e := p.Landmarks[end]

	length := math.Hypot(e.X-v.X, e.Y-v.Y)
	base := math.Atan2(r.Y-v.Y, r.X-v.X)
	theta := base + deg*math.Pi/180

	p.Landmarks[end].X = v.X + length*math.Cos(theta)
	p.Landmarks[end].Y = v.Y + length*math.Sin(theta)
}

// ArmPose returns a standing pose with the elbows bent to the given angles
// (shoulder-elbow-wrist), in degrees.
func ArmPose(left, right float64) *Pose {
	p := StandingPose()
	bend(p, LeftShoulder, LeftElbow, LeftWrist, left)
	bend(p, RightShoulder, RightElbow, RightWrist, right)
	return p
}

// LegPose returns a standing pose with the knees bent to the given angles
// (hip-knee-ankle), in degrees.
func LegPose(left, right float64) *Pose {
	p := StandingPose()
	bend(p, LeftHip, LeftKnee, LeftAnkle, left)
	bend(p, RightHip, RightKnee, RightAnkle, right)
	return p
}

// RaisePose returns a standing pose with the arms raised so the
// hip-shoulder-wrist angle matches the given values, in degrees.
func RaisePose(left, right float64) *Pose {
	p := StandingPose()
	bend(p, LeftHip, LeftShoulder, LeftWrist, left)
	bend(p, RightHip, RightShoulder, RightWrist, right)
	// keep the elbow on the shoulder-wrist segment so the arm reads as straight
	for _, s := range [][3]int{{LeftShoulder, LeftElbow, LeftWrist}, {RightShoulder, RightElbow, RightWrist}} {
		sh, wr := p.Landmarks[s[0]], p.Landmarks[s[2]]
		p.Landmarks[s[1]].X = (sh.X + wr.X) / 2
		p.Landmarks[s[1]].Y = (sh.Y + wr.Y) / 2
	}
	return p
}
