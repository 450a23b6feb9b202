// Package pose provides body-landmark detection interfaces and types for rep counting.
package pose

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Point is a normalized 2D image coordinate (origin top-left, range ~[0,1]).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a single detected body joint.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point drops depth and visibility.
func (l Landmark) Point() Point {
	return Point{X: l.X, Y: l.Y}
}

// Pose holds the 33 landmarks of one tracked person.
type Pose struct {
	Landmarks [NumLandmarks]Landmark `json:"landmarks"`
}

// Detection is the detector output for one frame.
// A nil Pose means no body was found.
type Detection struct {
	Pose *Pose `json:"pose"`
}

// Found reports whether the frame contained a body.
func (d Detection) Found() bool {
	return d.Pose != nil
}

// Triplet is an ordered group of three landmark indices; the middle one is the vertex.
type Triplet [3]int

// Points returns the 2D points of the triplet, or false if any landmark index
// is out of range or its visibility is below minVisibility.
func (p *Pose) Points(t Triplet, minVisibility float64) ([3]Point, bool) {
	var pts [3]Point
	if p == nil {
		return pts, false
	}
	for i, idx := range t {
		if idx < 0 || idx >= NumLandmarks {
			return pts, false
		}
		lm := p.Landmarks[idx]
		if lm.Visibility < minVisibility {
			return pts, false
		}
		pts[i] = lm.Point()
	}
	return pts, true
}

// Connections lists the skeleton edges drawn over the video.
var Connections = [][2]int{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
	{LeftAnkle, LeftHeel},
	{LeftHeel, LeftFootIndex},
	{RightAnkle, RightHeel},
	{RightHeel, RightFootIndex},
}
