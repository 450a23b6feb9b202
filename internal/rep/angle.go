// Package rep converts joint angles into repetition counts.
//
// It holds the exercise profile table, the hysteresis state machines that
// track each limb through its down/up excursion, and the controller that
// groups repetitions into sets.
package rep

import (
	"math"

	"github.com/ayusman/repcoach/internal/pose"
)

// angleEpsilon keeps the cosine finite when two landmarks overlap.
const angleEpsilon = 1e-7

// Angle returns the angle ABC in degrees, with b as the vertex.
// The result is always in [0, 180].
func Angle(a, b, c pose.Point) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	dot := bax*bcx + bay*bcy
	cos := dot / (math.Hypot(bax, bay)*math.Hypot(bcx, bcy) + angleEpsilon)

	// floating point can overshoot the acos domain
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}
