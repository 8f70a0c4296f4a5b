package detector

import "math"

// EyeCenters returns the midpoint of each eye's outer and inner corner,
// the reference point iris deviation is measured against.
func EyeCenters(m Mesh) (left, right Point) {
	lo, li := m.At(LeftEyeOuter), m.At(LeftEyeInner)
	ro, ri := m.At(RightEyeOuter), m.At(RightEyeInner)
	left = Point{X: (lo.X + li.X) / 2, Y: (lo.Y + li.Y) / 2}
	right = Point{X: (ro.X + ri.X) / 2, Y: (ro.Y + ri.Y) / 2}
	return left, right
}

// GazeOffset computes the per-frame gaze sample: the average horizontal
// distance of both irises from their eye centers, in pixels. Negative
// means the gaze points left, positive right.
func GazeOffset(m Mesh) float64 {
	left, right := EyeCenters(m)
	leftOff := float64(m.At(LeftIris).X - left.X)
	rightOff := float64(m.At(RightIris).X - right.X)
	return (leftOff + rightOff) / 2
}

// SymmetryDiff measures horizontal face asymmetry: the absolute
// difference between the nose-to-left-cheek and nose-to-right-cheek
// distances. A frontal, still head keeps this near zero.
func SymmetryDiff(m Mesh) float64 {
	nose := m.At(NoseTip)
	leftDist := math.Abs(float64(nose.X - m.At(LeftCheek).X))
	rightDist := math.Abs(float64(m.At(RightCheek).X - nose.X))
	return math.Abs(leftDist - rightDist)
}

// MouthRatio returns lip gap over face height, a size-invariant measure
// of mouth openness.
func MouthRatio(m Mesh) float64 {
	gap := dist(m.At(UpperLip), m.At(LowerLip))
	height := dist(m.At(Chin), m.At(Forehead))
	if height == 0 {
		return 0
	}
	return gap / height
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
