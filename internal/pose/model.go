package pose

import "github.com/veldtlab/vigil/internal/detector"

// ModelPoints returns the six canonical 3D reference points of a
// generic face, in a face-centered unit: nose tip, chin, left eye
// outer corner, right eye outer corner, left mouth corner, right mouth
// corner. The order is the correspondence contract with ImagePointsFor;
// the values are constant process-wide.
func ModelPoints() [6]Point3 {
	return [6]Point3{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: -330, Z: -65},
		{X: -225, Y: 170, Z: -135},
		{X: 225, Y: 170, Z: -135},
		{X: -150, Y: -150, Z: -125},
		{X: 150, Y: -150, Z: -125},
	}
}

var poseIndices = [6]detector.Index{
	detector.NoseTip,
	detector.Chin,
	detector.LeftEyeOuter,
	detector.RightEyeOuter,
	detector.MouthLeft,
	detector.MouthRight,
}

// ImagePointsFor extracts the six observed projections from a mesh, in
// ModelPoints order.
func ImagePointsFor(m detector.Mesh) [6]Point2 {
	var out [6]Point2
	for i, idx := range poseIndices {
		p := m.At(idx)
		out[i] = Point2{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}
