package detector

import (
	"math"
	"testing"
)

// testMesh builds a complete mesh with every point at (400, 300), for
// tests to pin individual landmarks.
func testMesh() Mesh {
	m := make(Mesh, MeshPoints)
	for i := range m {
		m[i] = Point{X: 400, Y: 300}
	}
	return m
}

// TestEyeCenters verifies each eye center is the midpoint of its outer
// and inner corner.
func TestEyeCenters(t *testing.T) {
	m := testMesh()
	m[LeftEyeOuter] = Point{X: 100, Y: 200}
	m[LeftEyeInner] = Point{X: 140, Y: 204}
	m[RightEyeOuter] = Point{X: 300, Y: 200}
	m[RightEyeInner] = Point{X: 260, Y: 196}

	left, right := EyeCenters(m)
	if left.X != 120 || left.Y != 202 {
		t.Errorf("Expected left center (120, 202), got (%v, %v)", left.X, left.Y)
	}
	if right.X != 280 || right.Y != 198 {
		t.Errorf("Expected right center (280, 198), got (%v, %v)", right.X, right.Y)
	}
}

// TestGazeOffset verifies the sample is the mean horizontal iris
// deviation with its sign preserved.
func TestGazeOffset(t *testing.T) {
	m := testMesh()
	// Eye centers land at x=120 and x=280.
	m[LeftEyeOuter] = Point{X: 100, Y: 200}
	m[LeftEyeInner] = Point{X: 140, Y: 200}
	m[RightEyeOuter] = Point{X: 300, Y: 200}
	m[RightEyeInner] = Point{X: 260, Y: 200}

	m[LeftIris] = Point{X: 125, Y: 200}
	m[RightIris] = Point{X: 287, Y: 200}
	if got := GazeOffset(m); math.Abs(got-6) > 1e-6 {
		t.Errorf("Expected offset 6 from +5/+7 deviations, got %v", got)
	}

	m[LeftIris] = Point{X: 112, Y: 200}
	m[RightIris] = Point{X: 270, Y: 200}
	if got := GazeOffset(m); math.Abs(got+9) > 1e-6 {
		t.Errorf("Expected offset -9 from -8/-10 deviations, got %v", got)
	}

	m[LeftIris] = Point{X: 120, Y: 200}
	m[RightIris] = Point{X: 280, Y: 200}
	if got := GazeOffset(m); got != 0 {
		t.Errorf("Expected centered gaze to read 0, got %v", got)
	}
}

// TestSymmetryDiff verifies the cheek-distance asymmetry measure.
func TestSymmetryDiff(t *testing.T) {
	m := testMesh()
	m[NoseTip] = Point{X: 400, Y: 300}
	m[LeftCheek] = Point{X: 300, Y: 300}
	m[RightCheek] = Point{X: 520, Y: 300}

	if got := SymmetryDiff(m); math.Abs(got-20) > 1e-6 {
		t.Errorf("Expected asymmetry 20, got %v", got)
	}

	m[RightCheek] = Point{X: 500, Y: 300}
	if got := SymmetryDiff(m); got != 0 {
		t.Errorf("Expected symmetric face to read 0, got %v", got)
	}
}

// TestMouthRatio verifies the size-invariant lip gap and its guard
// against a degenerate face height.
func TestMouthRatio(t *testing.T) {
	m := testMesh()
	m[UpperLip] = Point{X: 400, Y: 310}
	m[LowerLip] = Point{X: 400, Y: 330}
	m[Chin] = Point{X: 400, Y: 420}
	m[Forehead] = Point{X: 400, Y: 220}

	if got := MouthRatio(m); math.Abs(got-0.1) > 1e-6 {
		t.Errorf("Expected ratio 0.1, got %v", got)
	}

	m[Chin] = m[Forehead]
	if got := MouthRatio(m); got != 0 {
		t.Errorf("Expected 0 for zero face height, got %v", got)
	}
}

// TestMeshCompleteness verifies the iris-point boundary: 478 points
// are complete, the bare 468-point mesh is not.
func TestMeshCompleteness(t *testing.T) {
	if !testMesh().Complete() {
		t.Errorf("Expected %d-point mesh to be complete", MeshPoints)
	}

	short := make(Mesh, 468)
	if short.Complete() {
		t.Errorf("Expected mesh without iris points to be incomplete")
	}
}

// TestMeshBounds verifies the tight box around all points.
func TestMeshBounds(t *testing.T) {
	m := testMesh()
	m[0] = Point{X: 10, Y: 700}
	m[50] = Point{X: 900, Y: 20}

	b := m.Bounds()
	if b.X1 != 10 || b.Y1 != 20 || b.X2 != 900 || b.Y2 != 700 {
		t.Errorf("Unexpected bounds: %+v", b)
	}
	if b.Width() != 890 || b.Height() != 680 {
		t.Errorf("Expected 890x680, got %vx%v", b.Width(), b.Height())
	}
	if c := b.Center(); c.X != 455 || c.Y != 360 {
		t.Errorf("Expected center (455, 360), got (%v, %v)", c.X, c.Y)
	}

	if (Mesh{}).Bounds() != (BoundingBox{}) {
		t.Errorf("Expected zero bounds for an empty mesh")
	}
}
