package pose

import (
	"errors"
	"math"
	"testing"
)

// project maps model points through a known pose onto pixel
// coordinates, the synthetic inverse of Solve.
func project(r [3][3]float64, t [3]float64, k Intrinsics, object [6]Point3) [6]Point2 {
	var out [6]Point2
	for i, p := range object {
		q := apply(r, [3]float64{p.X, p.Y, p.Z})
		x, y, z := q[0]+t[0], q[1]+t[1], q[2]+t[2]
		out[i] = Point2{
			X: k.Focal*(x/z) + k.Cx,
			Y: k.Focal*(y/z) + k.Cy,
		}
	}
	return out
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// TestSolveRecoversYaw runs synthetic head turns through projection and
// back, checking the solved yaw against the constructed one. The two
// values either side of the 10 degree limit matter most downstream.
func TestSolveRecoversYaw(t *testing.T) {
	k := IntrinsicsFor(1280, 720)
	object := ModelPoints()

	for _, yaw := range []float64{0, 9.9, 10.1, 25, -15, -40} {
		r := rotY(yaw)
		tv := [3]float64{0, 0, 1000}

		p, err := Solve(object, project(r, tv, k, object), k)
		if err != nil {
			t.Fatalf("Solve failed for yaw %v: %v", yaw, err)
		}

		angles := p.Angles()
		if math.Abs(angles.Yaw-yaw) > 1e-3 {
			t.Errorf("Expected yaw %.2f, got %.5f", yaw, angles.Yaw)
		}
		if math.Abs(angles.Pitch) > 1e-3 || math.Abs(angles.Roll) > 1e-3 {
			t.Errorf("Expected zero pitch/roll for a pure turn, got %.5f/%.5f",
				angles.Pitch, angles.Roll)
		}
	}
}

// TestSolveRecoversFullPose checks rotation and translation round trips
// for composed poses, plus that the solved matrix is a proper rotation.
func TestSolveRecoversFullPose(t *testing.T) {
	k := IntrinsicsFor(1280, 720)
	object := ModelPoints()

	tests := []struct {
		name             string
		pitch, yaw, roll float64
		tv               [3]float64
	}{
		{"composed rotation", 10, 25, 5, [3]float64{20, -40, 1100}},
		{"identity with offset", 0, 0, 0, [3]float64{50, -30, 900}},
		{"pitch dive", -20, 0, 0, [3]float64{0, 60, 950}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mul3(mul3(rotZ(tt.roll), rotY(tt.yaw)), rotX(tt.pitch))

			p, err := Solve(object, project(r, tt.tv, k, object), k)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}

			angles := p.Angles()
			if math.Abs(angles.Pitch-tt.pitch) > 1e-3 ||
				math.Abs(angles.Yaw-tt.yaw) > 1e-3 ||
				math.Abs(angles.Roll-tt.roll) > 1e-3 {
				t.Errorf("Expected (pitch=%v yaw=%v roll=%v), got (%.5f %.5f %.5f)",
					tt.pitch, tt.yaw, tt.roll, angles.Pitch, angles.Yaw, angles.Roll)
			}

			for i, want := range tt.tv {
				if math.Abs(p.T[i]-want) > 1e-2 {
					t.Errorf("T[%d]: expected %.1f, got %.5f", i, want, p.T[i])
				}
			}

			if d := det3(p.R); math.Abs(d-1) > 1e-9 {
				t.Errorf("Expected det(R) = 1, got %v", d)
			}
		})
	}
}

// TestSolveDegenerateInputs verifies landmark collapse cases return
// ErrDegenerate instead of a fabricated pose.
func TestSolveDegenerateInputs(t *testing.T) {
	k := IntrinsicsFor(1280, 720)
	object := ModelPoints()

	t.Run("collinear points", func(t *testing.T) {
		var image [6]Point2
		for i := range image {
			image[i] = Point2{X: 100 + 200*float64(i), Y: 360}
		}
		_, err := Solve(object, image, k)
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("Expected ErrDegenerate for collinear points, got %v", err)
		}
	})

	t.Run("coincident points", func(t *testing.T) {
		var image [6]Point2
		for i := range image {
			image[i] = Point2{X: 640, Y: 360}
		}
		_, err := Solve(object, image, k)
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("Expected ErrDegenerate for coincident points, got %v", err)
		}
	})

	t.Run("non-finite point", func(t *testing.T) {
		image := project(rotY(5), [3]float64{0, 0, 1000}, k, object)
		image[2].X = math.NaN()
		_, err := Solve(object, image, k)
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("Expected ErrDegenerate for NaN input, got %v", err)
		}
	})

	t.Run("bad intrinsics", func(t *testing.T) {
		image := project(rotY(5), [3]float64{0, 0, 1000}, k, object)
		if _, err := Solve(object, image, Intrinsics{}); err == nil {
			t.Errorf("Expected error for zero focal length")
		}
	})
}

// TestSolveFailureIsNotZeroYaw pins down that a failed solve is an
// error, never a zero-angle pose: frontal input succeeds with yaw near
// zero, collapsed input fails outright. The two outcomes must stay
// distinguishable because only the first may feed classification.
func TestSolveFailureIsNotZeroYaw(t *testing.T) {
	k := IntrinsicsFor(1280, 720)
	object := ModelPoints()

	p, err := Solve(object, project(rotY(0), [3]float64{0, 0, 1000}, k, object), k)
	if err != nil {
		t.Fatalf("Frontal solve failed: %v", err)
	}
	if math.Abs(p.Angles().Yaw) > 1e-3 {
		t.Errorf("Frontal pose should have near-zero yaw, got %v", p.Angles().Yaw)
	}

	var collapsed [6]Point2
	for i := range collapsed {
		collapsed[i] = Point2{X: 640, Y: 360}
	}
	if _, err := Solve(object, collapsed, k); err == nil {
		t.Errorf("Collapsed landmarks must fail, not report a frontal pose")
	}
}
