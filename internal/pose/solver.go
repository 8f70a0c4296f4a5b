package pose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when the correspondences cannot pin down a
// unique pose (collinear or coincident image points, non-finite
// coordinates). A failed solve is a distinct outcome from a small-angle
// success and must never be read as "yaw is zero".
var ErrDegenerate = errors.New("degenerate landmark correspondences")

// Pose is a solved camera-from-face transform: x_cam = R*x_model + T.
type Pose struct {
	R [3][3]float64
	T [3]float64
}

// Angles decomposes the rotation into Euler angles in degrees.
func (p Pose) Angles() Euler {
	return DecomposeRQ(p.R)
}

const (
	// A second near-zero singular value in the DLT system means the
	// solution direction is not unique.
	rankGapTol = 1e-8

	refineMaxIter = 20
	refineTol     = 1e-12
)

// Solve recovers the rotation and translation that project the six
// canonical model points onto the six observed image points under the
// pinhole model. Homogeneous DLT initialization followed by
// Gauss-Newton refinement of the reprojection error.
func Solve(object [6]Point3, image [6]Point2, k Intrinsics) (Pose, error) {
	if !(k.Focal > 0) {
		return Pose{}, fmt.Errorf("solve: non-positive focal length %g", k.Focal)
	}
	for _, p := range image {
		if !finite(p.X) || !finite(p.Y) {
			return Pose{}, fmt.Errorf("solve: %w (non-finite image point)", ErrDegenerate)
		}
	}

	// Normalized camera coordinates and a centered, unit-scale object
	// frame keep the DLT system well conditioned.
	var obs [6]Point2
	for i, p := range image {
		obs[i] = k.normalize(p)
	}
	objN, centroid, scale := centerObject(object)

	r, tn, err := initDLT(objN, obs)
	if err != nil {
		return Pose{}, err
	}
	r, tn = refine(objN, obs, r, tn)

	// Undo the object centering: with X = s*X' + c the solved frame
	// carries T' = (R*c + T)/s.
	rc := apply(r, centroid)
	var t [3]float64
	for i := range t {
		t[i] = scale*tn[i] - rc[i]
	}
	return Pose{R: r, T: t}, nil
}

// centerObject moves the model centroid to the origin and scales the
// mean point distance to one.
func centerObject(object [6]Point3) ([6]Point3, [3]float64, float64) {
	var c [3]float64
	for _, p := range object {
		c[0] += p.X
		c[1] += p.Y
		c[2] += p.Z
	}
	for i := range c {
		c[i] /= 6
	}
	var mean float64
	var out [6]Point3
	for i, p := range object {
		out[i] = Point3{X: p.X - c[0], Y: p.Y - c[1], Z: p.Z - c[2]}
		mean += math.Sqrt(out[i].X*out[i].X + out[i].Y*out[i].Y + out[i].Z*out[i].Z)
	}
	mean /= 6
	if mean == 0 {
		mean = 1
	}
	for i := range out {
		out[i] = Point3{X: out[i].X / mean, Y: out[i].Y / mean, Z: out[i].Z / mean}
	}
	return out, c, mean
}

// initDLT solves the homogeneous system from the cross-product
// constraint obs x (R*X + t) = 0, two rows per correspondence, the
// unknown 12-vector being [R|t] row-major.
func initDLT(object [6]Point3, obs [6]Point2) ([3][3]float64, [3]float64, error) {
	a := mat.NewDense(12, 12, nil)
	for i := 0; i < 6; i++ {
		x, y, z := object[i].X, object[i].Y, object[i].Z
		u, v := obs[i].X, obs[i].Y
		a.SetRow(2*i, []float64{-x, -y, -z, -1, 0, 0, 0, 0, u * x, u * y, u * z, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, 0, -x, -y, -z, -1, v * x, v * y, v * z, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return [3][3]float64{}, [3]float64{}, fmt.Errorf("solve: %w (SVD did not converge)", ErrDegenerate)
	}
	sv := svd.Values(nil)
	if sv[0] == 0 || sv[10] < rankGapTol*sv[0] {
		return [3][3]float64{}, [3]float64{}, fmt.Errorf("solve: %w (rank-deficient system)", ErrDegenerate)
	}
	var v mat.Dense
	svd.VTo(&v)
	m := mat.Col(nil, 11, &v)

	r := [3][3]float64{
		{m[0], m[1], m[2]},
		{m[4], m[5], m[6]},
		{m[8], m[9], m[10]},
	}
	t := [3]float64{m[3], m[7], m[11]}

	// The null direction sign is arbitrary; points must end up in
	// front of the camera.
	var depth float64
	for _, p := range object {
		depth += r[2][0]*p.X + r[2][1]*p.Y + r[2][2]*p.Z + t[2]
	}
	if depth < 0 {
		for i := range r {
			for j := range r[i] {
				r[i][j] = -r[i][j]
			}
		}
		for i := range t {
			t[i] = -t[i]
		}
	}

	return orthonormalize(r, t)
}

// orthonormalize projects the scaled DLT rotation onto SO(3) and
// divides the translation by the recovered scale.
func orthonormalize(r [3][3]float64, t [3]float64) ([3][3]float64, [3]float64, error) {
	d := mat.NewDense(3, 3, []float64{
		r[0][0], r[0][1], r[0][2],
		r[1][0], r[1][1], r[1][2],
		r[2][0], r[2][1], r[2][2],
	})
	var svd mat.SVD
	if !svd.Factorize(d, mat.SVDFull) {
		return r, t, fmt.Errorf("solve: %w (rotation SVD did not converge)", ErrDegenerate)
	}
	sv := svd.Values(nil)
	s := (sv[0] + sv[1] + sv[2]) / 3
	if s < 1e-12 {
		return r, t, fmt.Errorf("solve: %w (vanishing rotation scale)", ErrDegenerate)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var rot mat.Dense
	rot.Mul(&u, v.T())
	if mat.Det(&rot) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		rot.Mul(&u, v.T())
	}

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = rot.At(i, j)
		}
	}
	for i := range t {
		t[i] /= s
	}
	return out, t, nil
}

// refine runs Gauss-Newton on the reprojection residual with a
// left-multiplied axis-angle update of the rotation.
func refine(object [6]Point3, obs [6]Point2, r [3][3]float64, t [3]float64) ([3][3]float64, [3]float64) {
	jac := mat.NewDense(12, 6, nil)
	res := mat.NewVecDense(12, nil)
	neg := mat.NewVecDense(12, nil)

	for iter := 0; iter < refineMaxIter; iter++ {
		valid := true
		for i := 0; i < 6; i++ {
			q := apply(r, [3]float64{object[i].X, object[i].Y, object[i].Z})
			px, py, pz := q[0]+t[0], q[1]+t[1], q[2]+t[2]
			if pz < 1e-9 {
				valid = false
				break
			}
			res.SetVec(2*i, px/pz-obs[i].X)
			res.SetVec(2*i+1, py/pz-obs[i].Y)

			// Projection Jacobian rows times dp/domega = -[q]x and
			// dp/dt = I.
			iz := 1 / pz
			iz2 := iz * iz
			a0 := [3]float64{iz, 0, -px * iz2}
			a1 := [3]float64{0, iz, -py * iz2}
			nq := [3][3]float64{
				{0, q[2], -q[1]},
				{-q[2], 0, q[0]},
				{q[1], -q[0], 0},
			}
			for c := 0; c < 3; c++ {
				jac.Set(2*i, c, a0[0]*nq[0][c]+a0[1]*nq[1][c]+a0[2]*nq[2][c])
				jac.Set(2*i+1, c, a1[0]*nq[0][c]+a1[1]*nq[1][c]+a1[2]*nq[2][c])
			}
			jac.Set(2*i, 3, a0[0])
			jac.Set(2*i, 4, a0[1])
			jac.Set(2*i, 5, a0[2])
			jac.Set(2*i+1, 3, a1[0])
			jac.Set(2*i+1, 4, a1[1])
			jac.Set(2*i+1, 5, a1[2])
		}
		if !valid {
			break
		}

		var qr mat.QR
		qr.Factorize(jac)
		var delta mat.Dense
		neg.ScaleVec(-1, res)
		if err := qr.SolveTo(&delta, false, neg); err != nil {
			break
		}

		w := [3]float64{delta.At(0, 0), delta.At(1, 0), delta.At(2, 0)}
		r = mul3(expSO3(w), r)
		t[0] += delta.At(3, 0)
		t[1] += delta.At(4, 0)
		t[2] += delta.At(5, 0)

		var step float64
		for i := 0; i < 6; i++ {
			step += delta.At(i, 0) * delta.At(i, 0)
		}
		if step < refineTol {
			break
		}
	}
	return r, t
}

// expSO3 is the Rodrigues map from an axis-angle vector to a rotation
// matrix.
func expSO3(w [3]float64) [3][3]float64 {
	th := math.Sqrt(w[0]*w[0] + w[1]*w[1] + w[2]*w[2])
	if th < 1e-12 {
		return [3][3]float64{
			{1, -w[2], w[1]},
			{w[2], 1, -w[0]},
			{-w[1], w[0], 1},
		}
	}
	kx, ky, kz := w[0]/th, w[1]/th, w[2]/th
	s, c := math.Sincos(th)
	ic := 1 - c
	return [3][3]float64{
		{c + kx*kx*ic, kx*ky*ic - kz*s, kx*kz*ic + ky*s},
		{ky*kx*ic + kz*s, c + ky*ky*ic, ky*kz*ic - kx*s},
		{kz*kx*ic - ky*s, kz*ky*ic + kx*s, c + kz*kz*ic},
	}
}

func apply(r [3][3]float64, p [3]float64) [3]float64 {
	return [3]float64{
		r[0][0]*p[0] + r[0][1]*p[1] + r[0][2]*p[2],
		r[1][0]*p[0] + r[1][1]*p[1] + r[1][2]*p[2],
		r[2][0]*p[0] + r[2][1]*p[1] + r[2][2]*p[2],
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
