package pose

import "math"

// Euler holds a decomposed rotation in degrees. Slot order matches the
// classic RQDecomp3x3 convention, angles about x, y, z, so the input
// factors as R = Rz(Roll)*Ry(Yaw)*Rx(Pitch).
type Euler struct {
	Pitch float64 // about x
	Yaw   float64 // about y
	Roll  float64 // about z
}

const radToDeg = 180 / math.Pi

// DecomposeRQ factors a rotation matrix into three elementary rotations
// by successive Givens rotations zeroing the subdiagonal. Signs are
// chosen so a pure Ry(t) input yields Yaw = t, and likewise for the
// other axes.
func DecomposeRQ(r [3][3]float64) Euler {
	m := r

	// About x: zero m[2][1].
	cx, sx := givens(m[2][2], m[2][1])
	qx := [3][3]float64{
		{1, 0, 0},
		{0, cx, sx},
		{0, -sx, cx},
	}
	m = mul3(m, qx)

	// About y: zero m[2][0].
	cy, sy := givens(m[2][2], -m[2][0])
	qy := [3][3]float64{
		{cy, 0, -sy},
		{0, 1, 0},
		{sy, 0, cy},
	}
	m = mul3(m, qy)

	// About z: zero m[1][0].
	cz, sz := givens(m[1][1], m[1][0])

	return Euler{
		Pitch: math.Atan2(sx, cx) * radToDeg,
		Yaw:   math.Atan2(sy, cy) * radToDeg,
		Roll:  math.Atan2(sz, cz) * radToDeg,
	}
}

// givens normalizes (c, s) into a cosine/sine pair. The epsilon keeps
// the gimbal configuration (both inputs zero) finite.
func givens(c, s float64) (float64, float64) {
	z := 1 / math.Sqrt(c*c+s*s+2.220446049250313e-16)
	return c * z, s * z
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}
