package pose

// Point2 is a 2D image point in pixels.
type Point2 struct {
	X, Y float64
}

// Point3 is a 3D point in the canonical face frame.
type Point3 struct {
	X, Y, Z float64
}

// Intrinsics is the pinhole camera model approximated from frame size:
// focal length equals the frame width, principal point sits at the
// frame center, and lens distortion is assumed zero.
type Intrinsics struct {
	Focal float64
	Cx    float64
	Cy    float64
}

// IntrinsicsFor builds the approximation for a frame of the given size.
// Pure function; callers rebuild it per frame and rely on it being cheap.
func IntrinsicsFor(width, height int) Intrinsics {
	return Intrinsics{
		Focal: float64(width),
		Cx:    float64(width) / 2,
		Cy:    float64(height) / 2,
	}
}

// Matrix returns the 3x3 camera matrix.
func (k Intrinsics) Matrix() [3][3]float64 {
	return [3][3]float64{
		{k.Focal, 0, k.Cx},
		{0, k.Focal, k.Cy},
		{0, 0, 1},
	}
}

// DistCoeffs returns the distortion model, all zeros under the pinhole
// approximation.
func (k Intrinsics) DistCoeffs() [4]float64 {
	return [4]float64{}
}

// normalize maps a pixel coordinate into the ideal camera plane (K^-1).
func (k Intrinsics) normalize(p Point2) Point2 {
	return Point2{
		X: (p.X - k.Cx) / k.Focal,
		Y: (p.Y - k.Cy) / k.Focal,
	}
}
