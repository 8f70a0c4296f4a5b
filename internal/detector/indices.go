package detector

// Index addresses an anatomical position inside a Mesh. The numbering
// follows the MediaPipe face-mesh topology with refined iris landmarks;
// if the landmark source ever changes scheme, this file is the single
// place to re-derive.
type Index int

const (
	// Pose correspondence points (paired with the canonical 3D model).
	NoseTip       Index = 1
	Chin          Index = 152
	LeftEyeOuter  Index = 33
	RightEyeOuter Index = 263
	MouthLeft     Index = 61
	MouthRight    Index = 291

	// Gaze geometry.
	LeftEyeInner  Index = 133
	RightEyeInner Index = 362
	LeftIris      Index = 468
	RightIris     Index = 473

	// Auxiliary stability signals.
	Forehead   Index = 10
	UpperLip   Index = 13
	LowerLip   Index = 14
	LeftCheek  Index = 234
	RightCheek Index = 454
)

// MeshPoints is the full point count of the iris-refined scheme.
const MeshPoints = 478
