package detector

// Point represents a 2D landmark in pixel coordinates
type Point struct {
	X, Y float32
}

// BoundingBox represents a face bounding box
type BoundingBox struct {
	X1, Y1 float32 // top-left
	X2, Y2 float32 // bottom-right
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Center returns box center point
func (b BoundingBox) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Mesh is a dense facial landmark set in the iris-refined face-mesh
// convention: 468 surface points plus 10 iris points, pixel space.
// Anatomical positions are addressed through the Index constants, never
// through bare numbers.
type Mesh []Point

// At returns the landmark at an anatomical index.
func (m Mesh) At(i Index) Point {
	return m[i]
}

// Complete reports whether the mesh carries the full scheme including
// the iris points. Incomplete meshes must not reach pose or gaze math.
func (m Mesh) Complete() bool {
	return len(m) >= MeshPoints
}

// Bounds computes the tight bounding box around all mesh points
func (m Mesh) Bounds() BoundingBox {
	if len(m) == 0 {
		return BoundingBox{}
	}
	minX, minY := m[0].X, m[0].Y
	maxX, maxY := m[0].X, m[0].Y
	for i := 1; i < len(m); i++ {
		if m[i].X < minX {
			minX = m[i].X
		}
		if m[i].X > maxX {
			maxX = m[i].X
		}
		if m[i].Y < minY {
			minY = m[i].Y
		}
		if m[i].Y > maxY {
			maxY = m[i].Y
		}
	}
	return BoundingBox{X1: minX, Y1: minY, X2: maxX, Y2: maxY}
}

// Face represents one detected face
type Face struct {
	Mesh  Mesh
	Score float32 // face presence confidence in [0,1]
}
