package detector

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// cropMargin expands the finder box on every side before the mesh crop;
// the mesh model expects a loose crop with forehead and chin context.
const cropMargin = 0.25

// Cascade chains the face finder with the per-crop mesh model: boxes
// first, then a full mesh for each box, mapped back to frame pixels.
// This is the multi-face local backend; the whole-frame FaceMesh alone
// only handles the dominant face.
type Cascade struct {
	finder *SCRFD
	mesh   *FaceMesh
}

// NewCascade wires the two stages. The cascade owns both and releases
// them on Close.
func NewCascade(finder *SCRFD, mesh *FaceMesh) (*Cascade, error) {
	if finder == nil || mesh == nil {
		return nil, fmt.Errorf("cascade: both stages required")
	}
	return &Cascade{finder: finder, mesh: mesh}, nil
}

// Detect runs both stages over one frame. Crops whose mesh score falls
// under the mesh threshold drop out silently; faces come back in the
// finder's score order.
func (c *Cascade) Detect(img image.Image) ([]Face, error) {
	if img == nil {
		return nil, fmt.Errorf("cascade: nil image")
	}

	dets, err := c.finder.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("face finding failed: %w", err)
	}

	bounds := img.Bounds()
	var faces []Face
	for _, det := range dets {
		r := expandBox(det.Box, cropMargin, bounds.Dx(), bounds.Dy())
		if r.Empty() {
			continue
		}
		found, err := c.mesh.Detect(imaging.Crop(img, r))
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			faces = append(faces, Face{Mesh: translateMesh(f.Mesh, r.Min), Score: f.Score})
		}
	}
	return faces, nil
}

// expandBox grows a finder box by margin on every side and clamps it to
// the frame, in integer pixels.
func expandBox(b BoundingBox, margin float32, width, height int) image.Rectangle {
	mx := b.Width() * margin
	my := b.Height() * margin
	return image.Rect(
		max(int(b.X1-mx), 0),
		max(int(b.Y1-my), 0),
		min(int(b.X2+mx), width),
		min(int(b.Y2+my), height),
	)
}

// translateMesh shifts crop-space landmarks to frame coordinates.
func translateMesh(m Mesh, origin image.Point) Mesh {
	dx, dy := float32(origin.X), float32(origin.Y)
	out := make(Mesh, len(m))
	for i, p := range m {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Close releases both stages, reporting the first failure.
func (c *Cascade) Close() error {
	var first error
	if err := c.finder.Close(); err != nil {
		first = err
	}
	if err := c.mesh.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
