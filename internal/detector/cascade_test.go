package detector

import (
	"image"
	"testing"
)

// TestExpandBox verifies the crop margin math and the frame clamping
// around the finder box.
func TestExpandBox(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want image.Rectangle
	}{
		{
			"interior box grows by the margin",
			BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 200},
			image.Rect(75, 75, 225, 225),
		},
		{
			"top left corner pins to the origin",
			BoundingBox{X1: 10, Y1: 10, X2: 110, Y2: 110},
			image.Rect(0, 0, 135, 135),
		},
		{
			"bottom right corner pins to the frame",
			BoundingBox{X1: 1200, Y1: 650, X2: 1280, Y2: 720},
			image.Rect(1180, 632, 1280, 720),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandBox(tt.box, 0.25, 1280, 720)
			if got != tt.want {
				t.Errorf("Expected crop %v, got %v", tt.want, got)
			}
		})
	}
}

// TestExpandBoxDegenerate verifies a zero-size finder box produces an
// empty crop the cascade can skip.
func TestExpandBoxDegenerate(t *testing.T) {
	r := expandBox(BoundingBox{X1: 50, Y1: 50, X2: 50, Y2: 50}, 0.25, 1280, 720)
	if !r.Empty() {
		t.Errorf("Expected an empty crop for a zero-size box, got %v", r)
	}
}

// TestTranslateMesh verifies crop-space landmarks shift by the crop
// origin without touching the input.
func TestTranslateMesh(t *testing.T) {
	in := Mesh{
		{X: 0, Y: 0},
		{X: 10, Y: 20},
		{X: 95.5, Y: 47.25},
	}

	out := translateMesh(in, image.Pt(100, 50))

	want := Mesh{
		{X: 100, Y: 50},
		{X: 110, Y: 70},
		{X: 195.5, Y: 97.25},
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Point %d: expected %v, got %v", i, want[i], out[i])
		}
	}
	if in[0].X != 0 || in[1].X != 10 {
		t.Errorf("Expected the input mesh untouched, got %v", in)
	}
}
