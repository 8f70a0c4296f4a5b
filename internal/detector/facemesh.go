package detector

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/veldtlab/vigil/internal/inference"
)

// Face-mesh model geometry: square input, 478 three-component
// landmarks in input-crop space plus a face presence logit. The model
// must be exported with the input "input" (1x3x192x192, NCHW) and the
// outputs "landmarks" and "score".
const (
	meshInputSize = 192
	meshOutputLen = MeshPoints * 3
)

// FaceMesh runs an iris-refined face-mesh ONNX model over the whole
// frame: the frame is resized to the model input and landmark
// coordinates are mapped back to frame pixels. At most one face per
// frame; multi-face scenes need the Cascade or the remote backend.
type FaceMesh struct {
	session   *inference.Session
	inputSize int
	minScore  float32
}

// NewFaceMesh loads the landmark model. inference.Initialize must have
// run first.
func NewFaceMesh(modelPath string, minScore float32) (*FaceMesh, error) {
	session, err := inference.NewSession(
		modelPath,
		[]string{"input"},
		[]string{"landmarks", "score"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load face mesh model: %w", err)
	}
	return &FaceMesh{
		session:   session,
		inputSize: meshInputSize,
		minScore:  minScore,
	}, nil
}

// Detect runs one frame through the model. An empty result (score
// under threshold) is a normal no-face frame, not an error.
func (f *FaceMesh) Detect(img image.Image) ([]Face, error) {
	if img == nil {
		return nil, fmt.Errorf("face mesh: nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("face mesh: empty image")
	}

	input := f.preprocess(img)
	inputTensor, err := inference.CreateTensor(
		[]int64{1, 3, int64(f.inputSize), int64(f.inputSize)}, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	landmarkTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, meshOutputLen})
	if err != nil {
		return nil, fmt.Errorf("failed to create landmark tensor: %w", err)
	}
	defer landmarkTensor.Destroy()

	scoreTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, 1})
	if err != nil {
		return nil, fmt.Errorf("failed to create score tensor: %w", err)
	}
	defer scoreTensor.Destroy()

	err = f.session.Run(
		[]ort.Value{inputTensor},
		[]ort.Value{landmarkTensor, scoreTensor},
	)
	if err != nil {
		return nil, fmt.Errorf("face mesh inference failed: %w", err)
	}

	score := sigmoid(scoreTensor.GetData()[0])
	if score < f.minScore {
		return nil, nil
	}

	mesh := f.postprocess(landmarkTensor.GetData(), width, height)
	return []Face{{Mesh: mesh, Score: score}}, nil
}

// preprocess resizes to the model input and fills an NCHW blob with
// (v-127.5)/128 normalization.
func (f *FaceMesh) preprocess(img image.Image) []float32 {
	resized := imaging.Resize(img, f.inputSize, f.inputSize, imaging.Linear)
	n := f.inputSize * f.inputSize
	input := make([]float32, 3*n)
	for y := 0; y < f.inputSize; y++ {
		for x := 0; x < f.inputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			idx := y*f.inputSize + x
			input[idx] = (float32(r>>8) - 127.5) / 128
			input[n+idx] = (float32(g>>8) - 127.5) / 128
			input[2*n+idx] = (float32(b>>8) - 127.5) / 128
		}
	}
	return input
}

// postprocess maps crop-space landmark triples back to frame pixels.
// Depth is dropped; downstream consumes 2D pixel coordinates only.
func (f *FaceMesh) postprocess(raw []float32, width, height int) Mesh {
	sx := float32(width) / float32(f.inputSize)
	sy := float32(height) / float32(f.inputSize)
	mesh := make(Mesh, MeshPoints)
	for i := 0; i < MeshPoints; i++ {
		mesh[i] = Point{
			X: raw[i*3] * sx,
			Y: raw[i*3+1] * sy,
		}
	}
	return mesh
}

// Close releases the model session
func (f *FaceMesh) Close() error {
	if f.session != nil {
		return f.session.Destroy()
	}
	return nil
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}
