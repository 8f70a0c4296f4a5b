package detector

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/veldtlab/vigil/internal/inference"
)

// Face finder geometry: square letterboxed input, anchor grids at three
// strides with two anchors per cell, boxes encoded as distances from the
// anchor center to the four edges. The model must be exported with the
// input "input.1" and the per-stride outputs "score_8".."score_32" and
// "bbox_8".."bbox_32".
const (
	scrfdInputSize = 640
	scrfdIOULimit  = 0.4
)

var scrfdStrides = [3]int{8, 16, 32}

// Detection is one face located by the finder stage, in frame pixels.
type Detection struct {
	Box   BoundingBox
	Score float32
}

// SCRFD locates faces in a frame. It only produces boxes; the mesh
// model run over each box supplies the landmarks.
type SCRFD struct {
	session   *inference.Session
	inputSize int
	minScore  float32
	anchors   int
}

// NewSCRFD loads the face finder model. inference.Initialize must have
// run first.
func NewSCRFD(modelPath string, minScore float32) (*SCRFD, error) {
	session, err := inference.NewSession(
		modelPath,
		[]string{"input.1"},
		[]string{
			"score_8", "score_16", "score_32",
			"bbox_8", "bbox_16", "bbox_32",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load face finder model: %w", err)
	}
	return &SCRFD{
		session:   session,
		inputSize: scrfdInputSize,
		minScore:  minScore,
		anchors:   2,
	}, nil
}

// Detect locates faces in one frame. An empty result is a normal
// no-face frame, not an error.
func (s *SCRFD) Detect(img image.Image) ([]Detection, error) {
	if img == nil {
		return nil, fmt.Errorf("face finder: nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("face finder: empty image")
	}

	input, scale := s.preprocess(img)
	inputTensor, err := inference.CreateTensor(
		[]int64{1, 3, int64(s.inputSize), int64(s.inputSize)}, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	// One score and one box tensor per stride, in output name order.
	outputs := make([]ort.Value, 2*len(scrfdStrides))
	tensors := make([]*ort.Tensor[float32], 2*len(scrfdStrides))
	destroyAll := func() {
		for _, t := range tensors {
			if t != nil {
				t.Destroy()
			}
		}
	}
	for i, stride := range scrfdStrides {
		cells := (s.inputSize / stride) * (s.inputSize / stride) * s.anchors
		scoreTensor, err := inference.CreateEmptyTensor[float32]([]int64{int64(cells), 1})
		if err != nil {
			destroyAll()
			return nil, fmt.Errorf("failed to create score tensor: %w", err)
		}
		tensors[i] = scoreTensor
		outputs[i] = scoreTensor

		boxTensor, err := inference.CreateEmptyTensor[float32]([]int64{int64(cells), 4})
		if err != nil {
			destroyAll()
			return nil, fmt.Errorf("failed to create box tensor: %w", err)
		}
		tensors[i+3] = boxTensor
		outputs[i+3] = boxTensor
	}
	defer destroyAll()

	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("face finder inference failed: %w", err)
	}

	var dets []Detection
	for i, stride := range scrfdStrides {
		grid := s.inputSize / stride
		dets = append(dets, decodeGrid(
			tensors[i].GetData(), tensors[i+3].GetData(),
			stride, grid, s.anchors, scale, width, height, s.minScore)...)
	}
	return nms(dets, scrfdIOULimit), nil
}

// preprocess letterboxes the frame into the square model input, top
// left anchored, and fills an NCHW blob with the same (v-127.5)/128
// normalization the mesh model uses. Returns the resize scale that maps
// detections back to frame pixels.
func (s *SCRFD) preprocess(img image.Image) ([]float32, float32) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	scale := float32(s.inputSize) / float32(max(width, height))

	resized := imaging.Resize(img,
		int(float32(width)*scale), int(float32(height)*scale), imaging.Linear)
	canvas := imaging.Paste(
		imaging.New(s.inputSize, s.inputSize, color.NRGBA{}), resized, image.Pt(0, 0))

	n := s.inputSize * s.inputSize
	input := make([]float32, 3*n)
	for y := 0; y < s.inputSize; y++ {
		for x := 0; x < s.inputSize; x++ {
			r, g, b, _ := canvas.At(x, y).RGBA()
			idx := y*s.inputSize + x
			input[idx] = (float32(r>>8) - 127.5) / 128
			input[n+idx] = (float32(g>>8) - 127.5) / 128
			input[2*n+idx] = (float32(b>>8) - 127.5) / 128
		}
	}
	return input, scale
}

// decodeGrid maps one stride level's raw scores and box regressions to
// detections in source pixels. Anchors are walked row-major with the
// per-cell anchors innermost, matching the model's output layout.
func decodeGrid(scores, boxes []float32, stride, grid, anchors int, scale float32, width, height int, minScore float32) []Detection {
	var dets []Detection
	idx := 0
	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			for a := 0; a < anchors; a++ {
				score := sigmoid(scores[idx])
				if score < minScore {
					idx++
					continue
				}

				cx := (float32(x) + 0.5) * float32(stride)
				cy := (float32(y) + 0.5) * float32(stride)
				b := idx * 4
				x1 := (cx - boxes[b]*float32(stride)) / scale
				y1 := (cy - boxes[b+1]*float32(stride)) / scale
				x2 := (cx + boxes[b+2]*float32(stride)) / scale
				y2 := (cy + boxes[b+3]*float32(stride)) / scale

				dets = append(dets, Detection{
					Box: BoundingBox{
						X1: clampf(x1, 0, float32(width)),
						Y1: clampf(y1, 0, float32(height)),
						X2: clampf(x2, 0, float32(width)),
						Y2: clampf(y2, 0, float32(height)),
					},
					Score: score,
				})
				idx++
			}
		}
	}
	return dets
}

// Close releases the model session
func (s *SCRFD) Close() error {
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}

func clampf(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
