package pipeline

import (
	"image"

	"github.com/veldtlab/vigil/internal/detector"
)

// Backend represents the landmark source to use
type Backend string

const (
	BackendONNX   Backend = "onnx"
	BackendRemote Backend = "remote"
)

// HeadStrategy represents the head classification policy
type HeadStrategy string

const (
	StrategyInstant   HeadStrategy = "instant"
	StrategyDebounced HeadStrategy = "debounced"
)

// Detector is the landmark adapter boundary: one call per frame,
// zero or more faces back, meshes in pixel coordinates of the frame.
type Detector interface {
	Detect(img image.Image) ([]detector.Face, error)
	Close() error
}
