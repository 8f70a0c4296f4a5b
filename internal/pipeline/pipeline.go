package pipeline

import (
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veldtlab/vigil/internal/classify"
	"github.com/veldtlab/vigil/internal/detector"
	"github.com/veldtlab/vigil/internal/pose"
)

// Config holds pipeline configuration
type Config struct {
	Strategy        HeadStrategy
	YawLimit        float64
	BandMin         float64
	BandMax         float64
	StabilityFrames int
	GazeWindow      int
	GazeThreshold   float64
	GateGazeOnHead  bool
	AuxSignals      bool
	MinFaceScore    float32
}

// Timing holds per-stage timing of the last processed frame
type Timing struct {
	Detection time.Duration
	Pose      time.Duration
	Classify  time.Duration
	Total     time.Duration
}

// Result is the outcome of one processed frame. Flags are recomputed
// every frame; only the gaze window and stability counters inside the
// pipeline carry memory across frames.
type Result struct {
	FaceCount int

	// PoseOK is false when no face produced a usable pose this frame
	// (no face, low score, or a degenerate solve). Angles and the
	// flags are only meaningful when it is true.
	PoseOK       bool
	Angles       pose.Euler
	HeadAbnormal bool
	GazeAbnormal bool

	// GazeOffset is the sample fed to the oscillation window this
	// frame; GazeSamples is the window fill after it.
	GazeOffset  float64
	GazeSamples int

	// Auxiliary signals, only populated when enabled.
	HeadShaky     bool
	MouthAbnormal bool

	// Mesh of the face the result reflects, for overlay drawing.
	Mesh detector.Mesh

	Timing Timing
}

// Flags returns the two signals in their 0/1 wire form.
func (r *Result) Flags() (head, gaze int) {
	if r.HeadAbnormal {
		head = 1
	}
	if r.GazeAbnormal {
		gaze = 1
	}
	return head, gaze
}

// Pipeline orchestrates one monitoring session: the landmark backend,
// the head policy, the gaze window, and the auxiliary counters.
type Pipeline struct {
	config   Config
	det      Detector
	head     classify.HeadClassifier
	gaze     *classify.Oscillation
	symmetry *classify.Symmetry
	mouth    *classify.MouthOpen
	log      *logrus.Entry

	lastTiming    Timing
	frames        uint64
	solveFailures uint64
}

// New creates a monitoring pipeline around a landmark backend.
func New(det Detector, config Config, log *logrus.Entry) (*Pipeline, error) {
	if det == nil {
		return nil, fmt.Errorf("pipeline: nil detector")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var head classify.HeadClassifier
	switch config.Strategy {
	case StrategyInstant, "":
		head = classify.NewInstantaneousThreshold(config.YawLimit)
	case StrategyDebounced:
		head = classify.NewDebouncedThreshold(config.BandMin, config.BandMax, config.StabilityFrames)
	default:
		return nil, fmt.Errorf("pipeline: unknown head strategy %q", config.Strategy)
	}

	p := &Pipeline{
		config: config,
		det:    det,
		head:   head,
		gaze:   classify.NewOscillation(config.GazeWindow, config.GazeThreshold),
		log:    log,
	}
	if config.AuxSignals {
		p.symmetry = classify.NewSymmetry(0, config.StabilityFrames)
		p.mouth = classify.NewMouthOpen(0, config.StabilityFrames)
	}
	return p, nil
}

// Process runs one frame through detection, pose solve, and
// classification. When several faces are present the last one wins:
// meshes are walked in detection order and the Result reflects the
// final usable one, with a single gaze window append per frame. A
// zero-face frame reports both flags clear; a degenerate pose solve
// skips classification for that face. Neither condition is an error.
func (p *Pipeline) Process(img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("pipeline: nil frame")
	}
	totalStart := time.Now()
	var timing Timing

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	detectStart := time.Now()
	faces, err := p.det.Detect(img)
	timing.Detection = time.Since(detectStart)
	if err != nil {
		return nil, fmt.Errorf("landmark detection failed: %w", err)
	}

	res := &Result{FaceCount: len(faces)}

	var lastMesh detector.Mesh
	var lastAngles pose.Euler
	solved := false

	for _, face := range faces {
		if face.Score < p.config.MinFaceScore {
			continue
		}
		if !face.Mesh.Complete() {
			p.log.WithField("points", len(face.Mesh)).Debug("incomplete mesh, face skipped")
			continue
		}
		lastMesh = face.Mesh

		poseStart := time.Now()
		pp, err := pose.Solve(pose.ModelPoints(), pose.ImagePointsFor(face.Mesh), pose.IntrinsicsFor(width, height))
		timing.Pose += time.Since(poseStart)
		if err != nil {
			p.solveFailures++
			p.log.WithError(err).Debug("pose solve failed, no signal for this face")
			continue
		}
		lastAngles = pp.Angles()
		solved = true
	}

	classifyStart := time.Now()
	if solved {
		res.PoseOK = true
		res.Angles = lastAngles
		res.HeadAbnormal = p.head.Classify(lastAngles.Yaw)
		if res.HeadAbnormal || !p.config.GateGazeOnHead {
			res.GazeOffset = detector.GazeOffset(lastMesh)
			res.GazeAbnormal = p.gaze.Add(res.GazeOffset)
		}
	}
	if lastMesh != nil {
		res.Mesh = lastMesh
		if p.symmetry != nil {
			res.HeadShaky = p.symmetry.Observe(detector.SymmetryDiff(lastMesh))
		}
		if p.mouth != nil {
			res.MouthAbnormal = p.mouth.Observe(detector.MouthRatio(lastMesh))
		}
	}
	res.GazeSamples = p.gaze.Len()
	timing.Classify = time.Since(classifyStart)

	timing.Total = time.Since(totalStart)
	p.lastTiming = timing
	res.Timing = timing
	p.frames++

	return res, nil
}

// LastTiming returns timing from the last Process call
func (p *Pipeline) LastTiming() Timing {
	return p.lastTiming
}

// Stats returns the session frame count and pose solve failure count.
func (p *Pipeline) Stats() (frames, solveFailures uint64) {
	return p.frames, p.solveFailures
}

// Reset clears all cross-frame state (gaze window, counters), starting
// a fresh session on the same backend.
func (p *Pipeline) Reset() {
	p.head.Reset()
	p.gaze.Reset()
	if p.symmetry != nil {
		p.symmetry.Reset()
	}
	if p.mouth != nil {
		p.mouth.Reset()
	}
}

// Close releases the landmark backend.
func (p *Pipeline) Close() error {
	frames, failures := p.Stats()
	p.log.WithFields(logrus.Fields{
		"frames":         frames,
		"solve_failures": failures,
	}).Info("pipeline closed")

	if err := p.det.Close(); err != nil {
		return fmt.Errorf("closing detector: %w", err)
	}
	return nil
}
