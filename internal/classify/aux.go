package classify

// Limits of the auxiliary stability signals, from the shipped detector.
const (
	DefaultSymmetryLimit   = 25.0
	DefaultMouthRatioLimit = 0.05
)

// Symmetry flags a sustained horizontal asymmetry of the face, a cheap
// shake/turn heuristic that needs no pose solve. Reported alongside the
// primary flags, never gating them.
type Symmetry struct {
	Limit   float64
	counter *Stability
}

// NewSymmetry creates the signal; non-positive limit falls back to the
// default.
func NewSymmetry(limit float64, frames int) *Symmetry {
	if limit <= 0 {
		limit = DefaultSymmetryLimit
	}
	return &Symmetry{Limit: limit, counter: NewStability(frames)}
}

// Observe feeds one frame's asymmetry measure in pixels.
func (s *Symmetry) Observe(diff float64) bool {
	return s.counter.Observe(diff > s.Limit)
}

func (s *Symmetry) Reset() {
	s.counter.Reset()
}

// MouthOpen flags a sustained open mouth from the size-invariant
// lip-gap ratio.
type MouthOpen struct {
	Limit   float64
	counter *Stability
}

// NewMouthOpen creates the signal; non-positive limit falls back to
// the default.
func NewMouthOpen(limit float64, frames int) *MouthOpen {
	if limit <= 0 {
		limit = DefaultMouthRatioLimit
	}
	return &MouthOpen{Limit: limit, counter: NewStability(frames)}
}

// Observe feeds one frame's mouth ratio.
func (m *MouthOpen) Observe(ratio float64) bool {
	return m.counter.Observe(ratio > m.Limit)
}

func (m *MouthOpen) Reset() {
	m.counter.Reset()
}
