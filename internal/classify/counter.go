package classify

// Stability counts consecutive positive observations and reports true
// once the condition has held for more than the configured number of
// frames. A single negative observation resets it.
type Stability struct {
	frames int
	count  int
}

// NewStability creates a counter over the given window; non-positive
// falls back to DefaultStabilityFrames.
func NewStability(frames int) *Stability {
	if frames <= 0 {
		frames = DefaultStabilityFrames
	}
	return &Stability{frames: frames}
}

// Observe feeds one frame's condition and reports whether it has been
// sustained past the window.
func (s *Stability) Observe(active bool) bool {
	if active {
		s.count++
	} else {
		s.count = 0
	}
	return s.count > s.frames
}

// Reset clears the streak.
func (s *Stability) Reset() {
	s.count = 0
}
