package classify

const (
	// DefaultGazeWindow is the number of trailing samples considered
	// for oscillation.
	DefaultGazeWindow = 6

	// DefaultGazeThreshold is the pixel offset the gaze must cross on
	// both sides within the window.
	DefaultGazeThreshold = 6.0
)

// Oscillation detects back-and-forth eye movement: a bounded FIFO of
// recent gaze samples that flags once the trailing window has swung
// past the threshold in both directions. Sustained drift to one side
// never flags. The window persists across frames and belongs to a
// single monitoring session; it is not safe for concurrent use.
type Oscillation struct {
	size      int
	threshold float64
	window    []float64
}

// NewOscillation creates a detector; non-positive parameters fall back
// to the defaults.
func NewOscillation(size int, threshold float64) *Oscillation {
	if size <= 0 {
		size = DefaultGazeWindow
	}
	if threshold <= 0 {
		threshold = DefaultGazeThreshold
	}
	return &Oscillation{
		size:      size,
		threshold: threshold,
		window:    make([]float64, 0, size),
	}
}

// Add appends one sample, evicting the oldest when the window is full,
// and reports whether the window shows oscillation. Until the window
// has filled it always reports false: too little history means "no
// signal", never abnormal.
func (o *Oscillation) Add(sample float64) bool {
	if len(o.window) == o.size {
		copy(o.window, o.window[1:])
		o.window[o.size-1] = sample
	} else {
		o.window = append(o.window, sample)
	}
	if len(o.window) < o.size {
		return false
	}

	hi, lo := o.window[0], o.window[0]
	for _, v := range o.window[1:] {
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return hi > o.threshold && lo < -o.threshold
}

// Len reports how many samples the window currently holds.
func (o *Oscillation) Len() int {
	return len(o.window)
}

// Samples returns a copy of the window, oldest first.
func (o *Oscillation) Samples() []float64 {
	out := make([]float64, len(o.window))
	copy(out, o.window)
	return out
}

// Reset drops all history, returning the detector to cold start.
func (o *Oscillation) Reset() {
	o.window = o.window[:0]
}
