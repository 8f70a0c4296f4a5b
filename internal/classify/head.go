package classify

import "math"

const (
	// DefaultYawLimit is the yaw magnitude in degrees beyond which the
	// head counts as turned away.
	DefaultYawLimit = 10.0

	// DefaultStabilityFrames is the consecutive-frame window shared by
	// the debounced policy and the auxiliary signals.
	DefaultStabilityFrames = 8

	// Dead-band of the superseded debounced policy, in degrees.
	LegacyBandMin = 85.0
	LegacyBandMax = 95.0
)

// HeadClassifier turns a per-frame yaw angle into the head-abnormal
// flag. Only yaw is classified; pitch and roll stay observability-only.
// The two implementations are alternative policies and are never
// combined.
type HeadClassifier interface {
	Classify(yaw float64) bool
	Reset()
}

// InstantaneousThreshold flags any single frame whose yaw magnitude
// exceeds the limit. Stateless; Reset is a no-op.
type InstantaneousThreshold struct {
	Limit float64
}

// NewInstantaneousThreshold creates the default policy; non-positive
// limit falls back to DefaultYawLimit.
func NewInstantaneousThreshold(limit float64) *InstantaneousThreshold {
	if limit <= 0 {
		limit = DefaultYawLimit
	}
	return &InstantaneousThreshold{Limit: limit}
}

func (c *InstantaneousThreshold) Classify(yaw float64) bool {
	return math.Abs(yaw) > c.Limit
}

func (c *InstantaneousThreshold) Reset() {}

// DebouncedThreshold is the earlier policy, kept selectable: the angle
// must sit outside the [Min, Max] dead-band for more than a stability
// window of consecutive frames before the flag raises; any in-band
// frame clears the streak.
type DebouncedThreshold struct {
	Min, Max float64
	counter  *Stability
}

// NewDebouncedThreshold creates the legacy policy with its dead-band
// and stability window; zero values fall back to the legacy constants.
func NewDebouncedThreshold(min, max float64, frames int) *DebouncedThreshold {
	if min == 0 && max == 0 {
		min, max = LegacyBandMin, LegacyBandMax
	}
	return &DebouncedThreshold{
		Min:     min,
		Max:     max,
		counter: NewStability(frames),
	}
}

func (c *DebouncedThreshold) Classify(yaw float64) bool {
	return c.counter.Observe(yaw < c.Min || yaw > c.Max)
}

func (c *DebouncedThreshold) Reset() {
	c.counter.Reset()
}
