package harvester

// ConvergenceDetector decides, from a sequence of round outcomes, whether
// the source is exhausted. A round stalls when neither a record was accepted
// nor the provider reported observable progress; the detector fires once the
// stall counter reaches the threshold and resets on any round with progress.
// It never fires before the first round with progress and knows nothing
// about provider internals.
type ConvergenceDetector struct {
	threshold   int
	stalled     int
	sawProgress bool
}

// NewConvergenceDetector creates a detector with the given stall threshold.
// Interactive scrolling typically needs a higher threshold than API
// pagination because lazy-loaded content can lag several rounds behind the
// scroll signal.
func NewConvergenceDetector(threshold int) *ConvergenceDetector {
	return &ConvergenceDetector{threshold: threshold}
}

// Observe records the outcome of one round.
func (c *ConvergenceDetector) Observe(accepted int, advanced bool) {
	if accepted > 0 || advanced {
		c.stalled = 0
		c.sawProgress = true
		return
	}
	c.stalled++
}

// Exhausted reports whether further rounds are judged unlikely to yield new
// records.
func (c *ConvergenceDetector) Exhausted() bool {
	return c.sawProgress && c.stalled >= c.threshold
}
