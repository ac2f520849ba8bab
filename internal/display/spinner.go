package display

import "time"

// spinnerFrames are the dots-style frames used by the original sender's
// Spinner while a file is mid-transfer (SPEC_FULL.md §4).
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner cycles through a small set of frames on each Tick.
type Spinner struct {
	Interval time.Duration
	idx      int
}

// NewSpinner builds a Spinner with the conventional 80ms frame interval.
func NewSpinner() *Spinner {
	return &Spinner{Interval: 80 * time.Millisecond}
}

// Tick advances to the next frame and returns it.
func (s *Spinner) Tick() string {
	f := spinnerFrames[s.idx%len(spinnerFrames)]
	s.idx++
	return f
}
