package driver

import "time"

// Cancel deadlines (spec.md §4.7): an interrupt gives the receiver longer
// to acknowledge than a terminate signal does.
const (
	InterruptCancelDelay = 5 * time.Second
	TerminateCancelDelay = 2 * time.Second
)

// deadline is a one-shot forced-exit timer, the cooperative-loop
// equivalent of the teacher's RetryManager backoff clock: instead of
// growing a retry interval, it counts down once from a fixed delay and
// fires exactly once.
type deadline struct {
	timer *time.Timer
}

// schedule arms a deadline that sends on the returned channel after d,
// unless stopped first.
func schedule(d time.Duration) (*deadline, <-chan time.Time) {
	t := time.NewTimer(d)
	return &deadline{timer: t}, t.C
}

func (d *deadline) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
