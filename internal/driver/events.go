// Package driver implements the single-threaded cooperative event loop
// (spec.md §4.7, §5): it multiplexes outbound writes, inbound protocol
// frames, terminal input events, and scheduled callbacks. It is grounded
// on the teacher's internal/transport/retry_manager.go for the shape of a
// timer-driven deadline, generalized from per-request backoff to the
// session-wide cancel deadline this protocol needs instead.
package driver

// EventKind classifies one inbound terminal input event (spec.md §4.7).
type EventKind int

const (
	EventText EventKind = iota
	EventKeyConfirm       // user typed 'y'
	EventKeyCancel        // user typed 'n' or Escape
	EventInterrupt        // local interrupt (e.g. Ctrl-C)
	EventTerminate        // SIGTERM-equivalent
)

// InputEvent is one unit the terminal layer hands the driver.
type InputEvent struct {
	Kind EventKind
	Text string // only meaningful for EventText
}
