package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/deb2000-sudo/termcargo/internal/codec"
	"github.com/deb2000-sudo/termcargo/internal/diag"
	"github.com/deb2000-sudo/termcargo/internal/display"
	"github.com/deb2000-sudo/termcargo/internal/plan"
	"github.com/deb2000-sudo/termcargo/internal/sendmgr"
)

// PlanPrinter prints the confirm-paths listing (spec.md §4.7); the
// default implementation lives with the CLI entry point so the driver
// itself stays free of terminal-library specifics beyond Channel.
type PlanPrinter func(files []*plan.File)

// ProgressRenderer is the narrow external collaborator (spec.md §2) that
// turns one file's progress into whatever the terminal UI shows.
type ProgressRenderer interface {
	Render(f *plan.File, rate float64, spinnerChar string)
	Done(f *plan.File)
}

// Driver runs the cooperative event loop described in spec.md §4.7/§5. It
// owns no goroutines of its own: callers feed it inbound commands,
// terminal input, and timer ticks over channels and read back the exit
// code once Run returns.
type Driver struct {
	mgr     *sendmgr.Manager
	channel Channel
	out     io.Writer

	confirmPaths bool
	printPlan    PlanPrinter
	renderer     ProgressRenderer

	metadataSent   bool
	transmitBegun  bool
	confirmPending bool
	finishPending  bool

	spinner *display.Spinner

	cancelDL *deadline
	cancelCh <-chan time.Time

	exitCode int
	done     bool
}

// New builds a Driver for one session. renderer may be nil (headless /
// test use); printPlan may be nil if confirmPaths is false.
func New(mgr *sendmgr.Manager, ch Channel, out io.Writer, confirmPaths bool, printPlan PlanPrinter, renderer ProgressRenderer) *Driver {
	d := &Driver{
		mgr:          mgr,
		channel:      ch,
		out:          out,
		confirmPaths: confirmPaths,
		printPlan:    printPlan,
		renderer:     renderer,
		spinner:      display.NewSpinner(),
	}
	if renderer != nil {
		mgr.OnFileDone = renderer.Done
	}
	return d
}

// Start emits the session-opening frames (spec.md §4.7): the "send"
// frame, and, if a handshake password was supplied, all file metadata
// immediately (skipping the permission round trip). It makes the cursor
// invisible by writing the raw escape sequence to the same output the
// diagnostics go to.
func (d *Driver) Start() error {
	if err := d.writeCommand(d.mgr.StartFrame()); err != nil {
		return fmt.Errorf("write send frame: %w", err)
	}
	fmt.Fprint(d.out, "\x1b[?25l") // hide cursor
	if d.mgr.Password != "" {
		if err := d.sendMetadata(); err != nil {
			return err
		}
	}
	return nil
}

// sendMetadata writes every plan entry's "file" command, in plan order,
// and marks metadata as sent so it is never emitted twice (spec.md §5:
// metadata for a file precedes any data frames for that file, and is
// otherwise sent exactly once per session).
func (d *Driver) sendMetadata() error {
	if d.metadataSent {
		return nil
	}
	d.metadataSent = true
	for _, cmd := range d.mgr.MetadataFrames() {
		if err := d.writeCommand(cmd); err != nil {
			return fmt.Errorf("write file frame: %w", err)
		}
	}
	return nil
}

// Run drives the loop until completion or a forced cancel-deadline exit,
// and returns the process exit code (spec.md §7). inbound delivers
// parsed, session-matched commands; input delivers terminal events; tick
// fires periodically (spinner cadence) to drive progress polling even
// when nothing else is pending.
func (d *Driver) Run(inbound <-chan codec.Command, input <-chan InputEvent, tick <-chan time.Time) int {
	for {
		if d.done {
			return d.exitCode
		}
		select {
		case cmd, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			prev := d.mgr.State
			d.mgr.OnFileTransferResponse(cmd, time.Now())
			if prev == sendmgr.WaitingForPermission && d.mgr.State == sendmgr.PermissionGranted {
				diag.PermissionGranted(d.out)
			}
			if d.mgr.State == sendmgr.PermissionDenied {
				diag.PermissionDenied(d.out)
				d.finish(1)
				continue
			}
			d.loopTick()
		case ev := <-input:
			d.handleInput(ev)
		case <-tick:
			d.loopTick()
		case <-d.cancelCh:
			d.finish(1)
		}
	}
}

// handleInput dispatches one terminal input event (spec.md §4.7 cancel
// flow and confirm-paths prompt).
func (d *Driver) handleInput(ev InputEvent) {
	switch ev.Kind {
	case EventKeyConfirm:
		if d.confirmPending {
			d.confirmPending = false
			d.beginTransmission()
		}
	case EventKeyCancel:
		if d.confirmPending {
			d.confirmPending = false
			d.cancel(false)
		}
	case EventInterrupt:
		d.cancel(false)
	case EventTerminate:
		d.cancel(true)
	}
}

// cancel implements the cancel flow (spec.md §4.7): print the right
// notice, emit cancel, arm the forced-exit deadline. A second interrupt
// while already canceled prints the waiting notice instead of re-emitting.
func (d *Driver) cancel(terminate bool) {
	if d.mgr.State == sendmgr.Canceled {
		diag.WaitingForCancelAck(d.out)
		return
	}
	if terminate {
		diag.TerminateCancel(d.out)
	} else {
		diag.InterruptCancel(d.out)
	}
	_ = d.writeCommand(d.mgr.CancelFrame())

	delay := InterruptCancelDelay
	if terminate {
		delay = TerminateCancelDelay
	}
	d.cancelDL, d.cancelCh = schedule(delay)
}

// loopTick implements loop_tick (spec.md §4.7).
func (d *Driver) loopTick() {
	switch d.mgr.State {
	case sendmgr.WaitingForPermission:
		return
	case sendmgr.Canceled:
		return
	}
	if !d.metadataSent {
		if err := d.sendMetadata(); err != nil {
			return
		}
	}
	if !d.transmitBegun {
		d.maybeBeginTransmission()
		return
	}
	d.produceAndWrite()
}

// maybeBeginTransmission implements the confirm-paths policy (spec.md
// §4.7): wait for AllStarted, print the plan, and wait for a y/n answer;
// without confirmation, begin as soon as permission is granted.
func (d *Driver) maybeBeginTransmission() {
	if !d.confirmPaths {
		d.beginTransmission()
		return
	}
	if d.confirmPending {
		return
	}
	if !d.mgr.AllStarted {
		return
	}
	if d.printPlan != nil {
		d.printPlan(d.mgr.Files())
	}
	d.confirmPending = true
}

func (d *Driver) beginTransmission() {
	d.transmitBegun = true
	d.mgr.Tracker.StartTransfer(time.Now())
	d.produceAndWrite()
}

// produceAndWrite writes the next chunk batch and, once the write drains,
// refreshes progress (spec.md "on writing finished").
func (d *Driver) produceAndWrite() {
	active := d.mgr.ActiveFile()
	now := time.Now()
	cmds, err := d.mgr.NextChunks(now)
	if err != nil {
		if active != nil {
			active.ErrMsg = err.Error()
			active.State = plan.Acknowledged
		}
		return
	}
	for _, cmd := range cmds {
		if err := d.writeCommand(cmd); err != nil {
			return
		}
	}
	d.mgr.WriteCompleted(time.Now())
	if f := d.mgr.ActiveFile(); f != nil && d.renderer != nil {
		d.renderer.Render(f, d.mgr.Tracker.Rate(), d.spinner.Tick())
	}
	d.maybeFinish()
}

// maybeFinish emits "finish" once AllAcknowledged and schedules exit
// (spec.md §4.5 completion).
func (d *Driver) maybeFinish() {
	if d.finishPending || !d.mgr.AllAcknowledged {
		return
	}
	d.finishPending = true
	_ = d.writeCommand(d.mgr.FinishFrame())
	d.finish(d.mgr.ExitCode())
}

func (d *Driver) finish(code int) {
	if d.cancelDL != nil {
		d.cancelDL.stop()
	}
	fmt.Fprint(d.out, "\x1b[?25h") // restore cursor
	d.exitCode = code
	d.done = true
}

func (d *Driver) writeCommand(cmd codec.Command) error {
	return d.channel.WriteFrame([]byte(wrap(d.mgr.RequestID, cmd)))
}
